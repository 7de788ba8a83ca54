package encode

import "bytes"

// Writing bytes of a font's binary representation. All font data is
// big-endian.

// BinWriter accumulates big-endian binary data. The zero value is ready
// for use.
type BinWriter struct {
	buf bytes.Buffer
}

// Len returns the number of bytes written so far.
func (w *BinWriter) Len() int {
	return w.buf.Len()
}

// Bytes returns the accumulated data.
func (w *BinWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// U8 writes one byte.
func (w *BinWriter) U8(v uint8) {
	w.buf.WriteByte(v)
}

// U16 writes an unsigned 16-bit value.
func (w *BinWriter) U16(v uint16) {
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v))
}

// I16 writes a signed 16-bit value.
func (w *BinWriter) I16(v int16) {
	w.U16(uint16(v))
}

// U32 writes an unsigned 32-bit value.
func (w *BinWriter) U32(v uint32) {
	w.buf.WriteByte(byte(v >> 24))
	w.buf.WriteByte(byte(v >> 16))
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v))
}

// I32 writes a signed 32-bit value.
func (w *BinWriter) I32(v int32) {
	w.U32(uint32(v))
}

// Tag writes a 4-byte tag, padding short tags with spaces.
func (w *BinWriter) Tag(tag string) {
	for i := 0; i < 4; i++ {
		if i < len(tag) {
			w.buf.WriteByte(tag[i])
		} else {
			w.buf.WriteByte(' ')
		}
	}
}

// Raw appends a byte slice verbatim.
func (w *BinWriter) Raw(data []byte) {
	w.buf.Write(data)
}

// Pad4 pads with zero bytes up to the next 4-byte boundary.
func (w *BinWriter) Pad4() {
	for w.buf.Len()%4 != 0 {
		w.buf.WriteByte(0)
	}
}
