/*
Package tables assembles compiled glyph records into a binary font
container: the glyph tables (glyf, loca, gvar, VARC), their companion
tables (head, maxp, fvar) and the sfnt table directory with per-table
checksums.

Assembly is single-threaded and deterministic: identical records in
identical order produce byte-identical output. Timestamps in head are
pinned to a fixed epoch for that reason.

# Variable composite layout

VARC is written in a compact layout of our own: a version word, offsets
to the variation store and the shared axis-index lists, a coverage
array of composite glyph IDs with per-glyph record offsets, then the
component records. Components reference deduplicated axis-index lists
and a multi-item variation store whose items hold per-region int16
deltas in the component's fixed-point channel encoding.

# Status

Work in progress.

BSD License

Copyright (c) 2023–2026, Norbert Pillmayer

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions are
met:

1. Redistributions of source code must retain the above copyright
notice, this list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright
notice, this list of conditions and the following disclaimer in the
documentation and/or other materials provided with the distribution.

3. Neither the name of this software nor the names of its contributors
may be used to endorse or promote products derived from this software
without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
"AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
(INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
*/
package tables

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'punchcut.tables'.
func tracer() tracing.Trace {
	return tracing.Select("punchcut.tables")
}
