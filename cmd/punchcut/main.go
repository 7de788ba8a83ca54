package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"

	"github.com/glyphworks/punchcut/compile"
	"github.com/glyphworks/punchcut/compile/source"
	"github.com/glyphworks/punchcut/core"
)

// tracer traces with key 'punchcut.compile'
func tracer() tracing.Trace {
	return tracing.Select("punchcut.compile")
}

func main() {
	initDisplay()

	output := flag.String("o", "out.bin", "Output file for the compiled font")
	glyphs := flag.String("glyphs", "", "Comma-separated glyph names to compile (default: all)")
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	workers := flag.Int("workers", 0, "Worker pool size (default: number of CPUs)")
	flag.Parse()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":        "go",
		"trace.punchcut.model":   *tlevel,
		"trace.punchcut.source":  *tlevel,
		"trace.punchcut.compile": *tlevel,
		"trace.punchcut.encode":  *tlevel,
		"trace.punchcut.tables":  *tlevel,
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Println("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	if flag.NArg() != 1 {
		pterm.Error.Println("usage: punchcut [flags] project.json")
		os.Exit(2)
	}
	project := flag.Arg(0)
	pterm.Info.Printfln("compiling %s", project)

	backend, err := source.LoadJSON(project)
	if err != nil {
		fail(err)
	}
	opts := compile.Options{Workers: *workers}
	if *glyphs != "" {
		opts.GlyphFilter = strings.Split(*glyphs, ",")
	}
	compiler := compile.New(backend, opts)
	font, err := compiler.Compile(context.Background())
	if err != nil {
		tracer().Errorf("pipeline stopped in stage %s", compiler.Phase())
		fail(err)
	}
	if err := os.WriteFile(*output, font, 0644); err != nil {
		fail(core.WrapError(err, core.ECONNECTION, "cannot write %s", *output))
	}
	pterm.Info.Printfln("wrote %s (%d bytes)", *output, len(font))
}

func fail(err error) {
	core.UserError(err)
	os.Exit(3)
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}
