package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/datasweeper/internal/config"
	"github.com/nconklindev/datasweeper/internal/converter"
	"github.com/nconklindev/datasweeper/internal/logging"
	"github.com/nconklindev/datasweeper/internal/pipeline"
)

// runConvert converts each file argument independently and prints one line per
// file. It returns 1 when any file failed.
func runConvert(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)

	to := fs.String("to", "", "target format: csv or xlsx (default: the other format)")
	dedupe := fs.Bool("dedupe", false, "remove duplicate rows")
	fill := fs.Bool("fill", false, "fill missing numbers with the column mean")
	columns := fs.String("columns", "", "comma-separated columns to keep, in order")
	outDir := fs.String("out", "", "output directory (default: next to each input)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "convert: no input files")
		fs.Usage()
		return 2
	}

	opts := pipeline.Options{RemoveDuplicates: *dedupe, FillMissing: *fill}

	if *to != "" {
		f, err := converter.ParseFormat(*to)
		if err != nil {
			fmt.Fprintf(stderr, "convert: %v\n", err)
			return 2
		}
		opts.Target = f
	}

	if *columns != "" {
		for _, name := range strings.Split(*columns, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.Columns = append(opts.Columns, name)
			}
		}
	}

	closeLogs := logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		SeqURL: cfg.Logging.SeqURL,
		Output: stderr,
	})
	defer closeLogs()

	ctx := context.Background()
	failed := 0

	// results stay in argument order; unreadable files are recorded in place
	results := make([]pipeline.FileResult, fs.NArg())
	files := make([]pipeline.File, 0, fs.NArg())
	positions := make([]int, 0, fs.NArg())

	for i, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			results[i] = pipeline.FileResult{Name: path, Err: err}
			continue
		}
		files = append(files, pipeline.File{Name: path, Data: data})
		positions = append(positions, i)
	}

	for j, fr := range pipeline.RunFiles(ctx, files, opts) {
		results[positions[j]] = fr
	}

	for _, fr := range results {
		if fr.Err != nil {
			fmt.Fprintf(stdout, "FAIL %s: %v\n", fr.Name, fr.Err)
			failed++
			continue
		}

		out := fr.Result.Output
		dest := pipeline.OutputPath(fr.Name, *outDir, filepath.Base(out.OutputFile))
		if err := os.WriteFile(dest, out.Data, 0o644); err != nil {
			fmt.Fprintf(stdout, "FAIL %s: write output: %v\n", fr.Name, err)
			failed++
			continue
		}

		fmt.Fprintf(stdout, "OK   %s -> %s (%d rows, %d columns)\n", fr.Name, dest, out.Rows, len(out.Columns))
	}

	if failed > 0 {
		return 1
	}
	return 0
}
