// Package pipeline runs one uploaded file through decode, clean, project and
// encode. It keeps no state between calls; shells own whatever they display.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/nconklindev/datasweeper/internal/converter"
	"github.com/nconklindev/datasweeper/internal/logging"
	"github.com/nconklindev/datasweeper/internal/transform"
	"github.com/nconklindev/datasweeper/internal/types"
)

type Stage string

const (
	StageDecode  Stage = "decode"
	StageClean   Stage = "clean"
	StageProject Stage = "project"
	StageEncode  Stage = "encode"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageDecode, StageClean, StageProject, StageEncode}

// Options selects what happens to a file between decode and encode.
type Options struct {
	RemoveDuplicates bool
	FillMissing      bool

	// Columns to keep, in order. Nil keeps every column.
	Columns []string

	// Target format. Empty converts to the format the file is not already in.
	Target converter.Format
}

// Result is a finished conversion.
type Result struct {
	Source string
	RowsIn int
	Table  *types.Table
	Output *types.ConversionResult
}

// StageError records which stage a file failed in. The cause keeps its kind,
// so errors.Is and errors.As see through it.
type StageError struct {
	Stage Stage
	File  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.File, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Run converts a single file. report, when not nil, is called as each stage begins.
func Run(ctx context.Context, data []byte, name string, opts Options, report func(Stage)) (*Result, error) {
	start := time.Now()
	logger := logging.WithFields(ctx, "file", name)

	if report == nil {
		report = func(Stage) {}
	}

	report(StageDecode)
	tbl, err := converter.Decode(data, name)
	if err != nil {
		return nil, &StageError{Stage: StageDecode, File: name, Err: err}
	}
	rowsIn := tbl.NumRows()
	logger.Debug("decoded", "rows", rowsIn, "columns", len(tbl.Columns))

	report(StageClean)
	tbl = Clean(tbl, opts)

	report(StageProject)
	if opts.Columns != nil {
		tbl, err = transform.Project(tbl, opts.Columns)
		if err != nil {
			return nil, &StageError{Stage: StageProject, File: name, Err: err}
		}
	}

	target := opts.Target
	if target == "" {
		target = DefaultTarget(name)
	}

	report(StageEncode)
	out, err := converter.Encode(tbl, target, name)
	if err != nil {
		return nil, &StageError{Stage: StageEncode, File: name, Err: err}
	}

	logger.Info("file converted",
		"target", target,
		"rows_in", rowsIn,
		"rows_out", tbl.NumRows(),
		"columns", len(tbl.Columns),
		"bytes", len(out.Data),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Result{
		Source: name,
		RowsIn: rowsIn,
		Table:  tbl,
		Output: out,
	}, nil
}

// Clean applies the selected cleaning steps, duplicates first.
func Clean(tbl *types.Table, opts Options) *types.Table {
	if opts.RemoveDuplicates {
		tbl = transform.RemoveDuplicates(tbl)
	}
	if opts.FillMissing {
		tbl = transform.FillMissingNumeric(tbl)
	}
	return tbl
}

// DefaultTarget picks the other supported format for a file name.
func DefaultTarget(name string) converter.Format {
	if f, err := converter.FormatFromFileName(name); err == nil && f == converter.FormatCSV {
		return converter.FormatXLSX
	}
	return converter.FormatCSV
}

// File is one named upload.
type File struct {
	Name string
	Data []byte
}

// FileResult pairs a file with its outcome. Exactly one of Result and Err is set.
type FileResult struct {
	Name   string
	Result *Result
	Err    error
}

// RunFiles converts every file independently. A failure is recorded against its
// own file and the rest continue.
func RunFiles(ctx context.Context, files []File, opts Options) []FileResult {
	results := make([]FileResult, 0, len(files))

	for _, f := range files {
		res, err := Run(ctx, f.Data, f.Name, opts, nil)
		if err != nil {
			logging.WithFields(ctx, "file", f.Name).Warn("file failed", "error", err)
		}
		results = append(results, FileResult{Name: f.Name, Result: res, Err: err})
	}

	return results
}
