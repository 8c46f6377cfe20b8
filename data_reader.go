package grapher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot/plotter"
)

// Data files are read through a small pipeline: an io.Reader (usually an
// opened data file) is split into string columns by a StringReader, and the
// TableReader turns those columns into rows of float64. LoadTable, LoadSamples
// and LoadXY wrap the pipeline for the two chart profiles.

var errIgnoreThisRow = errors.New("ignore this row")

var (
	// Returned (wrapped) when a line chart series has fewer than two columns.
	ErrMissingColumns = errors.New("not enough columns")

	// Returned (wrapped in a ParseError) when a row has a different number of
	// columns than the first row of the file.
	ErrRaggedRows = errors.New("inconsistent number of columns")
)

// ParseError reports a malformed value in a data file. It is always fatal to
// the chart being rendered.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s:%d: column %d: cannot parse %q: %v", e.Path, e.Line, e.Column, e.Value, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// When Read is called, return an array of strings which are the columns.
type StringReader interface {
	Read(context.Context) ([]string, error)
	LineNumber() int
}

// Splits lines on spaces, tabs or commas. Blank lines and lines starting with
// '#' are skipped (reported as errIgnoreThisRow), as is anything after a '#'.
type RelaxedStringReader struct {
	input   io.Reader
	scanner *bufio.Scanner

	lineCount int
}

func NewRelaxedStringReader(input io.Reader) *RelaxedStringReader {
	return &RelaxedStringReader{
		input:   input,
		scanner: bufio.NewScanner(input),

		lineCount: 0,
	}
}

// Split on either comma or any number of spaces or tabs
var relaxedSplitter = regexp.MustCompile("[ \t]+|,")

func (r *RelaxedStringReader) Read(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			logrus.WithField("tag", "RelaxedString").WithError(err).Error("unable to read line")
			return nil, err
		}
		return nil, io.EOF
	}

	r.lineCount++
	line := r.scanner.Text()

	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}

	// Return only non-empty columns
	splittedLine := Filter(relaxedSplitter.Split(strings.TrimSpace(line), -1), func(value string) bool {
		return len(value) > 0
	})

	if len(splittedLine) == 0 {
		return nil, errIgnoreThisRow
	}

	return splittedLine, nil
}

func (r *RelaxedStringReader) LineNumber() int {
	return r.lineCount
}

// Converts string columns into float rows. Unlike a streaming plot, a chart
// needs the whole file, so an unparsable value aborts the read.
type TableReader struct {
	// The input reader object.
	Input StringReader

	// Used in error messages only.
	Path string

	// Number of columns of the first row. Every subsequent row must match.
	columns int
}

func (r *TableReader) Read(ctx context.Context) ([]float64, error) {
	line, err := r.Input.Read(ctx)
	if err != nil {
		return nil, err
	}

	row := make([]float64, len(line))
	for i, value := range line {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, &ParseError{
				Path:   r.Path,
				Line:   r.Input.LineNumber(),
				Column: i,
				Value:  value,
				Err:    err,
			}
		}

		row[i] = floatValue
	}

	if r.columns == 0 {
		r.columns = len(row)
	} else if r.columns != len(row) {
		return nil, &ParseError{
			Path: r.Path,
			Line: r.Input.LineNumber(),
			Err:  fmt.Errorf("%w: expected %d, got %d", ErrRaggedRows, r.columns, len(row)),
		}
	}

	return row, nil
}

// A fully loaded data file, in row order.
type Table [][]float64

// Number of columns, or 0 for an empty table.
func (t Table) Columns() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// Column returns a copy of column i.
func (t Table) Column(i int) []float64 {
	column := make([]float64, len(t))
	for j, row := range t {
		column[j] = row[i]
	}
	return column
}

// Reads every row from input.
func ReadTable(ctx context.Context, input io.Reader, path string) (Table, error) {
	reader := &TableReader{
		Input: NewRelaxedStringReader(input),
		Path:  path,
	}

	table := Table{}
	for {
		row, err := reader.Read(ctx)
		if err == errIgnoreThisRow {
			continue
		} else if err == io.EOF {
			return table, nil
		} else if err != nil {
			return nil, err
		}

		table = append(table, row)
	}
}

// Opens and reads the file at path. The file is closed before returning.
func LoadTable(ctx context.Context, path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := ReadTable(ctx, f, path)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"tag":     "DataReader",
		"path":    path,
		"rows":    len(table),
		"columns": table.Columns(),
	}).Debug("loaded table")

	return table, nil
}

// Loads the sample set of a CDF series: the first column of every row.
func LoadSamples(ctx context.Context, path string) ([]float64, error) {
	table, err := LoadTable(ctx, path)
	if err != nil {
		return nil, err
	}

	if len(table) == 0 {
		return []float64{}, nil
	}

	return table.Column(0), nil
}

// Loads a line series: column 0 is x and column 1 is y, in row order.
func LoadXY(ctx context.Context, path string) (plotter.XYs, error) {
	table, err := LoadTable(ctx, path)
	if err != nil {
		return nil, err
	}

	if len(table) == 0 {
		return plotter.XYs{}, nil
	}

	if table.Columns() < 2 {
		return nil, fmt.Errorf("%s: %w: line series need 2, got %d", path, ErrMissingColumns, table.Columns())
	}

	xys := make(plotter.XYs, len(table))
	for i, row := range table {
		xys[i].X = row[0]
		xys[i].Y = row[1]
	}

	return xys, nil
}
