// Package callset provides an ordered-column, tab-delimited table for
// haplotype call sets.  The merged-variant schema is dynamic (inversion
// columns, optional MERGE_* columns from the clustering step), so rows are
// kept as raw text cells rather than bound to a struct; values are coerced
// to numbers only at the interval/genotype boundaries.
package callset

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Table is a call-set table: an ordered set of named columns and rows of
// text cells.  A Table may additionally carry an ID index (see SetIndex)
// for row lookup by variant identifier.
type Table struct {
	cols   []string
	colIdx map[string]int
	rows   [][]string

	// index maps an ID-column value to a row position.  Nil until SetIndex.
	index map[string]int
	idCol string
}

// NewTable returns an empty table with the given column names.
func NewTable(cols []string) (*Table, error) {
	t := &Table{
		cols:   append([]string(nil), cols...),
		colIdx: make(map[string]int, len(cols)),
	}
	for i, name := range t.cols {
		if _, found := t.colIdx[name]; found {
			return nil, fmt.Errorf("callset.NewTable: duplicate column %q", name)
		}
		t.colIdx[name] = i
	}
	return t, nil
}

// AppendRow appends one data row.  Any ID index becomes stale; call
// SetIndex again after the last append.
func (t *Table) AppendRow(row []string) error {
	if len(row) != len(t.cols) {
		return fmt.Errorf("callset: row has %d fields, table has %d columns", len(row), len(t.cols))
	}
	t.rows = append(t.rows, row)
	t.index = nil
	return nil
}

// ReadTable reads a tab-delimited table with a single header row.  Every
// data row must have exactly as many fields as the header.  Empty lines are
// skipped.
func ReadTable(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)

	t := &Table{}
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if t.cols == nil {
			t.cols = fields
			t.colIdx = make(map[string]int, len(fields))
			for i, name := range fields {
				if _, found := t.colIdx[name]; found {
					return nil, fmt.Errorf("callset.ReadTable: duplicate column %q in header", name)
				}
				t.colIdx[name] = i
			}
			continue
		}
		if len(fields) != len(t.cols) {
			return nil, fmt.Errorf("callset.ReadTable: line %d has %d fields, header has %d",
				lineIdx, len(fields), len(t.cols))
		}
		t.rows = append(t.rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if t.cols == nil {
		return nil, fmt.Errorf("callset.ReadTable: empty input, no header row")
	}
	return t, nil
}

// ReadTableFromPath is a wrapper for ReadTable that takes a path instead of
// an io.Reader.  Gzipped input is detected from the path suffix.
func ReadTableFromPath(path string) (*Table, error) {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	reader := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		if reader, err = gzip.NewReader(reader); err != nil {
			return nil, err
		}
	}
	t, err := ReadTable(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return t, nil
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.rows) }

// Columns returns the column names in order.  The caller must not mutate
// the returned slice.
func (t *Table) Columns() []string { return t.cols }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, found := t.colIdx[name]
	return found
}

func (t *Table) mustCol(name string) int {
	i, found := t.colIdx[name]
	if !found {
		panic(fmt.Sprintf("callset: no column %q", name))
	}
	return i
}

// Get returns the cell at (row, name).
//
// REQUIRES: the column exists and row < NumRows().
func (t *Table) Get(row int, name string) string {
	return t.rows[row][t.mustCol(name)]
}

// Set overwrites the cell at (row, name).
//
// REQUIRES: the column exists and row < NumRows().
func (t *Table) Set(row int, name, value string) {
	t.rows[row][t.mustCol(name)] = value
}

// Column returns the values of the named column, one per row.
//
// REQUIRES: the column exists.
func (t *Table) Column(name string) []string {
	i := t.mustCol(name)
	vals := make([]string, len(t.rows))
	for r, row := range t.rows {
		vals[r] = row[i]
	}
	return vals
}

// SetColumn replaces the values of an existing column.
func (t *Table) SetColumn(name string, values []string) error {
	i, found := t.colIdx[name]
	if !found {
		return fmt.Errorf("callset: no column %q", name)
	}
	if len(values) != len(t.rows) {
		return fmt.Errorf("callset: column %q: %d values for %d rows", name, len(values), len(t.rows))
	}
	for r := range t.rows {
		t.rows[r][i] = values[r]
	}
	return nil
}

// AddColumn appends a new column with the given per-row values.
func (t *Table) AddColumn(name string, values []string) error {
	if _, found := t.colIdx[name]; found {
		return fmt.Errorf("callset: column %q already exists", name)
	}
	if len(values) != len(t.rows) {
		return fmt.Errorf("callset: column %q: %d values for %d rows", name, len(values), len(t.rows))
	}
	t.colIdx[name] = len(t.cols)
	t.cols = append(t.cols, name)
	for r := range t.rows {
		t.rows[r] = append(t.rows[r], values[r])
	}
	return nil
}

// AddConstColumn appends a new column filled with the same value in every
// row.  On a zero-row table this still records the column so the output
// schema keeps its shape.
func (t *Table) AddConstColumn(name, value string) error {
	values := make([]string, len(t.rows))
	for r := range values {
		values[r] = value
	}
	return t.AddColumn(name, values)
}

// RenameColumn renames a column in place, keeping its position.
func (t *Table) RenameColumn(old, new string) error {
	i, found := t.colIdx[old]
	if !found {
		return fmt.Errorf("callset: no column %q", old)
	}
	if _, found := t.colIdx[new]; found && new != old {
		return fmt.Errorf("callset: column %q already exists", new)
	}
	delete(t.colIdx, old)
	t.cols[i] = new
	t.colIdx[new] = i
	if t.idCol == old {
		t.idCol = new
	}
	return nil
}

// DropColumn removes a column and its cells.
func (t *Table) DropColumn(name string) error {
	i, found := t.colIdx[name]
	if !found {
		return fmt.Errorf("callset: no column %q", name)
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	delete(t.colIdx, name)
	for col, j := range t.colIdx {
		if j > i {
			t.colIdx[col] = j - 1
		}
	}
	for r := range t.rows {
		t.rows[r] = append(t.rows[r][:i], t.rows[r][i+1:]...)
	}
	return nil
}

// SetIndex builds the ID index over the named column.  IDs must be unique.
func (t *Table) SetIndex(name string) error {
	i, found := t.colIdx[name]
	if !found {
		return fmt.Errorf("callset: no column %q", name)
	}
	index := make(map[string]int, len(t.rows))
	for r, row := range t.rows {
		id := row[i]
		if _, found := index[id]; found {
			return fmt.Errorf("callset: duplicate ID %q in column %q", id, name)
		}
		index[id] = r
	}
	t.index = index
	t.idCol = name
	return nil
}

// ID returns the indexed identifier of a row.
//
// REQUIRES: SetIndex was called.
func (t *Table) ID(row int) string {
	if t.index == nil {
		panic("callset: table is not indexed")
	}
	return t.Get(row, t.idCol)
}

// Lookup returns the cell at the row identified by id.  A missing id is an
// error (a dangling reference from the caller's point of view).
func (t *Table) Lookup(id, name string) (string, error) {
	if t.index == nil {
		return "", fmt.Errorf("callset: table is not indexed")
	}
	r, found := t.index[id]
	if !found {
		return "", fmt.Errorf("callset: no record %q (column %q)", id, name)
	}
	i, found := t.colIdx[name]
	if !found {
		return "", fmt.Errorf("callset: no column %q", name)
	}
	return t.rows[r][i], nil
}

// Subset returns a new Table keeping rows where keep[row] is true, in the
// original order.  keep must have one entry per row.  The ID index, if any,
// is rebuilt.  Row slices are shared with the receiver.
func (t *Table) Subset(keep []bool) (*Table, error) {
	if len(keep) != len(t.rows) {
		return nil, fmt.Errorf("callset: Subset mask has %d entries for %d rows", len(keep), len(t.rows))
	}
	out := &Table{
		cols:   append([]string(nil), t.cols...),
		colIdx: make(map[string]int, len(t.cols)),
		idCol:  t.idCol,
	}
	for i, name := range out.cols {
		out.colIdx[name] = i
	}
	for r, row := range t.rows {
		if keep[r] {
			out.rows = append(out.rows, row)
		}
	}
	if t.index != nil {
		if err := out.SetIndex(t.idCol); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SubsetChrom returns the rows placed on the given chromosome, per the
// "#CHROM" column.
func (t *Table) SubsetChrom(chrom string) (*Table, error) {
	if !t.HasColumn(ChromCol) {
		return nil, fmt.Errorf("callset: no column %q", ChromCol)
	}
	keep := make([]bool, len(t.rows))
	for r := range t.rows {
		keep[r] = t.Get(r, ChromCol) == chrom
	}
	return t.Subset(keep)
}

// Concat concatenates tables with identical column sets, preserving the
// argument order and the row order within each table.  If the first table
// carries an ID index the result is re-indexed on the same column, so
// duplicate IDs across partitions are an error.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("callset.Concat: no tables")
	}
	first := tables[0]
	out := &Table{
		cols:   append([]string(nil), first.cols...),
		colIdx: make(map[string]int, len(first.cols)),
		idCol:  first.idCol,
	}
	for i, name := range out.cols {
		out.colIdx[name] = i
	}
	for ti, t := range tables {
		if len(t.cols) != len(out.cols) {
			return nil, fmt.Errorf("callset.Concat: table %d has %d columns, table 0 has %d",
				ti, len(t.cols), len(out.cols))
		}
		for i, name := range t.cols {
			if name != out.cols[i] {
				return nil, fmt.Errorf("callset.Concat: table %d column %d is %q, table 0 has %q",
					ti, i, name, out.cols[i])
			}
		}
		out.rows = append(out.rows, t.rows...)
	}
	if first.index != nil {
		if err := out.SetIndex(first.idCol); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Write writes the table as tab-delimited text with a header row.
func (t *Table) Write(w io.Writer) error {
	tsvw := tsv.NewWriter(w)
	for _, name := range t.cols {
		tsvw.WriteString(name)
	}
	if err := tsvw.EndLine(); err != nil {
		return err
	}
	for _, row := range t.rows {
		for _, cell := range row {
			tsvw.WriteString(cell)
		}
		if err := tsvw.EndLine(); err != nil {
			return err
		}
	}
	return tsvw.Flush()
}

// WriteToPath writes the table to a path via base/file.  Output is
// gzip-compressed when the path suffix says so, matching ReadTableFromPath.
func (t *Table) WriteToPath(path string) (err error) {
	ctx := vcontext.Background()
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	w := io.Writer(out.Writer(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		gz := gzip.NewWriter(w)
		if err = t.Write(gz); err != nil {
			return err
		}
		return gz.Close()
	}
	return t.Write(w)
}
