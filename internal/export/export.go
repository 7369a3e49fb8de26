// Package export serialises table rows to CSV. A destination is only written
// once the whole document has been rendered.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
)

// ErrNoRows is returned when a job resolves to zero rows.
var ErrNoRows = errors.New("export: no rows to export")

// FetchFunc loads the full snapshot for a job.
type FetchFunc func(ctx context.Context) ([]domain.Row, error)

// Job describes one export. When Selection is non-empty it is serialised as
// is; otherwise Fetch is called. Columns fixes the header order; when empty
// it is derived from the rows.
type Job struct {
	Columns   []string
	Selection []domain.Row
	Fetch     FetchFunc
}

// Rows resolves the rows the job will serialise.
func (j Job) Rows(ctx context.Context) ([]domain.Row, error) {
	if len(j.Selection) > 0 {
		return j.Selection, nil
	}
	if j.Fetch == nil {
		return nil, ErrNoRows
	}
	rows, err := j.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: fetch rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// Render produces the complete CSV document for the job.
func (j Job) Render(ctx context.Context) ([]byte, error) {
	rows, err := j.Rows(ctx)
	if err != nil {
		return nil, err
	}
	columns := j.Columns
	if len(columns) == 0 {
		columns = Columns(rows)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, columns, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders the job and atomically places it at path. On any error
// no file is created and an existing file at path is left untouched.
func WriteFile(ctx context.Context, path string, j Job) error {
	data, err := j.Render(ctx)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("export: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("export: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("export: rename into place: %w", err)
	}
	return nil
}

// WriteCSV writes a header row followed by one record per row. Values are
// looked up by column id; missing keys become empty cells.
func WriteCSV(w io.Writer, columns []string, rows []domain.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	record := make([]string, len(columns))
	for i, row := range rows {
		for c, col := range columns {
			cell, err := formatCell(row[col])
			if err != nil {
				return fmt.Errorf("export: row %d column %q: %w", i, col, err)
			}
			record[c] = cell
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Columns derives a header from rows: id first, then the remaining keys in
// lexical order.
func Columns(rows []domain.Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		if k != "id" {
			cols = append(cols, k)
		}
	}
	slices.Sort(cols)
	if _, ok := seen["id"]; ok {
		cols = append([]string{"id"}, cols...)
	}
	return cols
}

func formatCell(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case time.Time:
		return val.UTC().Format(time.RFC3339), nil
	case *time.Time:
		if val == nil {
			return "", nil
		}
		return val.UTC().Format(time.RFC3339), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
