// Package dataset reshapes the wide experiment sheet, one column pair per
// reading strategy, into one record per observation.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	prefixFiction = "Fiction"
	prefixHelp    = "Self-Help"
	prefixUnnamed = "Unnamed"
)

// Wide is the experiment sheet after cleaning. Budgets holds the free time
// of every column, Rows the observations.
type Wide struct {
	Columns []string
	Budgets []float64
	Rows    [][]float64

	index map[string]int
}

// Record is one observation of one strategy.
type Record struct {
	Strategy       int     `json:"strategy"`
	ReadingFiction float64 `json:"reading_fiction"`
	ReadingHelp    float64 `json:"reading_help"`
	FreeFiction    float64 `json:"free_fiction"`
	FreeHelp       float64 `json:"free_help"`
	TotalReading   float64 `json:"total_reading"`
}

// ReadWide parses the wide sheet. The first data row holds the free-time
// budgets and the second is ignored; observations start after them.
// Columns "Fiction" and "Self-Help" are strategy 0 and "Unnamed" columns
// are dropped. Empty cells parse as NaN.
func ReadWide(r io.Reader) (*Wide, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("sheet needs a header and a budget row, got %d rows", len(records))
	}

	var (
		keep    []int
		columns []string
	)
	for i, name := range records[0] {
		name = strings.TrimSpace(name)
		if name == "" || strings.Contains(name, prefixUnnamed) {
			continue
		}
		switch name {
		case prefixFiction, prefixHelp:
			name += ".0"
		}
		keep = append(keep, i)
		columns = append(columns, name)
	}

	w := &Wide{
		Columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, name := range columns {
		w.index[name] = i
	}

	w.Budgets, err = parseRow(records[1], keep)
	if err != nil {
		return nil, fmt.Errorf("budget row: %w", err)
	}

	for n, record := range records[min(3, len(records)):] {
		row, err := parseRow(record, keep)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+3, err)
		}
		w.Rows = append(w.Rows, row)
	}
	return w, nil
}

// ReadWideFile opens and parses a sheet.
func ReadWideFile(path string) (*Wide, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadWide(f)
}

func parseRow(record []string, keep []int) ([]float64, error) {
	row := make([]float64, len(keep))
	for i, col := range keep {
		if col >= len(record) {
			row[i] = math.NaN()
			continue
		}
		cell := strings.TrimSpace(record[col])
		if cell == "" {
			row[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", col, err)
		}
		row[i] = v
	}
	return row, nil
}

// Strategies returns the ids that have both a fiction and a help column, in
// ascending order.
func (w *Wide) Strategies() []int {
	var ids []int
	for _, name := range w.Columns {
		suffix, found := strings.CutPrefix(name, prefixFiction+".")
		if !found {
			continue
		}
		id, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if _, ok := w.index[helpColumn(id)]; ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Long returns one record per observation per strategy, grouped by strategy.
func (w *Wide) Long() []Record {
	var out []Record
	for _, id := range w.Strategies() {
		fi := w.index[fictionColumn(id)]
		hi := w.index[helpColumn(id)]
		for _, row := range w.Rows {
			out = append(out, Record{
				Strategy:       id,
				ReadingFiction: row[fi],
				ReadingHelp:    row[hi],
				FreeFiction:    w.Budgets[fi],
				FreeHelp:       w.Budgets[hi],
				TotalReading:   row[fi] + row[hi],
			})
		}
	}
	return out
}

func fictionColumn(id int) string {
	return fmt.Sprintf("%s.%d", prefixFiction, id)
}

func helpColumn(id int) string {
	return fmt.Sprintf("%s.%d", prefixHelp, id)
}

var longHeader = []string{"strategy", "reading_fiction", "reading_help", "free_fiction", "free_help", "total_reading"}

// WriteLongCSV writes records with a header row. NaN is written as an empty cell.
func WriteLongCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(longHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Strategy),
			formatCell(r.ReadingFiction),
			formatCell(r.ReadingHelp),
			formatCell(r.FreeFiction),
			formatCell(r.FreeHelp),
			formatCell(r.TotalReading),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
