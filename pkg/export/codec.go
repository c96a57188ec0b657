// Package export reads and writes the semicolon separated tables with decimal
// commas exchanged with spreadsheet tooling.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Separator is the field delimiter of all tables.
const Separator = ';'

// NewReader returns a csv.Reader configured for the table dialect.
func NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = Separator
	cr.TrimLeadingSpace = true
	return cr
}

// NewWriter returns a csv.Writer configured for the table dialect.
func NewWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = Separator
	return cw
}

// FormatFloat renders f with a decimal comma.
func FormatFloat(f float64) string {
	return strings.Replace(strconv.FormatFloat(f, 'f', -1, 64), ".", ",", 1)
}

// ParseFloat accepts decimal commas as well as points.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// ParseInt accepts integral values written as decimals, e.g. "45,0".
func ParseInt(s string) (int, error) {
	if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return i, nil
	}
	f, err := ParseFloat(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}

// table gives access to the rows of a CSV by column name.
type table struct {
	cols map[string]int
	rows [][]string
}

func readTable(r io.Reader) (*table, error) {
	records, err := NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header")
	}
	t := &table{cols: make(map[string]int, len(records[0])), rows: records[1:]}
	for i, name := range records[0] {
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		if name != "" {
			t.cols[name] = i
		}
	}
	return t, nil
}

func (t *table) require(names ...string) error {
	for _, n := range names {
		if _, ok := t.cols[n]; !ok {
			return fmt.Errorf("missing column %q", n)
		}
	}
	return nil
}

func (t *table) has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

func (t *table) get(row []string, name string) string {
	i, ok := t.cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
