package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/chargehub/core/model"
)

const colPrice = "Preis"

// ReadPrices returns the Preis column, one value per 5-minute step.
func ReadPrices(r io.Reader) ([]float64, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("prices: %w", err)
	}
	if err := t.require(colPrice); err != nil {
		return nil, fmt.Errorf("prices: %w", err)
	}
	out := make([]float64, len(t.rows))
	for i, row := range t.rows {
		if out[i], err = ParseFloat(t.get(row, colPrice)); err != nil {
			return nil, fmt.Errorf("prices row %d: %w", i+2, err)
		}
	}
	return out, nil
}

// WritePrices writes one price per 5-minute step in the layout ReadPrices
// accepts.
func WritePrices(w io.Writer, prices []float64) error {
	cw := NewWriter(w)
	if err := cw.Write([]string{"Zeit_Num", colPrice}); err != nil {
		return err
	}
	for i, p := range prices {
		if err := cw.Write([]string{strconv.Itoa(i * model.StepMinutes), FormatFloat(p)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
