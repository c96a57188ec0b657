package factory

import (
	"fmt"
	"net/http"

	"github.com/kilianp07/chargehub/connectors"
	wholesalemarket "github.com/kilianp07/chargehub/connectors/clients/wholesaleMarket"
)

const (
	IDWholesaleMarket = "wholesale_market"
)

var (
	errUnknownClient = "unknown connector id: %s"
)

// NewPriceSource returns the price connector registered under id.
func NewPriceSource(id, baseURL string, httpClient *http.Client) (connectors.PriceSource, error) {
	switch id {
	case IDWholesaleMarket:
		return wholesalemarket.NewClient(baseURL, httpClient), nil
	default:
		return nil, fmt.Errorf(errUnknownClient, id)
	}
}
