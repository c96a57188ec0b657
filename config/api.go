package config

import (
	"github.com/kilianp07/chargehub/auth"
	"github.com/kilianp07/chargehub/connectors/factory"
)

// APIConfig configures the results HTTP API of the serve command.
type APIConfig struct {
	Addr string `json:"addr"`
	// Token enables bearer authentication when non-empty.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// PriceAPIConfig selects the market API the prices command downloads from.
type PriceAPIConfig struct {
	Source  string    `json:"source"`
	BaseURL string    `json:"base_url"`
	Auth    auth.Conf `json:"auth"`
}

// SetDefaults applies sane defaults.
func (c *PriceAPIConfig) SetDefaults() {
	if c.Source == "" {
		c.Source = factory.IDWholesaleMarket
	}
}
