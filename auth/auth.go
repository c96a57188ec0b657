// Package auth provides OAuth2 client-credentials HTTP clients for the
// external price APIs.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// HTTPClient returns a client that attaches a bearer token to every request.
// Tokens are fetched from the token URL on first use and refreshed when they
// expire. base carries timeouts and transport; nil uses http.DefaultClient.
// Without configured credentials base is returned unchanged.
func HTTPClient(ctx context.Context, conf Conf, base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	if !conf.Enabled() {
		return base
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	cfg := conf.toOauth2Config()
	client := cfg.Client(ctx)
	client.Timeout = base.Timeout
	return client
}

// Token fetches an access token, mainly to check credentials up front.
func Token(ctx context.Context, conf Conf) (string, error) {
	cfg := conf.toOauth2Config()
	tok, err := cfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return tok.AccessToken, nil
}
