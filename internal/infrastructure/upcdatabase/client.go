// Package upcdatabase looks up barcodes on the UPC Database API.
package upcdatabase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/barcodelens/backend/internal/domain"
	"github.com/barcodelens/backend/internal/infrastructure/provider"
)

// Client handles communication with the UPC Database API
type Client struct {
	baseURL string
	apiKey  string
	fetcher *provider.Fetcher
}

// NewClient creates a new UPC Database client.
// baseURL is the product endpoint prefix; the barcode is appended to it.
func NewClient(baseURL, apiKey string, opts provider.Options) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		fetcher: provider.NewFetcher(domain.SourceUPCDatabase, opts),
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return domain.SourceUPCDatabase
}

// Lookup fetches a product by barcode.
// The API answers 200 whether or not the product exists; the body decides.
func (c *Client) Lookup(ctx context.Context, barcode string) domain.Outcome {
	endpoint := c.baseURL + url.PathEscape(barcode)
	params := url.Values{}
	params.Add("apikey", c.apiKey)
	reqURL := endpoint + "?" + params.Encode()

	resp, err := c.fetcher.Get(ctx, reqURL, endpoint)
	if err != nil {
		return domain.Failed(&domain.ProviderError{Provider: c.Name(), Err: err})
	}

	if resp.StatusCode != http.StatusOK {
		return domain.Failed(&domain.ProviderError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
		})
	}

	outcome := MapResponse(barcode, resp.Body)
	if outcome.Status == domain.OutcomeNotFound {
		c.fetcher.Logger().Info("Barcode not found", "barcode", barcode)
	}
	return outcome
}
