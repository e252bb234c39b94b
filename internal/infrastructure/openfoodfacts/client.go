// Package openfoodfacts looks up barcodes on the Open Food Facts product API.
package openfoodfacts

import (
	"context"
	"net/http"
	"net/url"

	"github.com/barcodelens/backend/internal/domain"
	"github.com/barcodelens/backend/internal/infrastructure/provider"
)

// Client handles communication with the Open Food Facts API
type Client struct {
	baseURL string
	fetcher *provider.Fetcher
}

// NewClient creates a new Open Food Facts client.
// baseURL is the product endpoint prefix; the barcode and ".json" are appended to it.
func NewClient(baseURL string, opts provider.Options) *Client {
	return &Client{
		baseURL: baseURL,
		fetcher: provider.NewFetcher(domain.SourceOpenFoodFacts, opts),
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return domain.SourceOpenFoodFacts
}

// Lookup fetches a product by barcode.
// 404 and "not found" bodies are NotFound; any other non-200 status is an error.
func (c *Client) Lookup(ctx context.Context, barcode string) domain.Outcome {
	reqURL := c.baseURL + url.PathEscape(barcode) + ".json"

	resp, err := c.fetcher.Get(ctx, reqURL, reqURL)
	if err != nil {
		return domain.Failed(&domain.ProviderError{Provider: c.Name(), Err: err})
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return MapResponse(barcode, resp.Body)
	case http.StatusNotFound:
		c.fetcher.Logger().Info("Barcode not found", "barcode", barcode)
		return domain.NotFound()
	default:
		return domain.Failed(&domain.ProviderError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
		})
	}
}
