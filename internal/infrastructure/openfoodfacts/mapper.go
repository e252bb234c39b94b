package openfoodfacts

import (
	"encoding/json"
	"fmt"

	"github.com/barcodelens/backend/internal/domain"
)

// statusFound is the API's "product exists" status value
const statusFound = 1

// productResponse is the subset of the product API response we read
type productResponse struct {
	Status  int      `json:"status"`
	Product *product `json:"product"`
}

type product struct {
	ProductName string `json:"product_name"`
	Brands      string `json:"brands"`
	ProductType string `json:"product_type"`
	Quantity    string `json:"quantity"`
}

// MapResponse converts a 200 response body into an outcome.
// The product is found only when status is 1 and the product name is non-empty.
func MapResponse(barcode string, body []byte) domain.Outcome {
	var resp productResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Failed(&domain.ProviderError{
			Provider:   domain.SourceOpenFoodFacts,
			StatusCode: 200,
			Body:       string(body),
			Err:        fmt.Errorf("failed to decode response: %w", err),
		})
	}

	if resp.Status != statusFound || resp.Product == nil {
		return domain.NotFound()
	}

	return domain.Found(domain.ProductRecord{
		Barcode:  barcode,
		Brand:    domain.FirstToken(resp.Product.Brands),
		Title:    domain.CleanTitle(resp.Product.ProductName),
		Category: domain.FirstToken(resp.Product.ProductType),
		Quantity: domain.FirstToken(resp.Product.Quantity),
		Source:   domain.SourceOpenFoodFacts,
	})
}
