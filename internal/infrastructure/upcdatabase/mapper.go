package upcdatabase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/barcodelens/backend/internal/domain"
)

var (
	errNoJSON         = errors.New("response contains no JSON object")
	errMissingSuccess = errors.New(`response has no boolean "success" field`)
)

// productResponse is the subset of the product API response we read
type productResponse struct {
	Success     *bool     `json:"success"`
	Title       string    `json:"title"`
	Alias       string    `json:"alias"`
	Description string    `json:"description"`
	Brand       string    `json:"brand"`
	Category    string    `json:"category"`
	Metadata    *metadata `json:"metadata"`
}

type metadata struct {
	Quantity string `json:"quantity"`
}

// StripPreamble drops everything before the first '{'.
// The API sometimes prefixes its JSON with HTML or warnings.
func StripPreamble(body []byte) ([]byte, error) {
	start := bytes.IndexByte(body, '{')
	if start < 0 {
		return nil, errNoJSON
	}
	return body[start:], nil
}

// MapResponse converts a 200 response body into an outcome
func MapResponse(barcode string, body []byte) domain.Outcome {
	fail := func(err error) domain.Outcome {
		return domain.Failed(&domain.ProviderError{
			Provider:   domain.SourceUPCDatabase,
			StatusCode: 200,
			Body:       string(body),
			Err:        err,
		})
	}

	clean, err := StripPreamble(body)
	if err != nil {
		return fail(err)
	}

	var resp productResponse
	if err := json.Unmarshal(clean, &resp); err != nil {
		return fail(fmt.Errorf("failed to decode response: %w", err))
	}

	if resp.Success == nil {
		return fail(errMissingSuccess)
	}
	if !*resp.Success {
		return domain.NotFound()
	}

	title := firstNonEmpty(resp.Title, resp.Alias, resp.Description)
	if title == "" {
		return domain.NotFound()
	}

	var quantity string
	if resp.Metadata != nil {
		quantity = domain.FirstToken(resp.Metadata.Quantity)
	}

	return domain.Found(domain.ProductRecord{
		Barcode:  barcode,
		Brand:    domain.FirstToken(resp.Brand),
		Title:    domain.CleanTitle(title),
		Category: strings.ToLower(domain.FirstToken(resp.Category)),
		Quantity: quantity,
		Source:   domain.SourceUPCDatabase,
	})
}

// firstNonEmpty returns the first candidate with non-blank text
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}
