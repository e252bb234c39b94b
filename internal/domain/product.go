package domain

import "strings"

// Source names reported on resolved products
const (
	SourceCache         = "Cache"
	SourceOpenFoodFacts = "OpenFoodFacts"
	SourceUPCDatabase   = "UPCDatabase"
	SourceManual        = "Manual"
)

// DefaultCategory is applied to manually added products without a category
const DefaultCategory = "other"

// ProductRecord is the canonical product description keyed by barcode
type ProductRecord struct {
	Barcode  string `json:"barcode"`
	Brand    string `json:"brand"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Quantity string `json:"quantity"`
	Source   string `json:"source,omitempty"` // "Cache", "OpenFoodFacts", "UPCDatabase" or "Manual"
}

// OutcomeStatus enumerates the three possible results of a lookup
type OutcomeStatus int

const (
	OutcomeNotFound OutcomeStatus = iota
	OutcomeFound
	OutcomeError
)

// String returns the lowercase name of the status
func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeFound:
		return "found"
	case OutcomeError:
		return "error"
	default:
		return "not_found"
	}
}

// Outcome is the result of a single cache or provider lookup.
// Product is set only for OutcomeFound, Err only for OutcomeError.
type Outcome struct {
	Status  OutcomeStatus
	Product *ProductRecord
	Err     error
}

// Found wraps a product in a successful outcome. A record without a
// usable title is reported as NotFound.
func Found(product ProductRecord) Outcome {
	if strings.TrimSpace(product.Title) == "" {
		return NotFound()
	}
	return Outcome{Status: OutcomeFound, Product: &product}
}

// NotFound reports that the source does not know the barcode
func NotFound() Outcome {
	return Outcome{Status: OutcomeNotFound}
}

// Failed reports a terminal lookup error
func Failed(err error) Outcome {
	return Outcome{Status: OutcomeError, Err: err}
}

// IsFound reports whether the outcome carries a product
func (o Outcome) IsFound() bool { return o.Status == OutcomeFound && o.Product != nil }

// IsError reports whether the outcome is terminal
func (o Outcome) IsError() bool { return o.Status == OutcomeError }

// FirstToken returns the first comma-separated token of a multi-valued field, trimmed
func FirstToken(value string) string {
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}

// CleanTitle strips commas from a product name
func CleanTitle(value string) string {
	return strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
}
