package domain

// Result values reported to callers
const (
	ResultSuccess = "success"
	ResultUnknown = "unknown"
	ResultError   = "error"
	ResultFailed  = "failed"
)

// Resolution is the structured answer to a barcode resolve request
type Resolution struct {
	Result   string `json:"result"` // "success", "unknown" or "error"
	Source   string `json:"source,omitempty"`
	Barcode  string `json:"barcode"`
	Brand    string `json:"brand,omitempty"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	Quantity string `json:"quantity,omitempty"`
	Error    string `json:"error,omitempty"`

	// Cause keeps the underlying error for callers that need to classify it
	Cause error `json:"-"`
}

// CacheResult is the answer to administrative cache operations
type CacheResult struct {
	Result string `json:"result"` // "success", "failed" or "error"
	Error  string `json:"error,omitempty"`

	Cause error `json:"-"`
}

// AddProductRequest is a manual cache population request
type AddProductRequest struct {
	Barcode  string `json:"barcode" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
	Quantity string `json:"quantity,omitempty"`
}

// ResolvedFrom builds a success resolution from a found product
func ResolvedFrom(product *ProductRecord) *Resolution {
	return &Resolution{
		Result:   ResultSuccess,
		Source:   product.Source,
		Barcode:  product.Barcode,
		Brand:    product.Brand,
		Title:    product.Title,
		Category: product.Category,
		Quantity: product.Quantity,
	}
}

// Unresolved builds the terminal "unknown" resolution
func Unresolved(barcode string) *Resolution {
	return &Resolution{Result: ResultUnknown, Barcode: barcode, Cause: ErrProductNotFound}
}

// ResolutionError builds an error resolution attributed to source
func ResolutionError(barcode, source string, err error) *Resolution {
	return &Resolution{
		Result:  ResultError,
		Source:  source,
		Barcode: barcode,
		Error:   err.Error(),
		Cause:   err,
	}
}
