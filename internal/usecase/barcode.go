package usecase

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/barcodelens/backend/internal/domain"
)

// maxBarcodeLength guards provider URLs and cache keys against junk input
const maxBarcodeLength = 64

// NormalizeBarcode trims surrounding whitespace and rejects values that cannot
// be used as a lookup key. Leading zeros and non-numeric codes are kept as-is.
func NormalizeBarcode(raw string) (string, error) {
	barcode := strings.TrimSpace(raw)
	if barcode == "" {
		return "", fmt.Errorf("%w: barcode is required", domain.ErrInvalidBarcode)
	}
	if len(barcode) > maxBarcodeLength {
		return "", fmt.Errorf("%w: longer than %d characters", domain.ErrInvalidBarcode, maxBarcodeLength)
	}
	for _, r := range barcode {
		// Path and query separators would change the provider URL
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(`/\?#`, r) {
			return "", fmt.Errorf("%w: unexpected character %q", domain.ErrInvalidBarcode, r)
		}
	}
	return barcode, nil
}
