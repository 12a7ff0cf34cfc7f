package plate

import (
	"errors"
	"sort"
	"strings"

	"gate-access-service/internal/domain/access"
)

// ErrEmptyReading marks an OCR reading that is empty or too short after
// canonicalization. It is a normal skip condition, not a failure.
var ErrEmptyReading = errors.New("empty reading")

// DefaultMinLength is the shortest plate string accepted as an actionable reading.
const DefaultMinLength = 5

// Normalize turns a region's OCR fragments into a canonical plate string:
// fragments sorted ascending by horizontal anchor (stable on ties),
// space-joined, uppercased, then stripped to A-Z0-9. Returns ErrEmptyReading
// when the result is shorter than minLength.
func Normalize(fragments []access.OCRFragment, minLength int) (string, error) {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	sorted := make([]access.OCRFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	texts := make([]string, 0, len(sorted))
	for _, f := range sorted {
		texts = append(texts, f.Text)
	}

	canonical := Canonical(strings.Join(texts, " "))
	if len(canonical) < minLength {
		return "", ErrEmptyReading
	}
	return canonical, nil
}

// Canonical uppercases s and strips every character outside A-Z0-9.
// Idempotent: Canonical(Canonical(s)) == Canonical(s).
func Canonical(s string) string {
	upper := strings.ToUpper(s)
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
