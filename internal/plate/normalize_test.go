package plate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gate-access-service/internal/domain/access"
)

func TestNormalize_OrdersFragmentsByPosition(t *testing.T) {
	fragments := []access.OCRFragment{
		{Text: "KA", X: 0},
		{Text: "01", X: 1},
		{Text: "AB", X: 2},
		{Text: "1234", X: 3},
	}

	got, err := Normalize(fragments, DefaultMinLength)
	require.NoError(t, err)
	assert.Equal(t, "KA01AB1234", got)
}

func TestNormalize_SortsOutOfOrderFragments(t *testing.T) {
	fragments := []access.OCRFragment{
		{Text: "1234", X: 3},
		{Text: "KA", X: 0},
		{Text: "AB", X: 2},
		{Text: "01", X: 1},
	}

	got, err := Normalize(fragments, DefaultMinLength)
	require.NoError(t, err)
	assert.Equal(t, "KA01AB1234", got)
}

func TestNormalize_StableOnEqualAnchors(t *testing.T) {
	fragments := []access.OCRFragment{
		{Text: "AB", X: 1},
		{Text: "12", X: 1},
		{Text: "CD", X: 1},
	}

	got, err := Normalize(fragments, DefaultMinLength)
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", got)
}

func TestNormalize_StripsNoiseAndUppercases(t *testing.T) {
	fragments := []access.OCRFragment{
		{Text: " ka-01 ", X: 0},
		{Text: "ab·12*34", X: 1},
	}

	got, err := Normalize(fragments, DefaultMinLength)
	require.NoError(t, err)
	assert.Equal(t, "KA01AB1234", got)
}

func TestNormalize_RejectsShortReading(t *testing.T) {
	cases := []struct {
		name      string
		fragments []access.OCRFragment
	}{
		{"empty", nil},
		{"whitespace only", []access.OCRFragment{{Text: "  ", X: 0}}},
		{"symbols only", []access.OCRFragment{{Text: "--**", X: 0}}},
		{"four chars", []access.OCRFragment{{Text: "AB12", X: 0}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.fragments, DefaultMinLength)
			assert.True(t, errors.Is(err, ErrEmptyReading))
		})
	}
}

func TestNormalize_ExactMinLengthAccepted(t *testing.T) {
	got, err := Normalize([]access.OCRFragment{{Text: "AB123", X: 0}}, 5)
	require.NoError(t, err)
	assert.Equal(t, "AB123", got)
}

func TestCanonical_Idempotent(t *testing.T) {
	inputs := []string{"ka 01 ab 1234", "KA01AB1234", "x-y_z 99", "", "!!!"}
	for _, in := range inputs {
		once := Canonical(in)
		assert.Equal(t, once, Canonical(once), "input %q", in)
	}
}
