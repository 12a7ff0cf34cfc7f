package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gate-access-service/internal/domain/access"
)

func box(x1, y1, x2, y2 float64) access.Box {
	return access.Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func TestIoU(t *testing.T) {
	cases := []struct {
		name string
		a, b access.Box
		want float64
	}{
		{"identical", box(0, 0, 10, 10), box(0, 0, 10, 10), 1},
		{"disjoint", box(0, 0, 10, 10), box(20, 20, 30, 30), 0},
		{"touching edges", box(0, 0, 10, 10), box(10, 0, 20, 10), 0},
		{"half overlap", box(0, 0, 10, 10), box(5, 0, 15, 10), 50.0 / 150.0},
		{"degenerate", box(0, 0, 0, 0), box(0, 0, 10, 10), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, IoU(tc.a, tc.b), 1e-9)
		})
	}
}

func TestReduce_DropsLowConfidence(t *testing.T) {
	regions := []access.Region{
		{Box: box(0, 0, 10, 10), Confidence: 0.9},
		{Box: box(100, 100, 110, 110), Confidence: 0.1},
	}

	kept := Reduce(regions, DefaultConfidenceThreshold, DefaultIoUThreshold)
	require.Len(t, kept, 1)
	assert.Equal(t, 0.9, kept[0].Confidence)
}

func TestReduce_ThresholdIsInclusive(t *testing.T) {
	regions := []access.Region{{Box: box(0, 0, 10, 10), Confidence: 0.3}}
	assert.Len(t, Reduce(regions, 0.3, 0.5), 1)
}

func TestReduce_SuppressesOverlappingRegions(t *testing.T) {
	// Near-identical boxes: only the most confident survives.
	regions := []access.Region{
		{Box: box(0, 0, 10, 10), Confidence: 0.6},
		{Box: box(1, 0, 11, 10), Confidence: 0.95},
		{Box: box(0, 1, 10, 11), Confidence: 0.7},
	}

	kept := Reduce(regions, 0.3, 0.5)
	require.Len(t, kept, 1)
	assert.Equal(t, 0.95, kept[0].Confidence)
}

func TestReduce_KeepsDistinctRegions(t *testing.T) {
	regions := []access.Region{
		{Box: box(0, 0, 10, 10), Confidence: 0.9},
		{Box: box(50, 50, 60, 60), Confidence: 0.5},
	}

	kept := Reduce(regions, 0.3, 0.5)
	assert.Len(t, kept, 2)
}

func TestReduce_EmptyInput(t *testing.T) {
	assert.Empty(t, Reduce(nil, 0.3, 0.5))
}
