package visualhash

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, w, h int, c color.Gray) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHash_MalformedInput(t *testing.T) {
	_, ok := Hash([]byte("not an image"), AverageHash)
	require.False(t, ok)
}

func TestHash_DeterministicForSameBytes(t *testing.T) {
	data := solidPNG(t, 64, 64, color.Gray{Y: 120})
	h1, ok1 := Hash(data, AverageHash)
	h2, ok2 := Hash(data, AverageHash)
	require.True(t, ok1)
	require.True(t, ok2)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 16)
}

func TestHammingDistance_IdenticalIsZero(t *testing.T) {
	data := solidPNG(t, 32, 32, color.Gray{Y: 200})
	h, ok := Hash(data, AverageHash)
	require.True(t, ok)
	require.Equal(t, 0, HammingDistance(h, h))
}

func TestSimilar_ThresholdBoundary(t *testing.T) {
	require.True(t, Similar("0000000000000000", "0000000000000001", 1))
	require.False(t, Similar("0000000000000000", "0000000000000003", 1))
}

func TestGroupHashes_NonTransitive(t *testing.T) {
	// a~b (distance 1), b~c (distance 1), but a and c are distance 2 apart
	// (over threshold 1): with first-seen-wins bucketing, c should NOT
	// transitively join a's group once b has already merged into it.
	a := "0000000000000000"
	b := "0000000000000001"
	c := "0000000000000003"

	groups := GroupHashes([]string{a, b, c}, 1, 5)
	require.Len(t, groups, 2)

	var sizes []int
	for _, g := range groups {
		sizes = append(sizes, len(g))
	}
	require.ElementsMatch(t, []int{2, 1}, sizes)
}

func TestGroupHashes_RespectsMaxGroupSize(t *testing.T) {
	hashes := []string{
		"0000000000000000",
		"0000000000000001",
		"0000000000000002",
	}
	groups := GroupHashes(hashes, 8, 2)
	require.Len(t, groups, 2)
}
