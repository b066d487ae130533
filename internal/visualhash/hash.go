// Package visualhash computes perceptual image hashes and exposes the
// Hamming-distance similarity predicate and non-transitive grouping
// primitive used for detection change-gating and presentation grouping.
package visualhash

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math/bits"

	"golang.org/x/image/draw"
)

type Algorithm int

const (
	// AverageHash (default): average-hash over an 8x8 grayscale grid.
	AverageHash Algorithm = iota
	DifferenceHash
	PerceptualHash
)

// Hash computes a 64-bit perceptual hash and returns it as a 16-hex-character
// string, or ("", false) on malformed input.
func Hash(data []byte, algo Algorithm) (string, bool) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", false
	}

	var bits64 uint64
	switch algo {
	case DifferenceHash:
		bits64 = differenceHash(img)
	default:
		// PerceptualHash is specified as selectable but not given a distinct
		// DCT algorithm by the source; average-hash serves both AverageHash
		// and PerceptualHash selections here, matching spec.md §4.2's note
		// that average-hash is the default across algorithms.
		bits64 = averageHash(img)
	}

	return fmt.Sprintf("%016s", hex.EncodeToString(uint64ToBytes(bits64))), true
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v & 0xff)
		v >>= 8
	}
	return b
}

func averageHash(img image.Image) uint64 {
	gray := toGrayGrid(img, 8, 8)
	var sum int
	for _, v := range gray {
		sum += int(v)
	}
	mean := sum / len(gray)

	var h uint64
	for i, v := range gray {
		if int(v) >= mean {
			h |= 1 << uint(i)
		}
	}
	return h
}

func differenceHash(img image.Image) uint64 {
	gray := toGrayGrid(img, 9, 8)
	var h uint64
	bit := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			left := gray[row*9+col]
			right := gray[row*9+col+1]
			if left > right {
				h |= 1 << uint(bit)
			}
			bit++
		}
	}
	return h
}

// toGrayGrid downscales img to w x h using bilinear scaling and returns
// flattened row-major grayscale samples.
func toGrayGrid(img image.Image, w, h int) []uint8 {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	out := make([]uint8, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out = append(out, dst.GrayAt(x, y).Y)
		}
	}
	return out
}

// HammingDistance returns the number of differing bits between two hash
// strings. Malformed hashes are treated as maximally distant.
func HammingDistance(a, b string) int {
	ba, errA := hex.DecodeString(a)
	bb, errB := hex.DecodeString(b)
	if errA != nil || errB != nil || len(ba) != len(bb) {
		return 64
	}
	dist := 0
	for i := range ba {
		dist += bits.OnesCount8(ba[i] ^ bb[i])
	}
	return dist
}

// Similar reports whether two hashes are within Hamming distance threshold.
func Similar(a, b string, threshold int) bool {
	return HammingDistance(a, b) <= threshold
}
