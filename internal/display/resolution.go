package display

import (
	"fmt"
	"sort"
)

// Resolution describes a width×height display mode and the refresh
// frequencies it supports.
//
// Identity is partial-key: only Width and Height participate in
// DimensionsEqual, Key and Compare. Two resolutions with different bit
// depths or frequency sets are the same resolution when their dimensions
// match.
type Resolution struct {
	Width      int
	Height     int
	BitsPerPel int

	// frequencies is kept unique and sorted descending.
	frequencies []int
}

// ResolutionKey is the comparable identity of a Resolution.
type ResolutionKey struct {
	Width  int
	Height int
}

// NewResolution creates a resolution with an empty frequency set.
func NewResolution(width, height, bitsPerPel int) Resolution {
	return Resolution{
		Width:      width,
		Height:     height,
		BitsPerPel: bitsPerPel,
	}
}

// Key returns the width/height identity usable as a map key.
func (r Resolution) Key() ResolutionKey {
	return ResolutionKey{Width: r.Width, Height: r.Height}
}

// DimensionsEqual reports whether r and other have the same width and height.
// Bit depth and frequencies are ignored.
func (r Resolution) DimensionsEqual(other Resolution) bool {
	return r.Width == other.Width && r.Height == other.Height
}

// Compare orders resolutions widest first, then tallest first. It returns a
// negative value when r sorts before other.
func (r Resolution) Compare(other Resolution) int {
	if r.Width != other.Width {
		if r.Width > other.Width {
			return -1
		}
		return 1
	}
	if r.Height != other.Height {
		if r.Height > other.Height {
			return -1
		}
		return 1
	}
	return 0
}

// AddFrequency records a supported refresh frequency. Duplicates are ignored.
// It reports whether the frequency was new.
func (r *Resolution) AddFrequency(hz int) bool {
	i := sort.Search(len(r.frequencies), func(i int) bool {
		return r.frequencies[i] <= hz
	})
	if i < len(r.frequencies) && r.frequencies[i] == hz {
		return false
	}
	r.frequencies = append(r.frequencies, 0)
	copy(r.frequencies[i+1:], r.frequencies[i:])
	r.frequencies[i] = hz
	return true
}

// HasFrequency reports whether hz is in the frequency set.
func (r Resolution) HasFrequency(hz int) bool {
	for _, f := range r.frequencies {
		if f == hz {
			return true
		}
	}
	return false
}

// Frequencies returns a copy of the supported frequencies, highest first.
func (r Resolution) Frequencies() []int {
	out := make([]int, len(r.frequencies))
	copy(out, r.frequencies)
	return out
}

func (r Resolution) String() string {
	return fmt.Sprintf("%d x %d", r.Width, r.Height)
}

// SortResolutions sorts resolutions in natural order (widest, then tallest).
func SortResolutions(resolutions []Resolution) {
	sort.SliceStable(resolutions, func(i, j int) bool {
		return resolutions[i].Compare(resolutions[j]) < 0
	})
}
