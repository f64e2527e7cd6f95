package display

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// MinFrameLimit is the lowest non-zero frame limit ever offered.
const MinFrameLimit = 20

// FrameLimit is one selectable frame-rate cap. Index 0 with Limit 0 means
// the cap is disabled.
type FrameLimit struct {
	Index int `json:"index" yaml:"index"`
	Limit int `json:"limit" yaml:"limit"`
}

// Disabled reports whether this is the uncapped entry.
func (f FrameLimit) Disabled() bool {
	return f.Limit == 0
}

func (f FrameLimit) String() string {
	if f.Disabled() {
		return "Disabled"
	}
	return fmt.Sprintf("%d FPS", f.Limit)
}

// Divider pairs a divisor with the down-scaled resolution it produces.
type Divider struct {
	Divisor    int
	Resolution Resolution
}

func (d Divider) String() string {
	return fmt.Sprintf("1/%d (%dx%d)", d.Divisor, d.Resolution.Width, d.Resolution.Height)
}

// RoundToEven rounds odd values up by one and returns even values unchanged.
func RoundToEven(n int) int {
	if n%2 == 0 {
		return n
	}
	return n + 1
}

// deriveFrameLimits builds the frame-limit menu for an already normalized
// frequency. The first entry is always the disabled sentinel.
func deriveFrameLimits(freq int) []FrameLimit {
	limits := []FrameLimit{{Index: 0, Limit: 0}}

	set := mapset.NewThreadUnsafeSet[int]()
	lowest := 0
	for divider := 1; freq > 0; divider++ {
		if freq%divider != 0 {
			continue
		}
		q := freq / divider
		if q < MinFrameLimit {
			break
		}
		set.Add(q)
		lowest = q
	}

	if lowest > 0 {
		// Fractions of the refresh rate that integer division misses,
		// e.g. 40 on a 60 Hz panel.
		options := freq / lowest
		for k := 1; k < options; k++ {
			set.Add(lowest * k)
		}
	}

	values := set.ToSlice()
	sort.Sort(sort.Reverse(sort.IntSlice(values)))
	for i, v := range values {
		limits = append(limits, FrameLimit{Index: i + 1, Limit: v})
	}
	return limits
}

// Closest picks the entry of limits that best approximates fps. An exact
// match wins; otherwise the smallest absolute difference wins and ties go
// to the higher limit.
func Closest(limits []FrameLimit, fps int) (FrameLimit, bool) {
	if len(limits) == 0 {
		return FrameLimit{}, false
	}
	for _, l := range limits {
		if l.Limit == fps {
			return l, true
		}
	}

	best := limits[0]
	bestDiff := absInt(fps - best.Limit)
	for _, l := range limits[1:] {
		diff := absInt(fps - l.Limit)
		if diff < bestDiff || (diff == bestDiff && l.Limit > best.Limit) {
			best = l
			bestDiff = diff
		}
	}
	return best, true
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
