// Package views holds the terminal view adapters of the dashboard: the map,
// the attribute histogram and the daily timeline, plus the pure scale,
// tick and legend helpers they share.
//
// Every adapter's Render is idempotent and recomputes its axes from the
// visible set it is given, never from the full dataset.
package views

import (
	"math"
	"sort"
)

// Extent returns the min and max of values. ok is false for an empty input.
func Extent(values []float64) (lo, hi float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, true
}

// LinearScale maps a continuous domain onto a continuous range.
type LinearScale struct {
	D0, D1 float64
	R0, R1 float64
	Clamp  bool
}

// NewLinear creates a clamped linear scale.
func NewLinear(d0, d1, r0, r1 float64) LinearScale {
	return LinearScale{D0: d0, D1: d1, R0: r0, R1: r1, Clamp: true}
}

// Scale maps v. A degenerate domain maps everything to the middle of the range.
func (s LinearScale) Scale(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	t := (v - s.D0) / (s.D1 - s.D0)
	if s.Clamp {
		t = math.Max(0, math.Min(1, t))
	}
	return s.R0 + t*(s.R1-s.R0)
}

// Invert maps a range value back to the domain.
func (s LinearScale) Invert(r float64) float64 {
	if s.R1 == s.R0 {
		return (s.D0 + s.D1) / 2
	}
	t := (r - s.R0) / (s.R1 - s.R0)
	if s.Clamp {
		t = math.Max(0, math.Min(1, t))
	}
	return s.D0 + t*(s.D1-s.D0)
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// tickSpec picks a 1-2-5 step for roughly count ticks over [start, stop].
// A negative inc means the step is 1/-inc, which keeps small steps exact.
func tickSpec(start, stop float64, count int) (i1, i2, inc float64) {
	step := (stop - start) / math.Max(0, float64(count))
	power := math.Floor(math.Log10(step))
	err := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case err >= e10:
		factor = 10
	case err >= e5:
		factor = 5
	case err >= e2:
		factor = 2
	}

	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = math.Round(start / inc)
		i2 = math.Round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}
	if i2 < i1 && count == 1 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

// NiceTicks returns human-friendly tick values (multiples of 1, 2 or 5
// times a power of ten) inside [lo, hi], aiming for about count ticks.
func NiceTicks(lo, hi float64, count int) []float64 {
	if count <= 0 || math.IsNaN(lo) || math.IsNaN(hi) {
		return nil
	}
	if lo == hi {
		return []float64{lo}
	}
	reverse := hi < lo
	if reverse {
		lo, hi = hi, lo
	}

	i1, i2, inc := tickSpec(lo, hi, count)
	if !(i2 >= i1) || math.IsInf(inc, 0) || inc == 0 {
		return nil
	}
	n := int(i2-i1) + 1
	ticks := make([]float64, n)
	for i := range ticks {
		if inc < 0 {
			ticks[i] = (i1 + float64(i)) / -inc
		} else {
			ticks[i] = (i1 + float64(i)) * inc
		}
	}
	if reverse {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			ticks[i], ticks[j] = ticks[j], ticks[i]
		}
	}
	return ticks
}

func tickIncrement(lo, hi float64, count int) float64 {
	_, _, inc := tickSpec(lo, hi, count)
	return inc
}

// Nice extends [lo, hi] outward to round tick boundaries.
func Nice(lo, hi float64, count int) (float64, float64) {
	if lo == hi || count <= 0 {
		return lo, hi
	}
	reverse := hi < lo
	if reverse {
		lo, hi = hi, lo
	}

	var prestep float64
	for iter := 0; iter < 10; iter++ {
		step := tickIncrement(lo, hi, count)
		if step == prestep || step == 0 || math.IsNaN(step) {
			break
		}
		if step > 0 {
			lo = math.Floor(lo/step) * step
			hi = math.Ceil(hi/step) * step
		} else {
			lo = math.Ceil(lo*step) / step
			hi = math.Floor(hi*step) / step
		}
		prestep = step
	}

	if reverse {
		return hi, lo
	}
	return lo, hi
}

// Quantile returns the p-quantile of values with linear interpolation.
// values need not be sorted. ok is false for an empty input.
func Quantile(values []float64, p float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if p <= 0 || len(sorted) == 1 {
		return sorted[0], true
	}
	if p >= 1 {
		return sorted[len(sorted)-1], true
	}
	i := float64(len(sorted)-1) * p
	i0 := int(math.Floor(i))
	v0, v1 := sorted[i0], sorted[i0+1]
	return v0 + (v1-v0)*(i-float64(i0)), true
}
