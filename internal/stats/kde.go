package stats

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/paveg/tablescope/internal/errors"
	"github.com/paveg/tablescope/internal/validation"
	"gonum.org/v1/gonum/stat"
)

// GridSize is the number of points a density curve is evaluated at.
const GridSize = 200

// Bandwidth selector names.
const (
	SelectorScott     = "scott"
	SelectorSilverman = "silverman"
)

// Bandwidth is either a fixed smoothing width or a named rule of thumb
// resolved against the sample.
type Bandwidth struct {
	value    float64
	selector string
}

// FixedBandwidth returns a bandwidth used as given.
func FixedBandwidth(h float64) Bandwidth {
	return Bandwidth{value: h}
}

// Scott returns the 1.06 * sigma * n^(-1/5) rule.
func Scott() Bandwidth {
	return Bandwidth{selector: SelectorScott}
}

// Silverman returns the 0.9 * sigma * n^(-1/5) rule.
func Silverman() Bandwidth {
	return Bandwidth{selector: SelectorSilverman}
}

// ParseBandwidth accepts a number, "scott" or "silverman". The empty string
// means silverman. Any other selector is rejected.
func ParseBandwidth(s string) (Bandwidth, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", SelectorSilverman:
		return Silverman(), nil
	case SelectorScott:
		return Scott(), nil
	}
	h, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Bandwidth{}, errors.NewParamError("KDE",
			fmt.Sprintf("bandwidth must be a number, 'scott' or 'silverman', got %q", s))
	}
	return FixedBandwidth(h), nil
}

// IsSelector reports whether b is resolved from the sample.
func (b Bandwidth) IsSelector() bool {
	return b.selector != ""
}

func (b Bandwidth) String() string {
	if b.selector != "" {
		return b.selector
	}
	return strconv.FormatFloat(b.value, 'g', -1, 64)
}

// Resolve returns the numeric bandwidth for values. Selector rules use the
// population standard deviation of the sample.
func (b Bandwidth) Resolve(values []float64) (float64, error) {
	var factor float64
	switch b.selector {
	case "":
		return b.value, nil
	case SelectorScott:
		factor = 1.06
	case SelectorSilverman:
		factor = 0.9
	default:
		return 0, errors.NewParamError("KDE", fmt.Sprintf("unknown bandwidth selector %q", b.selector))
	}
	if len(values) == 0 {
		return math.NaN(), nil
	}
	_, sigma := stat.PopMeanStdDev(values, nil)
	return factor * sigma * math.Pow(float64(len(values)), -0.2), nil
}

// KDEOptions controls the scale of a density curve.
type KDEOptions struct {
	// AsProbability returns the raw density. When false the curve is scaled
	// so its peak equals the tallest histogram bin over the same range.
	AsProbability bool
	// BinCount caps the number of histogram bins used for that scaling.
	BinCount int
}

// DefaultKDEOptions returns probability output with a 30 bin cap.
func DefaultKDEOptions() KDEOptions {
	return KDEOptions{AsProbability: true, BinCount: 30}
}

// KDEResult is a density curve sampled on an evenly spaced grid.
type KDEResult struct {
	X         []float64
	Y         []float64
	Bandwidth float64
}

// ComputeKDE estimates the density of values with a Gaussian kernel over
// GridSize points spanning [lo, hi] inclusive. NaN and infinite values are
// ignored.
//
// An empty sample, a bandwidth that does not resolve to a positive finite
// number, or hi < lo fail with an invalid input error rather than producing
// a NaN curve.
func ComputeKDE(values []float64, bw Bandwidth, lo, hi float64, opts KDEOptions) (*KDEResult, error) {
	const op = "KDE"

	sample := finite(values)
	slices.Sort(sample)

	h, err := bw.Resolve(sample)
	if err != nil {
		return nil, err
	}

	if err := validation.NewCompoundValidator(
		validation.NewNonEmptyValidator(len(sample), op),
		validation.NewRangeValidator(lo, hi, op),
		validation.NewPositiveValidator(h, "bandwidth", op, errors.KindInvalidInput),
	).Validate(); err != nil {
		return nil, err
	}
	if !opts.AsProbability && opts.BinCount <= 0 {
		return nil, errors.NewParamError(op, fmt.Sprintf("bin count must be positive, got %d", opts.BinCount))
	}

	x := grid(lo, hi, GridSize)
	y := make([]float64, len(x))

	norm := 1 / (h * math.Sqrt(2*math.Pi) * float64(len(sample)))
	for i, xi := range x {
		var sum float64
		for _, v := range sample {
			z := (xi - v) / h
			sum += math.Exp(-0.5 * z * z)
		}
		y[i] = sum * norm
	}

	if !opts.AsProbability {
		bins := min(int(math.Ceil(math.Sqrt(float64(len(sample))))), opts.BinCount)
		hist, err := Histogram(sample, lo, hi, bins)
		if err != nil {
			return nil, err
		}
		scaleToPeak(y, float64(hist.Max()))
	}

	return &KDEResult{X: x, Y: y, Bandwidth: h}, nil
}

// grid returns n evenly spaced points from lo to hi; the last point is hi
// exactly.
func grid(lo, hi float64, n int) []float64 {
	x := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range x {
		x[i] = lo + float64(i)*step
	}
	x[n-1] = hi
	return x
}

// scaleToPeak multiplies y so that its maximum equals peak. A flat zero
// curve is left unchanged.
func scaleToPeak(y []float64, peak float64) {
	top := slices.Max(y)
	if top == 0 {
		return
	}
	factor := peak / top
	for i := range y {
		y[i] *= factor
	}
}

// finite copies values without NaN or infinities.
func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
