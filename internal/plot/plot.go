// Package plot turns signal detection records into plottable series.
// It only reads a record's public statistics and draws nothing itself.
package plot

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"gosdt/domain/sdt"
)

// MaxDensityPoints bounds the size of a density grid
const MaxDensityPoints = 10001

// ErrUnplottable is returned when a record's statistics are not finite.
var ErrUnplottable = errors.New("record cannot be plotted")

// Point is an (x, y) pair
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ROCPlot holds the operating point of a record in ROC space and the chance line
type ROCPlot struct {
	Point    Point    `json:"point"`
	Diagonal [2]Point `json:"diagonal"`
}

// ROC places the record at (false alarm rate, hit rate).
func ROC(r sdt.Record) ROCPlot {
	return ROCPlot{
		Point:    Point{X: r.FalseAlarmRate(), Y: r.HitRate()},
		Diagonal: [2]Point{{X: 0, Y: 0}, {X: 1, Y: 1}},
	}
}

// DensityPlot holds the noise and signal distributions of an equal-variance model
type DensityPlot struct {
	X         []float64 `json:"x"`
	Noise     []float64 `json:"noise"`
	Signal    []float64 `json:"signal"`
	DPrime    float64   `json:"d_prime"`
	Criterion float64   `json:"criterion"`
	// Threshold is where the decision criterion sits on the x axis: d′/2 + c
	Threshold float64 `json:"threshold"`
}

// Density samples N(0,1) and N(d′,1) on points evenly spaced x values covering
// span standard deviations beyond both means.
func Density(r sdt.Record, points int, span float64) (*DensityPlot, error) {
	if points < 2 || points > MaxDensityPoints {
		return nil, fmt.Errorf("density needs between 2 and %d points, got %d", MaxDensityPoints, points)
	}
	if !(span > 0) || math.IsInf(span, 0) {
		return nil, fmt.Errorf("density span must be a positive number, got %v", span)
	}

	dPrime, criterion := r.DPrime(), r.Criterion()
	if math.IsNaN(dPrime) || math.IsInf(dPrime, 0) || math.IsNaN(criterion) || math.IsInf(criterion, 0) {
		return nil, fmt.Errorf("%w: d'=%v c=%v", ErrUnplottable, dPrime, criterion)
	}

	lo := math.Min(0, dPrime) - span
	hi := math.Max(0, dPrime) + span
	xs := floats.Span(make([]float64, points), lo, hi)

	noise := distuv.Normal{Mu: 0, Sigma: 1}
	signal := distuv.Normal{Mu: dPrime, Sigma: 1}

	plot := &DensityPlot{
		X:         xs,
		Noise:     make([]float64, points),
		Signal:    make([]float64, points),
		DPrime:    dPrime,
		Criterion: criterion,
		Threshold: dPrime/2 + criterion,
	}
	for i, x := range xs {
		plot.Noise[i] = noise.Prob(x)
		plot.Signal[i] = signal.Prob(x)
	}
	return plot, nil
}
