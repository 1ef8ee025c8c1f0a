package analysis

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"gosdt/domain/sdt"
	"gosdt/internal"
	"gosdt/internal/errors"
)

// Descriptives summarises one statistic across blocks. Only finite values are counted.
type Descriptives struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// BlockStats is the per-block view of a summary
type BlockStats struct {
	Index          int        `json:"index"`
	Counts         sdt.Counts `json:"counts"`
	HitRate        float64    `json:"hit_rate"`
	FalseAlarmRate float64    `json:"false_alarm_rate"`
	DPrime         float64    `json:"d_prime"`
	Criterion      float64    `json:"criterion"`
}

// Summary pools a set of blocks and describes how d′ and c vary between them
type Summary struct {
	Blocks          []BlockStats `json:"blocks"`
	Pooled          sdt.Record   `json:"-"`
	DPrime          Descriptives `json:"d_prime"`
	Criterion       Descriptives `json:"criterion"`
	NonFiniteBlocks int          `json:"non_finite_blocks"`
}

// Summarizer derives block records on a bounded number of goroutines
type Summarizer struct {
	workers int
	logger  *internal.Logger
}

// NewSummarizer creates a summarizer; workers below 1 are treated as 1
func NewSummarizer(workers int, logger *internal.Logger) *Summarizer {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Summarizer{workers: workers, logger: logger}
}

// Summarize validates every block, pools them and computes descriptives.
// The first invalid block aborts the summary and is named in the error.
func (s *Summarizer) Summarize(ctx context.Context, blocks []sdt.Counts) (*Summary, error) {
	if len(blocks) == 0 {
		return nil, errors.InvalidInput("at least one block is required")
	}

	records := make([]sdt.Record, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, counts := range blocks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := sdt.FromCounts(counts)
			if err != nil {
				return errors.Wrapf(err, "block %d", i)
			}
			records[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pooled, err := sdt.Pool(records...)
	if err != nil {
		return nil, errors.Wrap(err, "pooled blocks")
	}

	summary := &Summary{
		Blocks: make([]BlockStats, len(records)),
		Pooled: pooled,
	}
	dPrimes := make([]float64, 0, len(records))
	criteria := make([]float64, 0, len(records))
	for i, r := range records {
		summary.Blocks[i] = BlockStats{
			Index:          i,
			Counts:         r.Counts(),
			HitRate:        r.HitRate(),
			FalseAlarmRate: r.FalseAlarmRate(),
			DPrime:         r.DPrime(),
			Criterion:      r.Criterion(),
		}
		if !isFinite(r.DPrime()) || !isFinite(r.Criterion()) {
			summary.NonFiniteBlocks++
			continue
		}
		dPrimes = append(dPrimes, r.DPrime())
		criteria = append(criteria, r.Criterion())
	}

	summary.DPrime = describe(dPrimes)
	summary.Criterion = describe(criteria)

	s.logger.Debug("summarized %d blocks (%d non-finite), pooled d'=%.4f c=%.4f",
		len(records), summary.NonFiniteBlocks, pooled.DPrime(), pooled.Criterion())

	return summary, nil
}

func describe(values []float64) Descriptives {
	if len(values) == 0 {
		return Descriptives{}
	}
	data := stats.Float64Data(values)

	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	stdDev, _ := stats.StandardDeviation(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)

	return Descriptives{
		N:      len(values),
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
