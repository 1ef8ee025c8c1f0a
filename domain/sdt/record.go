// Package sdt computes Signal Detection Theory statistics from trial counts.
//
// A Record is built once from hits, misses, false alarms and correct rejections.
// Rates and z-scores are derived at construction and never change afterwards.
// Rates of exactly 0 or 1 produce infinite z-scores; those propagate into
// DPrime and Criterion instead of being reported as errors.
package sdt

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Counts holds the four raw trial counts of an observation block.
// Counts are reals so that scaled blocks keep fractional values.
type Counts struct {
	Hits              float64 `json:"hits"`
	Misses            float64 `json:"misses"`
	FalseAlarms       float64 `json:"false_alarms"`
	CorrectRejections float64 `json:"correct_rejections"`
}

// Record is an immutable signal detection summary of one block of trials.
// The zero value is not a valid record; use New.
type Record struct {
	counts         Counts
	hitRate        float64
	falseAlarmRate float64
	zHit           float64
	zFalseAlarm    float64
}

// New validates the counts and derives rates and z-scores.
func New(hits, misses, falseAlarms, correctRejections float64) (Record, error) {
	return FromCounts(Counts{
		Hits:              hits,
		Misses:            misses,
		FalseAlarms:       falseAlarms,
		CorrectRejections: correctRejections,
	})
}

// FromCounts is New for an already assembled Counts value.
func FromCounts(c Counts) (Record, error) {
	if err := c.Validate(); err != nil {
		return Record{}, err
	}

	signalTrials := c.Hits + c.Misses
	if signalTrials == 0 {
		return Record{}, newDegenerateRateError("hit rate", "hits", "misses")
	}
	noiseTrials := c.FalseAlarms + c.CorrectRejections
	if noiseTrials == 0 {
		return Record{}, newDegenerateRateError("false alarm rate", "false alarms", "correct rejections")
	}

	hitRate := rate(c.Hits, c.Misses)
	falseAlarmRate := rate(c.FalseAlarms, c.CorrectRejections)

	return Record{
		counts:         c,
		hitRate:        hitRate,
		falseAlarmRate: falseAlarmRate,
		zHit:           probit(hitRate),
		zFalseAlarm:    probit(falseAlarmRate),
	}, nil
}

// Validate checks that every count is a finite non-negative number.
// It does not check the rate denominators; FromCounts does that.
func (c Counts) Validate() error {
	fields := [...]struct {
		name  string
		value float64
	}{
		{"hits", c.Hits},
		{"misses", c.Misses},
		{"false alarms", c.FalseAlarms},
		{"correct rejections", c.CorrectRejections},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return newInvalidTrialCountError(f.name, f.value)
		}
	}
	return nil
}

// rate is part / (part + rest). Both are finite and non-negative with a positive sum;
// halving keeps the sum finite when it would overflow.
func rate(part, rest float64) float64 {
	if total := part + rest; !math.IsInf(total, 1) {
		return part / total
	}
	return (part / 2) / (part/2 + rest/2)
}

// probit is the inverse standard normal CDF. p is always within [0, 1] here,
// and the endpoints map to -Inf and +Inf.
func probit(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// Counts returns a copy of the raw counts.
func (r Record) Counts() Counts { return r.counts }

func (r Record) Hits() float64              { return r.counts.Hits }
func (r Record) Misses() float64            { return r.counts.Misses }
func (r Record) FalseAlarms() float64       { return r.counts.FalseAlarms }
func (r Record) CorrectRejections() float64 { return r.counts.CorrectRejections }

// HitRate is hits / (hits + misses).
func (r Record) HitRate() float64 { return r.hitRate }

// FalseAlarmRate is falseAlarms / (falseAlarms + correctRejections).
func (r Record) FalseAlarmRate() float64 { return r.falseAlarmRate }

// ZHit is the probit of the hit rate.
func (r Record) ZHit() float64 { return r.zHit }

// ZFalseAlarm is the probit of the false alarm rate.
func (r Record) ZFalseAlarm() float64 { return r.zFalseAlarm }

// DPrime returns the sensitivity index d′ = z(H) − z(FA).
func (r Record) DPrime() float64 {
	return r.zHit - r.zFalseAlarm
}

// Criterion returns the response bias c = −0.5 × (z(H) + z(FA)).
func (r Record) Criterion() float64 {
	return -0.5 * (r.zHit + r.zFalseAlarm)
}

// Add pools two blocks of trials. Rates are re-derived from the summed counts.
func (r Record) Add(other Record) (Record, error) {
	return FromCounts(r.counts.Add(other.counts))
}

// Scale replicates the block factor-fold. A negative factor fails with ErrInvalidTrialCount.
func (r Record) Scale(factor float64) (Record, error) {
	return FromCounts(r.counts.Scale(factor))
}

// Add returns the elementwise sum of two count sets.
func (c Counts) Add(other Counts) Counts {
	return Counts{
		Hits:              c.Hits + other.Hits,
		Misses:            c.Misses + other.Misses,
		FalseAlarms:       c.FalseAlarms + other.FalseAlarms,
		CorrectRejections: c.CorrectRejections + other.CorrectRejections,
	}
}

// Scale multiplies every count by factor.
func (c Counts) Scale(factor float64) Counts {
	return Counts{
		Hits:              c.Hits * factor,
		Misses:            c.Misses * factor,
		FalseAlarms:       c.FalseAlarms * factor,
		CorrectRejections: c.CorrectRejections * factor,
	}
}

// Pool folds any number of records into one with Add.
func Pool(records ...Record) (Record, error) {
	if len(records) == 0 {
		return Record{}, errNothingToPool
	}
	pooled := records[0]
	for _, rec := range records[1:] {
		var err error
		if pooled, err = pooled.Add(rec); err != nil {
			return Record{}, err
		}
	}
	return pooled, nil
}
