package api

import (
	"encoding/json"
	"math"
	"time"

	"gosdt/domain/block"
	"gosdt/domain/sdt"
	"gosdt/internal/analysis"
)

// Float is a float64 that survives JSON encoding when it is infinite.
// Finite values are plain numbers; ±Inf and NaN become the strings "+Inf", "-Inf", "NaN".
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	}
	return json.Marshal(v)
}

// StatsResponse is the JSON view of a record
type StatsResponse struct {
	Counts         sdt.Counts `json:"counts"`
	HitRate        Float      `json:"hit_rate"`
	FalseAlarmRate Float      `json:"false_alarm_rate"`
	ZHit           Float      `json:"z_hit"`
	ZFalseAlarm    Float      `json:"z_false_alarm"`
	DPrime         Float      `json:"d_prime"`
	Criterion      Float      `json:"criterion"`
}

// NewStatsResponse builds the JSON view of r
func NewStatsResponse(r sdt.Record) StatsResponse {
	return StatsResponse{
		Counts:         r.Counts(),
		HitRate:        Float(r.HitRate()),
		FalseAlarmRate: Float(r.FalseAlarmRate()),
		ZHit:           Float(r.ZHit()),
		ZFalseAlarm:    Float(r.ZFalseAlarm()),
		DPrime:         Float(r.DPrime()),
		Criterion:      Float(r.Criterion()),
	}
}

// BlocksRequest carries several blocks of counts
type BlocksRequest struct {
	Blocks []sdt.Counts `json:"blocks"`
}

// ScaleRequest carries one block and a replication factor
type ScaleRequest struct {
	Counts sdt.Counts `json:"counts"`
	Factor *float64   `json:"factor"`
}

// CreateBlockRequest stores a labelled block
type CreateBlockRequest struct {
	Label  string     `json:"label"`
	Counts sdt.Counts `json:"counts"`
}

// BlockResponse is a stored block with its statistics
type BlockResponse struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	CreatedAt time.Time     `json:"created_at"`
	Stats     StatsResponse `json:"stats"`
}

func newBlockResponse(b *block.Block) (BlockResponse, error) {
	r, err := b.Record()
	if err != nil {
		return BlockResponse{}, err
	}
	return BlockResponse{
		ID:        b.ID.String(),
		Label:     b.Label,
		CreatedAt: b.CreatedAt,
		Stats:     NewStatsResponse(r),
	}, nil
}

// BlockStatsResponse is one block inside a summary
type BlockStatsResponse struct {
	Index          int        `json:"index"`
	Counts         sdt.Counts `json:"counts"`
	HitRate        Float      `json:"hit_rate"`
	FalseAlarmRate Float      `json:"false_alarm_rate"`
	DPrime         Float      `json:"d_prime"`
	Criterion      Float      `json:"criterion"`
}

// SummaryResponse is the JSON view of an analysis summary
type SummaryResponse struct {
	Pooled          StatsResponse         `json:"pooled"`
	Blocks          []BlockStatsResponse  `json:"blocks"`
	DPrime          analysis.Descriptives `json:"d_prime"`
	Criterion       analysis.Descriptives `json:"criterion"`
	NonFiniteBlocks int                   `json:"non_finite_blocks"`
}

// NewSummaryResponse builds the JSON view of s
func NewSummaryResponse(s *analysis.Summary) SummaryResponse {
	blocks := make([]BlockStatsResponse, len(s.Blocks))
	for i, b := range s.Blocks {
		blocks[i] = BlockStatsResponse{
			Index:          b.Index,
			Counts:         b.Counts,
			HitRate:        Float(b.HitRate),
			FalseAlarmRate: Float(b.FalseAlarmRate),
			DPrime:         Float(b.DPrime),
			Criterion:      Float(b.Criterion),
		}
	}
	return SummaryResponse{
		Pooled:          NewStatsResponse(s.Pooled),
		Blocks:          blocks,
		DPrime:          s.DPrime,
		Criterion:       s.Criterion,
		NonFiniteBlocks: s.NonFiniteBlocks,
	}
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
