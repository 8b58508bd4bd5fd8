// Package oraclerun assigns incremental ids to oracle reports without keeping
// a counter: the run count is estimated from the report time and the exact
// id is found by looking up the store around the estimate.
package oraclerun

import (
	"context"
	"fmt"
	"strconv"
)

const (
	// DefaultRunsBuffer over-estimates the run count so lookups mostly walk back.
	DefaultRunsBuffer = 50
	idWidth           = 12
)

// Lookup reports whether an oracle report with the given id exists.
type Lookup interface {
	OracleReportExists(ctx context.Context, id string) (bool, error)
}

type Tracker struct {
	firstReport uint64
	period      uint64
	buffer      uint64
}

func NewTracker(firstReport, period, buffer uint64) (*Tracker, error) {
	if period == 0 {
		return nil, fmt.Errorf("oracle report period must be positive")
	}
	return &Tracker{firstReport: firstReport, period: period, buffer: buffer}, nil
}

// GuessRunsTotal estimates how many reports happened up to ts, plus the buffer.
func (t *Tracker) GuessRunsTotal(ts uint64) uint64 {
	if ts < t.firstReport {
		return t.buffer
	}
	return (ts-t.firstReport)/t.period + t.buffer
}

// FormatID renders a run number as a sortable id.
func FormatID(n uint64) string {
	return fmt.Sprintf("%0*d", idWidth, n)
}

func ParseID(id string) (uint64, error) {
	return strconv.ParseUint(id, 10, 64)
}

// PreviousID returns the id stored right before id, false for the first one.
func PreviousID(id string) (string, bool) {
	n, err := ParseID(id)
	if err != nil || n == 0 {
		return "", false
	}
	return FormatID(n - 1), true
}

// NextID returns the id the next report should be stored under.
func (t *Tracker) NextID(ctx context.Context, lookup Lookup, ts uint64) (string, error) {
	last, found, err := t.last(ctx, lookup, t.GuessRunsTotal(ts))
	if err != nil {
		return "", err
	}
	if !found {
		return FormatID(0), nil
	}
	return FormatID(last + 1), nil
}

// last scans forward while ids exist at or after the estimate, backward otherwise.
func (t *Tracker) last(ctx context.Context, lookup Lookup, estimate uint64) (uint64, bool, error) {
	exists, err := lookup.OracleReportExists(ctx, FormatID(estimate))
	if err != nil {
		return 0, false, err
	}

	if exists {
		i := estimate
		for {
			next, err := lookup.OracleReportExists(ctx, FormatID(i+1))
			if err != nil {
				return 0, false, err
			}
			if !next {
				return i, true, nil
			}
			i++
		}
	}

	for i := estimate; i > 0; i-- {
		exists, err := lookup.OracleReportExists(ctx, FormatID(i-1))
		if err != nil {
			return 0, false, err
		}
		if exists {
			return i - 1, true, nil
		}
	}
	return 0, false, nil
}
