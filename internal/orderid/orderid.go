// Package orderid generates human-readable order codes of the form
// NYMORGEN-YYYYMMDD-NNNNN, numbered per UTC calendar day.
package orderid

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Prefix starts every order code.
const Prefix = "NYMORGEN"

const (
	dayLayout   = "20060102"
	counterWide = 5
)

// ErrMalformed is returned by Parse for a string that is not an order code.
var ErrMalformed = errors.New("malformed order code")

// Sequence hands out per-day counters. Next must be an atomic
// increment-and-fetch: the first call for a day returns 1 and every later
// call returns a strictly larger value.
type Sequence interface {
	Next(ctx context.Context, day string) (int64, error)
}

// Generator builds order codes from a Sequence.
type Generator struct {
	seq Sequence
	now func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(seq Sequence) *Generator {
	return &Generator{seq: seq, now: time.Now}
}

// Next returns the next order code for the current UTC day.
func (g *Generator) Next(ctx context.Context) (string, error) {
	day := g.now().UTC().Format(dayLayout)
	n, err := g.seq.Next(ctx, day)
	if err != nil {
		return "", fmt.Errorf("next order sequence for %s: %w", day, err)
	}
	if n < 1 {
		return "", fmt.Errorf("order sequence for %s returned %d", day, n)
	}
	code := Format(day, n)
	if _, err := Parse(code); err != nil {
		return "", err
	}
	return code, nil
}

// Format renders a code. Counters past 99999 widen rather than wrap.
func Format(day string, n int64) string {
	return fmt.Sprintf("%s-%s-%0*d", Prefix, day, counterWide, n)
}

// Code is a parsed order code.
type Code struct {
	Day     time.Time
	Counter int64
}

// Parse splits a code into its date and counter.
func Parse(s string) (Code, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] != Prefix {
		return Code{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	day, err := time.Parse(dayLayout, parts[1])
	if err != nil || len(parts[1]) != len(dayLayout) {
		return Code{}, fmt.Errorf("%w: bad date in %q", ErrMalformed, s)
	}
	if len(parts[2]) < counterWide {
		return Code{}, fmt.Errorf("%w: short counter in %q", ErrMalformed, s)
	}
	n, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || n < 1 {
		return Code{}, fmt.Errorf("%w: bad counter in %q", ErrMalformed, s)
	}
	return Code{Day: day, Counter: n}, nil
}
