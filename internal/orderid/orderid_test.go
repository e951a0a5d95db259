package orderid

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySequence struct {
	mu   sync.Mutex
	days map[string]int64
	err  error
}

func (s *memorySequence) Next(_ context.Context, day string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.days == nil {
		s.days = map[string]int64{}
	}
	s.days[day]++
	return s.days[day], nil
}

func fixedGenerator(seq Sequence, at time.Time) *Generator {
	g := NewGenerator(seq)
	g.now = func() time.Time { return at }
	return g
}

func TestGenerator_FirstOfDay(t *testing.T) {
	g := fixedGenerator(&memorySequence{}, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	code, err := g.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NYMORGEN-20240301-00001", code)
}

func TestGenerator_StrictlyIncreasing(t *testing.T) {
	g := fixedGenerator(&memorySequence{}, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	var prev int64
	for i := 0; i < 20; i++ {
		code, err := g.Next(context.Background())
		require.NoError(t, err)
		c, err := Parse(code)
		require.NoError(t, err)
		assert.Greater(t, c.Counter, prev)
		prev = c.Counter
	}
}

func TestGenerator_UsesUTCDay(t *testing.T) {
	dhaka := time.FixedZone("BST", 6*3600)
	g := fixedGenerator(&memorySequence{}, time.Date(2024, 3, 2, 3, 0, 0, 0, dhaka))
	code, err := g.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NYMORGEN-20240301-00001", code)
}

func TestGenerator_SequenceError(t *testing.T) {
	g := fixedGenerator(&memorySequence{err: errors.New("redis down")}, time.Now())
	code, err := g.Next(context.Background())
	require.Error(t, err)
	assert.Empty(t, code)
}

type zeroSequence struct{}

func (zeroSequence) Next(context.Context, string) (int64, error) { return 0, nil }

func TestGenerator_RejectsNonPositiveCounter(t *testing.T) {
	_, err := fixedGenerator(zeroSequence{}, time.Now()).Next(context.Background())
	assert.Error(t, err)
}

func TestFormat_WidensPastFiveDigits(t *testing.T) {
	assert.Equal(t, "NYMORGEN-20240301-99999", Format("20240301", 99999))
	code := Format("20240301", 100000)
	assert.Equal(t, "NYMORGEN-20240301-100000", code)

	c, err := Parse(code)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), c.Counter)
}

func TestParse(t *testing.T) {
	c, err := Parse("NYMORGEN-20241231-00042")
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.Counter)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), c.Day)

	for _, bad := range []string{
		"",
		"NYMORGEN-20241231",
		"ORDER-20241231-00001",
		"NYMORGEN-2024123-00001",
		"NYMORGEN-20241340-00001",
		"NYMORGEN-20241231-001",
		"NYMORGEN-20241231-00000",
		"NYMORGEN-20241231-abcde",
	} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrMalformed, bad)
	}
}
