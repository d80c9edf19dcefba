package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "invoicehub/internal/core/numerator"
)

func TestNext_RequiresTransaction(t *testing.T) {
	s := New(corenumerator.DefaultConfig())

	_, err := s.Next(context.Background(), 1, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a transaction")
}

func TestYearBounds(t *testing.T) {
	from, to := yearBounds(2026)

	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestYearPattern(t *testing.T) {
	s := New(corenumerator.DefaultConfig())

	assert.Equal(t, "INV-2026-%", s.yearPattern(2026))
}
