package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHookRegistry_RunsInOrderAndStopsOnError(t *testing.T) {
	reg := NewHookRegistry[*[]string]()
	boom := errors.New("boom")

	reg.OnAfterCreate(func(ctx context.Context, log *[]string) error {
		*log = append(*log, "first")
		return nil
	})
	reg.OnAfterCreate(func(ctx context.Context, log *[]string) error {
		*log = append(*log, "second")
		return boom
	})
	reg.OnAfterCreate(func(ctx context.Context, log *[]string) error {
		*log = append(*log, "third")
		return nil
	})

	var log []string
	err := reg.Run(context.Background(), AfterCreate, &log)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, log)
	assert.NoError(t, reg.Run(context.Background(), AfterUpdate, &log))
}

func TestListFilter_Normalize(t *testing.T) {
	f := ListFilter{Limit: 0, Offset: -3}
	f.Normalize()
	assert.Equal(t, 50, f.Limit)
	assert.Equal(t, 0, f.Offset)

	f = ListFilter{Limit: 10000}
	f.Normalize()
	assert.Equal(t, 500, f.Limit)
}
