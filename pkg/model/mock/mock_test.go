package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/bastiangx/nameserve/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batch() *model.Batch {
	return &model.Batch{
		InputIDs:  [][]int{{0, 9, 4, 4, 2}, {0, 4, 8, 2, 1}},
		Attention: [][]int{{1, 1, 1, 1, 1}, {1, 1, 1, 1, 0}},
		Gather:    [][]int{{2, 3}, {1, 2}},
	}
}

func TestForwardDeterministic(t *testing.T) {
	m := New(10, 4)
	a, err := m.Forward(context.Background(), batch())
	require.NoError(t, err)
	b, err := m.Forward(context.Background(), batch())
	require.NoError(t, err)

	ra, ok := a.Row(0, 2)
	require.True(t, ok)
	rb, _ := b.Row(0, 2)
	assert.Equal(t, ra, rb)
	assert.Len(t, ra, 10)
	assert.EqualValues(t, 2, m.Calls())

	// Same offset inside a run gives the same row across windows.
	other, _ := a.Row(1, 1)
	assert.Equal(t, ra, other)

	_, ok = a.Row(0, 1)
	assert.False(t, ok, "only gathered positions are produced")
}

func TestForwardBias(t *testing.T) {
	m := New(10, 4).Boost(1, 7, 5)
	out, err := m.Forward(context.Background(), batch())
	require.NoError(t, err)

	second, _ := out.Row(0, 3)
	for id, v := range second {
		if id != 7 {
			assert.Less(t, v, second[7])
		}
	}
	first, _ := out.Row(0, 2)
	assert.Less(t, first[7], float32(1))
}

func TestForwardErrors(t *testing.T) {
	m := New(10, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Forward(ctx, batch())
	assert.ErrorIs(t, err, context.Canceled)

	boom := errors.New("boom")
	m.Err = boom
	_, err = m.Forward(context.Background(), batch())
	assert.ErrorIs(t, err, boom)

	m.Err = nil
	bad := batch()
	bad.Gather[0] = []int{9}
	_, err = m.Forward(context.Background(), bad)
	assert.Error(t, err)
}

func TestRunOffset(t *testing.T) {
	ids := []int{0, 4, 4, 4, 5, 2}
	assert.Equal(t, 0, runOffset(ids, 1, 4))
	assert.Equal(t, 2, runOffset(ids, 3, 4))
	assert.Equal(t, 3, runOffset(ids, 4, 4))
	assert.Equal(t, 4, runOffset(ids, 5, 4))
	assert.Equal(t, -1, runOffset(ids, 0, 4))
}
