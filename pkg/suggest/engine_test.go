package suggest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/bastiangx/nameserve/pkg/encode"
	"github.com/bastiangx/nameserve/pkg/model/mock"
	"github.com/bastiangx/nameserve/pkg/rename"
	"github.com/bastiangx/nameserve/pkg/resolve"
	"github.com/bastiangx/nameserve/pkg/score"
	"github.com/bastiangx/nameserve/pkg/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snippet = "int x = 1; print(x);"

// ids: [PAD]0 [UNK]1 [CLS]2 [SEP]3 [MASK]4 int5 x6 =7 1(8) ;9 print10 (11 )12 total13 count14
func newEngine(t *testing.T, parallel bool) (*Engine, *mock.Model) {
	t.Helper()
	v, err := vocab.NewWordPiece([]string{
		"[PAD]", "[UNK]", "[CLS]", "[SEP]", "[MASK]",
		"int", "x", "=", "1", ";", "print", "(", ")", "total", "count",
	}, vocab.Specials{})
	require.NoError(t, err)

	enc, err := encode.New(v, 32, "")
	require.NoError(t, err)

	m := mock.New(v.Size(), v.MaskID()).Boost(0, 13, 8).Boost(1, 14, 14)
	e := New(resolve.New(resolve.Lexical), enc, score.New(m, v, 5), Options{Parallel: parallel})
	return e, m
}

func TestRenameAutoPicksLowestPLL(t *testing.T) {
	e, m := newEngine(t, false)

	res, err := e.Rename(context.Background(), rename.Request{Code: snippet, Line: 1, Column: 18, Subtokens: rename.Auto})
	require.NoError(t, err)

	assert.Equal(t, "x", res.Original)
	assert.Equal(t, "totalcount", res.Name)
	assert.Equal(t, 2, res.Subtokens)
	require.Len(t, res.Tried, DefaultMaxSubtokens)
	for i, c := range res.Tried {
		assert.Equal(t, i+1, c.Subtokens)
		assert.GreaterOrEqual(t, c.PLL, res.PLL)
	}
	assert.EqualValues(t, DefaultMaxSubtokens, m.Calls(), "one forward pass per count")
}

func TestRenameParallelMatchesSequential(t *testing.T) {
	seq, _ := newEngine(t, false)
	par, _ := newEngine(t, true)
	req := rename.Request{Code: snippet, Line: 1, Column: 5, Subtokens: rename.Auto}

	want, err := seq.Rename(context.Background(), req)
	require.NoError(t, err)
	got, err := par.Rename(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRenameManualCount(t *testing.T) {
	e, m := newEngine(t, false)

	res, err := e.Rename(context.Background(), rename.Request{Code: snippet, Line: 1, Column: 5, Subtokens: 1})
	require.NoError(t, err)
	assert.Equal(t, "total", res.Name)
	assert.Len(t, res.Tried, 1)
	assert.EqualValues(t, 1, m.Calls())
}

func TestRenameFailures(t *testing.T) {
	e, m := newEngine(t, false)
	ctx := context.Background()

	cases := []struct {
		name string
		req  rename.Request
		kind rename.Kind
	}{
		{"keyword", rename.Request{Code: snippet, Line: 1, Column: 1, Subtokens: rename.Auto}, rename.KindNotAnIdentifier},
		{"line", rename.Request{Code: snippet, Line: 99, Column: 1, Subtokens: rename.Auto}, rename.KindLineOutOfRange},
		{"whitespace", rename.Request{Code: snippet, Line: 1, Column: 4, Subtokens: rename.Auto}, rename.KindPositionNotFound},
		{"zero count", rename.Request{Code: snippet, Line: 1, Column: 5, Subtokens: 0}, rename.KindScoring},
		{"negative count", rename.Request{Code: snippet, Line: 1, Column: 5, Subtokens: -2}, rename.KindScoring},
		{"placeholder in source", rename.Request{Code: "int x = 1; // [MASK]", Line: 1, Column: 5, Subtokens: 1}, rename.KindScoring},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Rename(ctx, tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.kind, rename.KindOf(err))
		})
	}
	assert.Zero(t, m.Calls())

	stats := e.Stats()
	assert.Equal(t, len(cases), stats["requests"])
	assert.Equal(t, len(cases), stats["failures"])
}

func TestRenameBackendFailure(t *testing.T) {
	e, m := newEngine(t, true)
	m.Err = errors.New("inference server unreachable")

	_, err := e.Rename(context.Background(), rename.Request{Code: snippet, Line: 1, Column: 5, Subtokens: rename.Auto})
	assert.Equal(t, rename.KindScoring, rename.KindOf(err))
	assert.ErrorIs(t, err, m.Err)
}

func TestSearchMaskedText(t *testing.T) {
	e, _ := newEngine(t, false)

	res, err := e.Search(context.Background(), "int [MASK] = 1;", 2)
	require.NoError(t, err)
	assert.Equal(t, "totalcount", res.Name)
	assert.Empty(t, res.Original)

	_, err = e.Search(context.Background(), "int y = 1;", 1)
	assert.Equal(t, rename.KindScoring, rename.KindOf(err))
}

func fixed(plls ...float64) scoreFunc {
	return func(_ context.Context, k int) (rename.Candidate, error) {
		return rename.Candidate{Name: string(rune('a' + k - 1)), PLL: plls[k-1], Subtokens: k}, nil
	}
}

func TestBestSelection(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		res, err := best(context.Background(), 4, parallel, fixed(3.0, 2.3, 2.3, 5.0))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Subtokens, "strictly lower PLL wins, ties keep the lower count")
		assert.Equal(t, 2.3, res.PLL)

		res, err = best(context.Background(), 3, parallel, fixed(1, 1, 1))
		require.NoError(t, err)
		assert.Equal(t, "a", res.Name)

		res, err = best(context.Background(), 3, parallel, fixed(4, 3, 2.3))
		require.NoError(t, err)
		assert.Equal(t, 3, res.Subtokens)
	}
}

func TestBestStopsOnError(t *testing.T) {
	boom := rename.Errorf(rename.KindScoring, "score", "boom")
	var calls atomic.Int32
	fn := func(_ context.Context, k int) (rename.Candidate, error) {
		calls.Add(1)
		if k == 2 {
			return rename.Candidate{}, boom
		}
		return rename.Candidate{PLL: 1, Subtokens: k}, nil
	}

	_, err := best(context.Background(), 5, false, fn)
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 2, calls.Load())

	_, err = best(context.Background(), 5, true, fn)
	assert.ErrorIs(t, err, boom)
}

func TestBestParallelCancelsSiblings(t *testing.T) {
	boom := errors.New("boom")
	fn := func(ctx context.Context, k int) (rename.Candidate, error) {
		if k == 1 {
			return rename.Candidate{}, boom
		}
		<-ctx.Done()
		return rename.Candidate{}, ctx.Err()
	}

	_, err := best(context.Background(), 4, true, fn)
	assert.ErrorIs(t, err, boom)
}
