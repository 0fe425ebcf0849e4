package server

import (
	"bytes"
	"context"
	"testing"

	"github.com/bastiangx/nameserve/pkg/rename"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type fakeEngine struct {
	got []rename.Request
	res rename.Result
	err error
}

func (f *fakeEngine) Rename(_ context.Context, req rename.Request) (rename.Result, error) {
	f.got = append(f.got, req)
	return f.res, f.err
}

func (f *fakeEngine) Search(context.Context, string, int) (rename.Result, error) {
	return f.res, f.err
}

func (f *fakeEngine) Stats() map[string]int {
	return map[string]int{"requests": len(f.got)}
}

// run feeds msgs to a server and returns every response it wrote.
func run(t *testing.T, engine *fakeEngine, info Info, msgs ...any) []map[string]any {
	t.Helper()
	var in, out bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, m := range msgs {
		require.NoError(t, enc.Encode(m))
	}

	require.NoError(t, newServer(engine, info, &in, &out).Start(context.Background()))

	var responses []map[string]any
	dec := msgpack.NewDecoder(&out)
	for out.Len() > 0 {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		responses = append(responses, m)
	}
	return responses
}

func asInt(t *testing.T, v any) int {
	t.Helper()
	var n int
	raw, err := msgpack.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, msgpack.Unmarshal(raw, &n))
	return n
}

func TestStartSendsReadyFirst(t *testing.T) {
	resp := run(t, &fakeEngine{}, Info{})
	require.Len(t, resp, 1)
	assert.Equal(t, "ready", resp[0]["status"])
}

func TestRenameRoundsPLL(t *testing.T) {
	engine := &fakeEngine{res: rename.Result{
		Candidate: rename.Candidate{Name: "total", PLL: 0.4271, Subtokens: 1},
		Original:  "x",
	}}
	n := 2
	resp := run(t, engine, Info{MaxCodeBytes: 1024},
		Request{ID: "a", Code: "int x = 1;", Line: 1, Char: 5},
		Request{ID: "b", Code: "int x = 1;", Line: 1, Char: 5, N: &n},
	)
	require.Len(t, resp, 3)

	first := resp[1]
	assert.Equal(t, "a", first["id"])
	assert.Equal(t, []any{"total"}, first["s"])
	assert.Equal(t, []any{0.43}, first["p"])
	assert.Equal(t, 1, asInt(t, first["k"]))
	assert.Equal(t, "x", first["o"])

	require.Len(t, engine.got, 2)
	assert.Equal(t, rename.Request{Code: "int x = 1;", Line: 1, Column: 5, Subtokens: rename.Auto}, engine.got[0])
	assert.Equal(t, 2, engine.got[1].Subtokens)
}

func TestRenameErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{rename.Errorf(rename.KindNotAnIdentifier, "resolve", "keyword"), 400},
		{rename.Errorf(rename.KindLineOutOfRange, "resolve", "line 99"), 400},
		{rename.Errorf(rename.KindNoOccurrences, "resolve", "none"), 404},
		{rename.Errorf(rename.KindScoring, "score", "backend"), 500},
	}
	for _, tc := range cases {
		resp := run(t, &fakeEngine{err: tc.err}, Info{}, Request{ID: "r", Code: "x", Line: 1, Char: 1})
		require.Len(t, resp, 2)
		assert.Equal(t, tc.code, asInt(t, resp[1]["c"]))
		assert.Equal(t, string(rename.KindOf(tc.err)), resp[1]["kind"])
		assert.Equal(t, tc.err.Error(), resp[1]["e"])
	}
}

func TestRequestValidation(t *testing.T) {
	engine := &fakeEngine{}
	resp := run(t, engine, Info{MaxCodeBytes: 4},
		Request{ID: "empty"},
		Request{ID: "big", Code: "int x = 1;", Line: 1, Char: 5},
		Request{ID: "odd", Kind: "complete"},
		map[string]any{"id": "typed", "line": "one"},
	)
	require.Len(t, resp, 5)
	for _, r := range resp[1:] {
		assert.Equal(t, 400, asInt(t, r["c"]))
	}
	assert.Equal(t, "big", resp[2]["id"])
	assert.Contains(t, resp[2]["e"], "4 bytes")
	assert.Empty(t, engine.got)
}

func TestHealthAndInfo(t *testing.T) {
	info := Info{Version: "1.0.0", Backend: "mock", Strategy: "lexical", MaxLength: 512, MaxSubtokens: 6}
	resp := run(t, &fakeEngine{}, info,
		Request{ID: "h", Kind: KindHealth},
		Request{ID: "i", Kind: KindInfo},
	)
	require.Len(t, resp, 3)
	assert.Equal(t, "ok", resp[1]["status"])

	assert.Equal(t, "i", resp[2]["id"])
	assert.Equal(t, "mock", resp[2]["backend"])
	assert.Equal(t, 6, asInt(t, resp[2]["max_subtokens"]))
	assert.Contains(t, resp[2], "stats")
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 2.3, round2(2.3049))
	assert.Equal(t, 0.01, round2(0.005))
	assert.Equal(t, 0.0, round2(0.0004))
}
