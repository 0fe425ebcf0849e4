// Package mock is an in-process MaskedLM for tests and offline dry runs. Its
// logits are a pure function of the position inside a mask run and the
// vocabulary index, so every call with the same batch shape answers the same.
package mock

import (
	"context"
	"hash/fnv"
	"sync/atomic"

	"github.com/bastiangx/nameserve/pkg/model"
)

// Model produces deterministic logits over a vocabulary of Size entries.
type Model struct {
	Size   int
	MaskID int
	// Bias adds a boost to token ids at a given offset inside a mask run:
	// Bias[0][42] = 8 makes id 42 likely for the first masked subtoken.
	Bias map[int]map[int]float32
	// Err, when set, is returned by every Forward.
	Err error

	calls atomic.Int64
}

var _ model.MaskedLM = (*Model)(nil)

// New returns a mock over size ids with mask id maskID.
func New(size, maskID int) *Model {
	return &Model{Size: size, MaskID: maskID, Bias: make(map[int]map[int]float32)}
}

// Boost is a convenience for Bias[offset][id] = by.
func (m *Model) Boost(offset, id int, by float32) *Model {
	if m.Bias == nil {
		m.Bias = make(map[int]map[int]float32)
	}
	if m.Bias[offset] == nil {
		m.Bias[offset] = make(map[int]float32)
	}
	m.Bias[offset][id] = by
	return m
}

// Calls reports how many Forward calls were served.
func (m *Model) Calls() int64 {
	return m.calls.Load()
}

// Forward implements model.MaskedLM.
func (m *Model) Forward(ctx context.Context, batch *model.Batch) (model.Output, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	rows := make(model.Rows)
	for w, ids := range batch.InputIDs {
		for _, p := range batch.Positions(w) {
			rows[[2]int{w, p}] = m.row(runOffset(ids, p, m.MaskID))
		}
	}
	return rows, nil
}

func (m *Model) row(offset int) []float32 {
	row := make([]float32, m.Size)
	for id := range row {
		row[id] = noise(offset, id)
	}
	for id, by := range m.Bias[offset] {
		if id >= 0 && id < m.Size {
			row[id] += by
		}
	}
	return row
}

// runOffset is how far p sits past the start of the nearest mask run at or
// before it, or -1 when no mask id precedes p.
func runOffset(ids []int, p, maskID int) int {
	j := p
	for j >= 0 && ids[j] != maskID {
		j--
	}
	if j < 0 {
		return -1
	}
	for j > 0 && ids[j-1] == maskID {
		j--
	}
	return p - j
}

// noise is a small value in [0, 1) derived from offset and id.
func noise(offset, id int) float32 {
	h := fnv.New32a()
	var buf [8]byte
	for i := 0; i < 4; i++ {
		buf[i] = byte(offset >> (8 * i))
		buf[4+i] = byte(id >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return float32(h.Sum32()%1000) / 1000
}
