// Package model defines the masked-language-model contract the scorer runs
// against. Backends live in sub-packages: remote talks msgpack over HTTP to an
// inference service, mock computes deterministic logits in-process.
package model

import (
	"context"
	"fmt"
)

// Batch is one forward pass. InputIDs and Attention are [windows][length].
// Gather lists, per window, the positions whose logits the caller will read;
// a nil Gather asks for every position.
type Batch struct {
	InputIDs  [][]int `msgpack:"ids"`
	Attention [][]int `msgpack:"attention"`
	Gather    [][]int `msgpack:"gather,omitempty"`
}

// Validate checks the batch is rectangular and that gathered positions are in
// range.
func (b *Batch) Validate() error {
	if len(b.InputIDs) == 0 {
		return fmt.Errorf("empty batch")
	}
	if len(b.Attention) != len(b.InputIDs) {
		return fmt.Errorf("batch has %d id rows but %d attention rows", len(b.InputIDs), len(b.Attention))
	}
	length := len(b.InputIDs[0])
	for i := range b.InputIDs {
		if len(b.InputIDs[i]) != length || len(b.Attention[i]) != length {
			return fmt.Errorf("window %d is not %d long", i, length)
		}
	}
	if b.Gather != nil && len(b.Gather) != len(b.InputIDs) {
		return fmt.Errorf("gather covers %d of %d windows", len(b.Gather), len(b.InputIDs))
	}
	for i, positions := range b.Gather {
		for _, p := range positions {
			if p < 0 || p >= length {
				return fmt.Errorf("window %d: gather position %d out of range", i, p)
			}
		}
	}
	return nil
}

// Positions returns the positions of window i the backend must produce.
func (b *Batch) Positions(i int) []int {
	if b.Gather != nil {
		return b.Gather[i]
	}
	all := make([]int, len(b.InputIDs[i]))
	for p := range all {
		all[p] = p
	}
	return all
}

// Output exposes raw vocabulary scores per (window, position).
type Output interface {
	Row(window, position int) ([]float32, bool)
}

// MaskedLM runs inference. Implementations must be safe for concurrent use and
// must not retain the batch.
type MaskedLM interface {
	Forward(ctx context.Context, batch *Batch) (Output, error)
}

// Rows is a sparse Output keyed by window and position.
type Rows map[[2]int][]float32

// Row implements Output.
func (r Rows) Row(window, position int) ([]float32, bool) {
	row, ok := r[[2]int{window, position}]
	return row, ok
}
