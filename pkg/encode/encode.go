// Package encode turns masked source into fixed-length model windows.
//
// Long inputs are cut into consecutive chunks of MaxLength-2 ids with no
// overlap; each chunk gets the begin and end markers and right padding. A mask
// run that straddles a chunk boundary is not repaired: it shows up as the
// tail of one window and the head of the next, and only its first part lines
// up with the subtoken indices the scorer reads.
package encode

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bastiangx/nameserve/pkg/mask"
	"github.com/bastiangx/nameserve/pkg/rename"
	"github.com/bastiangx/nameserve/pkg/vocab"
)

// Window is one model input row.
type Window struct {
	IDs       []int
	Attention []int
	// Slots holds the offset of the first id of every contiguous mask run.
	Slots []int
}

// Encoder is read-only after construction and safe for concurrent use.
type Encoder struct {
	vocab       vocab.Vocabulary
	maxLength   int
	placeholder string
}

// New returns an encoder producing windows of exactly maxLength ids.
func New(v vocab.Vocabulary, maxLength int, placeholder string) (*Encoder, error) {
	if maxLength < 3 {
		return nil, fmt.Errorf("max length %d leaves no room between the boundary markers", maxLength)
	}
	if placeholder == "" {
		placeholder = mask.DefaultPlaceholder
	}
	return &Encoder{vocab: v, maxLength: maxLength, placeholder: placeholder}, nil
}

// MaxLength is the fixed window length.
func (e *Encoder) MaxLength() int { return e.maxLength }

// Capacity is how many content ids fit in one window.
func (e *Encoder) Capacity() int { return e.maxLength - 2 }

// Tokenize sub-tokenizes masked text with every placeholder mapped to the mask
// id. Whitespace right before a placeholder is absorbed by it, so
// "[MASK] [MASK]" becomes two adjacent mask ids.
func (e *Encoder) Tokenize(masked string) []int {
	parts := strings.Split(masked, e.placeholder)
	var ids []int
	for i, part := range parts {
		last := i == len(parts)-1
		if !last {
			part = strings.TrimRightFunc(part, unicode.IsSpace)
		}
		if part != "" {
			ids = append(ids, e.vocab.Encode(part)...)
		}
		if !last {
			ids = append(ids, e.vocab.MaskID())
		}
	}
	return ids
}

// Encode produces the window batch for masked text.
func (e *Encoder) Encode(masked string) ([]Window, error) {
	ids := e.Tokenize(masked)
	if len(ids) == 0 {
		return nil, rename.Errorf(rename.KindScoring, "encode", "masked text produced no tokens")
	}

	capacity := e.Capacity()
	windows := make([]Window, 0, (len(ids)+capacity-1)/capacity)
	for start := 0; start < len(ids); start += capacity {
		end := min(start+capacity, len(ids))
		windows = append(windows, e.window(ids[start:end]))
	}
	return windows, nil
}

func (e *Encoder) window(chunk []int) Window {
	w := Window{
		IDs:       make([]int, 0, e.maxLength),
		Attention: make([]int, 0, e.maxLength),
	}
	w.IDs = append(w.IDs, e.vocab.BeginID())
	w.IDs = append(w.IDs, chunk...)
	w.IDs = append(w.IDs, e.vocab.EndID())
	for range w.IDs {
		w.Attention = append(w.Attention, 1)
	}
	for len(w.IDs) < e.maxLength {
		w.IDs = append(w.IDs, e.vocab.PadID())
		w.Attention = append(w.Attention, 0)
	}
	w.Slots = maskRuns(w.IDs, e.vocab.MaskID())
	return w
}

func maskRuns(ids []int, maskID int) []int {
	var slots []int
	for i := 0; i < len(ids); i++ {
		if ids[i] != maskID {
			continue
		}
		slots = append(slots, i)
		for i+1 < len(ids) && ids[i+1] == maskID {
			i++
		}
	}
	return slots
}
