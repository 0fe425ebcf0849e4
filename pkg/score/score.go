// Package score turns model logits over masked windows into a candidate name
// and its pseudo-log-likelihood.
package score

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/bastiangx/nameserve/internal/utils"
	"github.com/bastiangx/nameserve/pkg/encode"
	"github.com/bastiangx/nameserve/pkg/model"
	"github.com/bastiangx/nameserve/pkg/rename"
	"github.com/bastiangx/nameserve/pkg/vocab"
)

// DefaultTopK is how many ranked ids are checked for an alphabetic piece.
const DefaultTopK = 5

const op = "score"

// Scorer is stateless between calls and safe for concurrent use as long as the
// model is.
type Scorer struct {
	model model.MaskedLM
	vocab vocab.Vocabulary
	topK  int
}

// New returns a scorer. A topK below 1 falls back to DefaultTopK.
func New(m model.MaskedLM, v vocab.Vocabulary, topK int) *Scorer {
	if topK < 1 {
		topK = DefaultTopK
	}
	return &Scorer{model: m, vocab: v, topK: topK}
}

// Score runs one forward pass over windows and predicts n subtokens per mask
// run. Rows at slot+t are averaged across every slot of every window before
// decoding subtoken t.
func (s *Scorer) Score(ctx context.Context, windows []encode.Window, n int) (rename.Candidate, error) {
	if n < 1 {
		return rename.Candidate{}, rename.Errorf(rename.KindScoring, op, "subtoken count %d is below 1", n)
	}
	batch, slots := s.batch(windows, n)
	if slots == 0 {
		return rename.Candidate{}, rename.Errorf(rename.KindScoring, op, "no mask positions in %d windows", len(windows))
	}

	out, err := s.model.Forward(ctx, batch)
	if err != nil {
		return rename.Candidate{}, rename.Wrap(rename.KindScoring, op, err)
	}

	var (
		name  strings.Builder
		total float64
	)
	for t := 0; t < n; t++ {
		consensus, err := average(out, windows, t)
		if err != nil {
			return rename.Candidate{}, err
		}
		piece, nll := s.pick(consensus)
		name.WriteString(piece)
		total += nll
	}

	return rename.Candidate{Name: name.String(), PLL: total / float64(n), Subtokens: n}, nil
}

func (s *Scorer) batch(windows []encode.Window, n int) (*model.Batch, int) {
	batch := &model.Batch{
		InputIDs:  make([][]int, len(windows)),
		Attention: make([][]int, len(windows)),
		Gather:    make([][]int, len(windows)),
	}
	slots := 0
	for w, win := range windows {
		batch.InputIDs[w] = win.IDs
		batch.Attention[w] = win.Attention
		seen := make(map[int]bool)
		for _, start := range win.Slots {
			slots++
			for t := 0; t < n; t++ {
				if p := start + t; p < len(win.IDs) && !seen[p] {
					seen[p] = true
					batch.Gather[w] = append(batch.Gather[w], p)
				}
			}
		}
		sort.Ints(batch.Gather[w])
	}
	return batch, slots
}

func average(out model.Output, windows []encode.Window, t int) ([]float64, error) {
	var (
		sum   []float64
		count int
	)
	for w, win := range windows {
		for _, start := range win.Slots {
			p := start + t
			if p >= len(win.IDs) {
				continue
			}
			row, ok := out.Row(w, p)
			if !ok {
				return nil, rename.Errorf(rename.KindScoring, op, "model returned no row for window %d position %d", w, p)
			}
			if sum == nil {
				sum = make([]float64, len(row))
			} else if len(row) != len(sum) {
				return nil, rename.Errorf(rename.KindScoring, op, "row width %d, expected %d", len(row), len(sum))
			}
			for i, v := range row {
				sum[i] += float64(v)
			}
			count++
		}
	}
	if count == 0 {
		return nil, rename.Errorf(rename.KindScoring, op, "no window reaches subtoken %d", t)
	}
	if len(sum) == 0 {
		return nil, rename.Errorf(rename.KindScoring, op, "empty logits row")
	}
	for i := range sum {
		sum[i] /= float64(count)
	}
	return sum, nil
}

// pick returns the decoded piece chosen from logits and its negative log
// probability.
func (s *Scorer) pick(logits []float64) (string, float64) {
	ranked := topK(logits, s.topK)
	chosen := ranked[0]
	piece := utils.TrimPiece(s.vocab.Decode(chosen))
	for _, id := range ranked {
		if p := utils.TrimPiece(s.vocab.Decode(id)); utils.IsAlphabetic(p) {
			chosen, piece = id, p
			break
		}
	}
	return piece, nll(logits, chosen)
}

// nll is -log softmax(logits)[id], clamped at zero against rounding.
func nll(logits []float64, id int) float64 {
	peak := math.Inf(-1)
	for _, v := range logits {
		peak = math.Max(peak, v)
	}
	var z float64
	for _, v := range logits {
		z += math.Exp(v - peak)
	}
	return math.Max(0, peak+math.Log(z)-logits[id])
}

// topK returns the indices of the k largest values, highest first. Equal
// values keep index order.
func topK(values []float64, k int) []int {
	k = min(k, len(values))
	best := make([]int, 0, k+1)
	for i, v := range values {
		if len(best) == k && v <= values[best[k-1]] {
			continue
		}
		at := sort.Search(len(best), func(j int) bool { return values[best[j]] < v })
		best = append(best, 0)
		copy(best[at+1:], best[at:])
		best[at] = i
		if len(best) > k {
			best = best[:k]
		}
	}
	return best
}
