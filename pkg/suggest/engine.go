package suggest

import (
	"context"
	"sync/atomic"

	"github.com/bastiangx/nameserve/internal/logger"
	"github.com/bastiangx/nameserve/pkg/encode"
	"github.com/bastiangx/nameserve/pkg/mask"
	"github.com/bastiangx/nameserve/pkg/rename"
	"github.com/bastiangx/nameserve/pkg/resolve"
	"github.com/bastiangx/nameserve/pkg/score"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxSubtokens bounds the auto search.
const DefaultMaxSubtokens = 6

// Options configures the subtoken search.
type Options struct {
	MaxSubtokens int
	Placeholder  string
	// Parallel scores every count of an auto search concurrently.
	Parallel bool
}

// Engine runs the resolve, mask, encode and score pipeline for one snippet.
type Engine struct {
	resolver *resolve.Resolver
	encoder  *encode.Encoder
	scorer   *score.Scorer
	opts     Options
	log      *log.Logger

	requests atomic.Int64
	failures atomic.Int64
	scored   atomic.Int64
}

var _ ISuggester = (*Engine)(nil)

// New creates an Engine; zero Options fields take their defaults.
func New(r *resolve.Resolver, e *encode.Encoder, s *score.Scorer, opts Options) *Engine {
	if opts.MaxSubtokens < 1 {
		opts.MaxSubtokens = DefaultMaxSubtokens
	}
	if opts.Placeholder == "" {
		opts.Placeholder = mask.DefaultPlaceholder
	}
	return &Engine{
		resolver: r,
		encoder:  e,
		scorer:   s,
		opts:     opts,
		log:      logger.New("search"),
	}
}

// Rename suggests a name for the identifier at the request position.
func (e *Engine) Rename(ctx context.Context, req rename.Request) (rename.Result, error) {
	e.requests.Add(1)
	res, err := e.rename(ctx, req)
	if err != nil {
		e.failures.Add(1)
	}
	return res, err
}

func (e *Engine) rename(ctx context.Context, req rename.Request) (rename.Result, error) {
	if err := checkCount(req.Subtokens); err != nil {
		return rename.Result{}, err
	}
	found, err := e.resolver.Resolve(req.Code, req.Line, req.Column)
	if err != nil {
		return rename.Result{}, err
	}
	masked, err := mask.Apply(req.Code, found.Occurrences, mask.Opaque, e.opts.Placeholder)
	if err != nil {
		return rename.Result{}, err
	}
	e.log.Debug("masked", "name", found.Name, "occurrences", len(found.Occurrences))

	res, err := e.search(ctx, masked, req.Subtokens)
	if err != nil {
		return rename.Result{}, err
	}
	res.Original = found.Name
	return res, nil
}

// Search takes text already masked with one placeholder per occurrence.
func (e *Engine) Search(ctx context.Context, masked string, count int) (rename.Result, error) {
	e.requests.Add(1)
	res, err := e.search(ctx, masked, count)
	if err != nil {
		e.failures.Add(1)
	}
	return res, err
}

func (e *Engine) search(ctx context.Context, masked string, count int) (rename.Result, error) {
	if err := checkCount(count); err != nil {
		return rename.Result{}, err
	}
	if count != rename.Auto {
		c, err := e.scoreCount(ctx, masked, count)
		if err != nil {
			return rename.Result{}, err
		}
		return rename.Result{Candidate: c, Tried: []rename.Candidate{c}}, nil
	}
	return best(ctx, e.opts.MaxSubtokens, e.opts.Parallel, func(ctx context.Context, k int) (rename.Candidate, error) {
		return e.scoreCount(ctx, masked, k)
	})
}

func (e *Engine) scoreCount(ctx context.Context, masked string, k int) (rename.Candidate, error) {
	expanded, err := mask.Expand(masked, k, e.opts.Placeholder)
	if err != nil {
		return rename.Candidate{}, err
	}
	windows, err := e.encoder.Encode(expanded)
	if err != nil {
		return rename.Candidate{}, err
	}
	c, err := e.scorer.Score(ctx, windows, k)
	if err != nil {
		return rename.Candidate{}, err
	}
	e.scored.Add(1)
	e.log.Debug("prediction", "k", k, "name", c.Name, "pll", c.PLL, "windows", len(windows))
	return c, nil
}

// Stats returns the request counters and the configured search bound.
func (e *Engine) Stats() map[string]int {
	return map[string]int{
		"requests":      int(e.requests.Load()),
		"failures":      int(e.failures.Load()),
		"scored":        int(e.scored.Load()),
		"max_subtokens": e.opts.MaxSubtokens,
	}
}

func checkCount(count int) error {
	if count == rename.Auto || count >= 1 {
		return nil
	}
	return rename.Errorf(rename.KindScoring, "search", "subtoken count %d: want %d or at least 1", count, rename.Auto)
}

type scoreFunc func(ctx context.Context, k int) (rename.Candidate, error)

// best scores counts 1..limit and keeps the first strictly lowest PLL. Parallel
// runs share one cancellation: the first failure stops the rest.
func best(ctx context.Context, limit int, parallel bool, fn scoreFunc) (rename.Result, error) {
	tried := make([]rename.Candidate, limit)
	if parallel {
		g, gctx := errgroup.WithContext(ctx)
		for k := 1; k <= limit; k++ {
			g.Go(func() error {
				c, err := fn(gctx, k)
				tried[k-1] = c
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return rename.Result{}, err
		}
	} else {
		for k := 1; k <= limit; k++ {
			c, err := fn(ctx, k)
			if err != nil {
				return rename.Result{}, err
			}
			tried[k-1] = c
		}
	}

	res := rename.Result{Candidate: tried[0], Tried: tried}
	for _, c := range tried[1:] {
		if c.PLL < res.PLL {
			res.Candidate = c
		}
	}
	return res, nil
}
