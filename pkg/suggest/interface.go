// Package suggest is the core, wiring resolution, masking, encoding and scoring into a rename suggestion and searching subtoken counts for the best one.
package suggest

import (
	"context"

	"github.com/bastiangx/nameserve/pkg/rename"
)

// ISuggester defines the interface for rename suggestion engines
type ISuggester interface {
	// Rename resolves the identifier at the request position and suggests a new name for it
	Rename(ctx context.Context, req rename.Request) (rename.Result, error)

	// Search scores already masked text for a subtoken count, or every count up to the maximum when count is rename.Auto
	Search(ctx context.Context, masked string, count int) (rename.Result, error)

	// Stats returns request counters
	Stats() map[string]int
}
