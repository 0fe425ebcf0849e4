// Package mask rewrites identifier occurrences into placeholder spans.
package mask

import (
	"sort"
	"strings"

	"github.com/bastiangx/nameserve/internal/utils"
	"github.com/bastiangx/nameserve/pkg/rename"
)

// DefaultPlaceholder is the marker written in place of a masked identifier.
const DefaultPlaceholder = "[MASK]"

// Opaque replaces each occurrence with a single placeholder and leaves the
// subtoken count to a later Expand.
const Opaque = rename.Auto

type span struct{ start, end int }

// Apply replaces the identifier run under every occurrence. With count Opaque
// each run becomes one placeholder; with count >= 1 it becomes count
// space-separated placeholders. The run is re-derived from the column as the
// maximal stretch of Java identifier characters (letters, digits, '_' and '$'),
// so an occurrence may point anywhere inside the name.
func Apply(src string, occurrences []rename.Position, count int, placeholder string) (string, error) {
	const op = "mask"

	if count != Opaque && count < 1 {
		return "", rename.Errorf(rename.KindScoring, op, "invalid subtoken count %d", count)
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	if strings.Contains(src, placeholder) {
		return "", rename.Errorf(rename.KindScoring, op, "source already contains placeholder %q", placeholder)
	}

	lines := strings.Split(src, "\n")
	spans := make(map[int][]span)
	for _, occ := range occurrences {
		idx := occ.Line - 1
		if idx < 0 || idx >= len(lines) {
			return "", rename.Errorf(rename.KindScoring, op, "occurrence %s is outside the snippet", occ)
		}
		runes := []rune(lines[idx])
		col := occ.Column - 1
		if col < 0 || col >= len(runes) || !utils.IsIdentRune(runes[col]) {
			return "", rename.Errorf(rename.KindScoring, op, "occurrence %s is not on an identifier", occ)
		}
		start, end := col, col+1
		for start > 0 && utils.IsIdentRune(runes[start-1]) {
			start--
		}
		for end < len(runes) && utils.IsIdentRune(runes[end]) {
			end++
		}
		spans[idx] = appendUnique(spans[idx], span{start, end})
	}

	replacement := placeholder
	if count != Opaque {
		replacement = repeat(placeholder, count)
	}
	for idx, list := range spans {
		// right to left keeps earlier offsets valid
		sort.Slice(list, func(i, j int) bool { return list[i].start > list[j].start })
		runes := []rune(lines[idx])
		for _, sp := range list {
			runes = append(runes[:sp.start], append([]rune(replacement), runes[sp.end:]...)...)
		}
		lines[idx] = string(runes)
	}
	return strings.Join(lines, "\n"), nil
}

// Expand turns every single placeholder of an Opaque-masked text into n
// space-separated placeholders.
func Expand(masked string, n int, placeholder string) (string, error) {
	if n < 1 {
		return "", rename.Errorf(rename.KindScoring, "mask", "invalid subtoken count %d", n)
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return strings.ReplaceAll(masked, placeholder, repeat(placeholder, n)), nil
}

// Count returns the number of placeholder runs in masked. Placeholders
// separated only by spaces belong to the same run.
func Count(masked, placeholder string) int {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	runs, prev := 0, -1
	for off := 0; ; {
		i := strings.Index(masked[off:], placeholder)
		if i < 0 {
			return runs
		}
		start := off + i
		if prev < 0 || strings.Trim(masked[prev:start], " ") != "" {
			runs++
		}
		prev = start + len(placeholder)
		off = prev
	}
}

func repeat(placeholder string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = placeholder
	}
	return strings.Join(parts, " ")
}

func appendUnique(list []span, sp span) []span {
	for _, existing := range list {
		if existing == sp {
			return list
		}
	}
	return append(list, sp)
}
