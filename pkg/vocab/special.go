package vocab

import (
	"github.com/tchap/go-patricia/v2/patricia"
)

// segment is a run of plain text, or a special token already resolved to id.
type segment struct {
	text string
	id   int
}

// specialMatcher splits text around literal special tokens, the way
// HuggingFace tokenizers never break "<s>" or "[SEP]" into pieces.
type specialMatcher struct {
	trie   *patricia.Trie
	starts map[byte]struct{}
}

func newSpecialMatcher(tokens map[string]int) *specialMatcher {
	m := &specialMatcher{trie: patricia.NewTrie(), starts: make(map[byte]struct{})}
	for tok, id := range tokens {
		if tok == "" {
			continue
		}
		m.trie.Insert(patricia.Prefix(tok), id)
		m.starts[tok[0]] = struct{}{}
	}
	return m
}

// longest returns the longest special token that prefixes s.
func (m *specialMatcher) longest(s string) (string, int, bool) {
	if _, ok := m.starts[s[0]]; !ok {
		return "", 0, false
	}
	var best string
	bestID := -1
	_ = m.trie.VisitPrefixes(patricia.Prefix(s), func(p patricia.Prefix, item patricia.Item) error {
		if len(p) > len(best) {
			best = string(p)
			bestID = item.(int)
		}
		return nil
	})
	return best, bestID, bestID >= 0
}

func (m *specialMatcher) split(text string) []segment {
	var out []segment
	last := 0
	for i := 0; i < len(text); {
		tok, id, ok := m.longest(text[i:])
		if !ok {
			i++
			continue
		}
		if last < i {
			out = append(out, segment{text: text[last:i], id: -1})
		}
		out = append(out, segment{id: id})
		i += len(tok)
		last = i
	}
	if last < len(text) {
		out = append(out, segment{text: text[last:], id: -1})
	}
	return out
}
