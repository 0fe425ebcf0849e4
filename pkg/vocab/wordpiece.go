package vocab

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/tchap/go-patricia/v2/patricia"
)

const (
	continuationPrefix = "##"
	maxWordRunes       = 100
)

// WordPiece is a BERT-style greedy longest-match tokenizer. Pieces live in a
// patricia trie so the longest vocabulary prefix of a word is one walk.
type WordPiece struct {
	specialIDs
	tokens   []string
	trie     *patricia.Trie
	lower    bool
	specials *specialMatcher
}

// LoadWordPiece reads vocab.txt from dir. The vocabulary is treated as
// uncased when it has no upper-case entries outside the special tokens.
func LoadWordPiece(dir string, specials Specials) (*WordPiece, error) {
	f, err := os.Open(filepath.Join(dir, "vocab.txt"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewWordPiece(tokens, specials)
}

// NewWordPiece builds a tokenizer where a token's id is its index.
func NewWordPiece(tokens []string, specials Specials) (*WordPiece, error) {
	specials = specials.withDefaults(FormatWordPiece)

	ids := make(map[string]int, len(tokens))
	trie := patricia.NewTrie()
	for id, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, dup := ids[tok]; dup {
			continue
		}
		ids[tok] = id
		trie.Insert(patricia.Prefix(tok), id)
	}
	sids, err := resolveSpecials(ids, specials)
	if err != nil {
		return nil, err
	}

	lit := make(map[string]int)
	for _, tok := range specials.all() {
		lit[tok] = ids[tok]
	}

	lower := true
	for _, tok := range tokens {
		if _, special := lit[tok]; special {
			continue
		}
		if strings.ToLower(tok) != tok {
			lower = false
			break
		}
	}

	return &WordPiece{
		specialIDs: sids,
		tokens:     tokens,
		trie:       trie,
		lower:      lower,
		specials:   newSpecialMatcher(lit),
	}, nil
}

// Size implements Vocabulary.
func (w *WordPiece) Size() int { return len(w.tokens) }

// Decode implements Vocabulary. Continuation pieces keep their ## marker.
func (w *WordPiece) Decode(id int) string {
	if id < 0 || id >= len(w.tokens) {
		return ""
	}
	return w.tokens[id]
}

// Encode implements Vocabulary.
func (w *WordPiece) Encode(text string) []int {
	var out []int
	for _, seg := range w.specials.split(text) {
		if seg.id >= 0 {
			out = append(out, seg.id)
			continue
		}
		for _, word := range basicSplit(seg.text, w.lower) {
			out = append(out, w.pieces(word)...)
		}
	}
	return out
}

func (w *WordPiece) pieces(word string) []int {
	if len([]rune(word)) > maxWordRunes {
		return []int{w.unk}
	}
	var ids []int
	rest := word
	prefix := ""
	for rest != "" {
		key := prefix + rest
		matched, id := "", -1
		_ = w.trie.VisitPrefixes(patricia.Prefix(key), func(p patricia.Prefix, item patricia.Item) error {
			if len(p) > len(prefix) && len(p) > len(matched) {
				matched, id = string(p), item.(int)
			}
			return nil
		})
		if id < 0 {
			return []int{w.unk}
		}
		ids = append(ids, id)
		rest = rest[len(matched)-len(prefix):]
		prefix = continuationPrefix
	}
	return ids
}

// basicSplit breaks on whitespace and isolates every punctuation rune.
func basicSplit(text string, lower bool) []string {
	if lower {
		text = strings.ToLower(text)
	}
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			out = append(out, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
