package vocab

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// BPE is a byte-level BPE tokenizer (GPT-2 / RoBERTa layout).
type BPE struct {
	specialIDs
	ids      map[string]int
	tokens   []string
	ranks    map[[2]string]int
	specials *specialMatcher
}

var (
	byteToRune [256]rune
	runeToByte = make(map[rune]byte, 256)
)

// the GPT-2 table maps every byte to a printable rune so merges never see
// control characters or whitespace
func init() {
	n := 0
	for b := 0; b < 256; b++ {
		printable := (b >= '!' && b <= '~') || (b >= 0xA1 && b <= 0xAC) || (b >= 0xAE && b <= 0xFF)
		if printable {
			byteToRune[b] = rune(b)
		} else {
			byteToRune[b] = rune(256 + n)
			n++
		}
		runeToByte[byteToRune[b]] = byte(b)
	}
}

// LoadBPE reads vocab.json and merges.txt from dir.
func LoadBPE(dir string, specials Specials) (*BPE, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "vocab.json"))
	if err != nil {
		return nil, err
	}
	var ids map[string]int
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("parse vocab.json: %w", err)
	}

	f, err := os.Open(filepath.Join(dir, "merges.txt"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var merges [][2]string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#version") {
			continue
		}
		parts := strings.Split(line, " ")
		if len(parts) != 2 {
			return nil, fmt.Errorf("merges.txt: malformed line %q", line)
		}
		merges = append(merges, [2]string{parts[0], parts[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewBPE(ids, merges, specials)
}

// NewBPE builds a tokenizer from an in-memory token table and merge list. A
// merge's rank is its index.
func NewBPE(ids map[string]int, merges [][2]string, specials Specials) (*BPE, error) {
	specials = specials.withDefaults(FormatBPE)
	sids, err := resolveSpecials(ids, specials)
	if err != nil {
		return nil, err
	}

	size := 0
	for _, id := range ids {
		if id+1 > size {
			size = id + 1
		}
	}
	tokens := make([]string, size)
	for tok, id := range ids {
		tokens[id] = tok
	}

	ranks := make(map[[2]string]int, len(merges))
	for i, m := range merges {
		if _, dup := ranks[m]; !dup {
			ranks[m] = i
		}
	}

	lit := make(map[string]int)
	for _, tok := range specials.all() {
		lit[tok] = ids[tok]
	}

	return &BPE{
		specialIDs: sids,
		ids:        ids,
		tokens:     tokens,
		ranks:      ranks,
		specials:   newSpecialMatcher(lit),
	}, nil
}

// Size implements Vocabulary.
func (b *BPE) Size() int { return len(b.tokens) }

// Encode implements Vocabulary.
func (b *BPE) Encode(text string) []int {
	var out []int
	for _, seg := range b.specials.split(text) {
		if seg.id >= 0 {
			out = append(out, seg.id)
			continue
		}
		for _, word := range pretokenize(seg.text) {
			var sb strings.Builder
			for i := 0; i < len(word); i++ {
				sb.WriteRune(byteToRune[word[i]])
			}
			for _, piece := range b.merge(sb.String()) {
				if id, ok := b.ids[piece]; ok {
					out = append(out, id)
				} else {
					out = append(out, b.unk)
				}
			}
		}
	}
	return out
}

// Decode implements Vocabulary.
func (b *BPE) Decode(id int) string {
	if id < 0 || id >= len(b.tokens) {
		return ""
	}
	tok := b.tokens[id]
	if b.isSpecial(id) {
		return tok
	}
	buf := make([]byte, 0, len(tok))
	for _, r := range tok {
		if c, ok := runeToByte[r]; ok {
			buf = append(buf, c)
		}
	}
	return string(buf)
}

func (b *BPE) isSpecial(id int) bool {
	return id == b.mask || id == b.begin || id == b.end || id == b.pad || id == b.unk
}

// merge applies the lowest-ranked merge until none applies.
func (b *BPE) merge(word string) []string {
	parts := make([]string, 0, len(word))
	for _, r := range word {
		parts = append(parts, string(r))
	}
	for len(parts) > 1 {
		best, at := -1, -1
		for i := 0; i < len(parts)-1; i++ {
			if rank, ok := b.ranks[[2]string{parts[i], parts[i+1]}]; ok && (best < 0 || rank < best) {
				best, at = rank, i
			}
		}
		if at < 0 {
			break
		}
		left, right := parts[at], parts[at+1]
		merged := parts[:0:0]
		for i := 0; i < len(parts); i++ {
			if i < len(parts)-1 && parts[i] == left && parts[i+1] == right {
				merged = append(merged, left+right)
				i++
				continue
			}
			merged = append(merged, parts[i])
		}
		parts = merged
	}
	return parts
}

var contractions = []string{"'s", "'t", "'re", "'ve", "'m", "'ll", "'d"}

// pretokenize splits text the way GPT-2's pattern does:
//
//	's|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+
func pretokenize(text string) []string {
	rs := []rune(text)
	var out []string
	for i := 0; i < len(rs); {
		rest := string(rs[i:])
		if matched := matchContraction(rest); matched != "" {
			out = append(out, matched)
			i += len([]rune(matched))
			continue
		}

		j := i
		if rs[j] == ' ' && j+1 < len(rs) && !unicode.IsSpace(rs[j+1]) {
			j++
		}
		if !unicode.IsSpace(rs[j]) {
			class := runeClass(rs[j])
			k := j
			for k < len(rs) && !unicode.IsSpace(rs[k]) && runeClass(rs[k]) == class {
				k++
			}
			out = append(out, string(rs[i:k]))
			i = k
			continue
		}

		k := i
		for k < len(rs) && unicode.IsSpace(rs[k]) {
			k++
		}
		// leave the last space to prefix the following word
		if k < len(rs) && k-i > 1 {
			k--
		}
		out = append(out, string(rs[i:k]))
		i = k
	}
	return out
}

func matchContraction(s string) string {
	for _, c := range contractions {
		if strings.HasPrefix(s, c) {
			return c
		}
	}
	return ""
}

const (
	classLetter = iota
	classNumber
	classOther
)

func runeClass(r rune) int {
	switch {
	case unicode.IsLetter(r):
		return classLetter
	case unicode.IsNumber(r):
		return classNumber
	default:
		return classOther
	}
}
