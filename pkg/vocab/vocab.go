// Package vocab is the sub-tokenizer half of the masked-language model. It maps
// text to model ids and back, and knows the special ids the encoder needs.
//
// Two on-disk formats are supported, both in the layout HuggingFace ships:
//
//   - "bpe": byte-level BPE (vocab.json + merges.txt), used by RoBERTa-family
//     code models such as CodeBERT and GraphCodeBERT.
//   - "wordpiece": BERT-style vocab.txt, one token per line, id = line index.
//
// A loaded Vocabulary is read-only and safe for concurrent use.
package vocab

import (
	"fmt"
	"strings"
)

// Vocabulary converts between text and ids.
type Vocabulary interface {
	// Encode sub-tokenizes text without adding boundary markers.
	Encode(text string) []int
	// Decode renders a single id back to text.
	Decode(id int) string
	MaskID() int
	BeginID() int
	EndID() int
	PadID() int
	// Size is the number of ids, i.e. the width of a logits row.
	Size() int
}

// Format names an on-disk vocabulary layout.
type Format string

const (
	FormatBPE       Format = "bpe"
	FormatWordPiece Format = "wordpiece"
)

// ParseFormat validates a configured format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatBPE, FormatWordPiece:
		return f, nil
	case "":
		return FormatBPE, nil
	default:
		return "", fmt.Errorf("unknown vocabulary format %q", name)
	}
}

// Files lists what a format reads from its directory.
func (f Format) Files() []string {
	if f == FormatWordPiece {
		return []string{"vocab.txt"}
	}
	return []string{"vocab.json", "merges.txt"}
}

// Specials names the marker tokens. Empty fields fall back to the format's
// conventional spelling.
type Specials struct {
	Mask  string `toml:"mask_token"`
	Begin string `toml:"begin_token"`
	End   string `toml:"end_token"`
	Pad   string `toml:"pad_token"`
	Unk   string `toml:"unk_token"`
}

func (s Specials) withDefaults(format Format) Specials {
	def := Specials{Mask: "<mask>", Begin: "<s>", End: "</s>", Pad: "<pad>", Unk: "<unk>"}
	if format == FormatWordPiece {
		def = Specials{Mask: "[MASK]", Begin: "[CLS]", End: "[SEP]", Pad: "[PAD]", Unk: "[UNK]"}
	}
	if s.Mask == "" {
		s.Mask = def.Mask
	}
	if s.Begin == "" {
		s.Begin = def.Begin
	}
	if s.End == "" {
		s.End = def.End
	}
	if s.Pad == "" {
		s.Pad = def.Pad
	}
	if s.Unk == "" {
		s.Unk = def.Unk
	}
	return s
}

func (s Specials) all() []string {
	return []string{s.Mask, s.Begin, s.End, s.Pad, s.Unk}
}

// Load reads the vocabulary stored in dir.
func Load(format Format, dir string, specials Specials) (Vocabulary, error) {
	switch format {
	case FormatWordPiece:
		return LoadWordPiece(dir, specials)
	case FormatBPE, "":
		return LoadBPE(dir, specials)
	default:
		return nil, fmt.Errorf("unknown vocabulary format %q", format)
	}
}

// specialIDs resolves the marker spellings against a token table.
type specialIDs struct {
	mask, begin, end, pad, unk int
}

func resolveSpecials(ids map[string]int, s Specials) (specialIDs, error) {
	var out specialIDs
	lookups := []struct {
		tok string
		dst *int
	}{
		{s.Mask, &out.mask},
		{s.Begin, &out.begin},
		{s.End, &out.end},
		{s.Pad, &out.pad},
		{s.Unk, &out.unk},
	}
	for _, l := range lookups {
		id, ok := ids[l.tok]
		if !ok {
			return out, fmt.Errorf("special token %q is not in the vocabulary", l.tok)
		}
		*l.dst = id
	}
	return out, nil
}

func (s specialIDs) MaskID() int  { return s.mask }
func (s specialIDs) BeginID() int { return s.begin }
func (s specialIDs) EndID() int   { return s.end }
func (s specialIDs) PadID() int   { return s.pad }
