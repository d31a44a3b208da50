package tokenizer

import (
	"strings"
	"unicode"
)

// PunctuationMode selects how punctuation inside whitespace fields is
// treated during tokenization.
type PunctuationMode int

const (
	// KeepPunctuation leaves fields untouched; tokens are exactly the
	// whitespace-separated fields of the input.
	KeepPunctuation PunctuationMode = iota

	// SplitPunctuation turns every punctuation character into a token of
	// its own.
	SplitPunctuation

	// DropPunctuation removes punctuation characters from fields. Fields
	// consisting purely of punctuation produce no token.
	DropPunctuation
)

// Tokenizer splits raw text into corpus tokens. The zero value lowercases
// the input and splits on whitespace, which is the form the rest of this
// module expects a corpus in.
type Tokenizer struct {
	// Punctuation selects how punctuation is treated.
	Punctuation PunctuationMode

	// PreserveCase, if true, keeps the original casing instead of
	// lowercasing every field.
	PreserveCase bool
}

// Tokenize produces the token stream for text.
func (t *Tokenizer) Tokenize(text string) []string {
	var out []string
	for _, field := range strings.Fields(text) {
		if !t.PreserveCase {
			field = strings.ToLower(field)
		}
		out = appendField(out, t.Punctuation, field)
	}
	return out
}

func appendField(out []string, mode PunctuationMode, field string) []string {
	switch mode {
	case SplitPunctuation:
		var cur strings.Builder
		for _, r := range field {
			if unicode.IsPunct(r) {
				if cur.Len() > 0 {
					out = append(out, cur.String())
					cur.Reset()
				}
				out = append(out, string(r))
				continue
			}
			cur.WriteRune(r)
		}
		if cur.Len() > 0 {
			out = append(out, cur.String())
		}
		return out
	case DropPunctuation:
		var cur strings.Builder
		for _, r := range field {
			if !unicode.IsPunct(r) {
				cur.WriteRune(r)
			}
		}
		if cur.Len() > 0 {
			out = append(out, cur.String())
		}
		return out
	default:
		return append(out, field)
	}
}
