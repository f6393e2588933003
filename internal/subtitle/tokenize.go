package subtitle

import (
	"strings"
	"unicode"
)

// Tokenize splits cue text into lowercased word tokens. Letters (including
// umlauts and ß) and internal apostrophes/hyphens are kept; everything else
// separates tokens.
func Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder

	flush := func() {
		if b.Len() == 0 {
			return
		}
		token := strings.Trim(b.String(), "'-")
		if token != "" {
			tokens = append(tokens, token)
		}
		b.Reset()
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
		case r == '\'' || r == '-':
			if b.Len() > 0 {
				b.WriteRune(r)
			}
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// TokenizeCues tokenizes every cue and returns all running tokens in order.
func TokenizeCues(cues []Cue) []string {
	var tokens []string
	for _, cue := range cues {
		tokens = append(tokens, Tokenize(cue.Text)...)
	}
	return tokens
}
