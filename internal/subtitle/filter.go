package subtitle

import (
	"regexp"
	"strings"
	"time"
)

// Filter transforms a cue list. Filters are pure: they return a new slice
// and never mutate their input cues.
type Filter interface {
	Name() string
	Apply(cues []Cue) []Cue
}

// Chain applies filters in order.
type Chain []Filter

func (c Chain) Apply(cues []Cue) []Cue {
	for _, f := range c {
		cues = f.Apply(cues)
	}
	return cues
}

type filterFunc struct {
	name string
	fn   func([]Cue) []Cue
}

func (f filterFunc) Name() string           { return f.name }
func (f filterFunc) Apply(cues []Cue) []Cue { return f.fn(cues) }

var (
	tagPattern = regexp.MustCompile(`</?[a-zA-Z][^>]*>|\{\\?[^}]*\}`)
	// Bracketed sound descriptions and music markers carry no language
	// content worth learning.
	soundEffectPattern = regexp.MustCompile(`^[\[\(][^\]\)]*[\]\)]$`)
)

// StripFormatting removes HTML-style and ASS-style formatting tags from
// cue text.
func StripFormatting() Filter {
	return filterFunc{name: "strip_formatting", fn: func(cues []Cue) []Cue {
		out := make([]Cue, 0, len(cues))
		for _, cue := range cues {
			cue.Text = strings.TrimSpace(tagPattern.ReplaceAllString(cue.Text, ""))
			out = append(out, cue)
		}
		return out
	}}
}

// DropNonSpeech removes cues that are only sound-effect descriptions or
// music markers.
func DropNonSpeech() Filter {
	return filterFunc{name: "drop_non_speech", fn: func(cues []Cue) []Cue {
		out := make([]Cue, 0, len(cues))
		for _, cue := range cues {
			text := strings.TrimSpace(cue.Text)
			if strings.ContainsRune(text, '♪') || strings.ContainsRune(text, '♫') {
				continue
			}
			if soundEffectPattern.MatchString(text) {
				continue
			}
			out = append(out, cue)
		}
		return out
	}}
}

// DropEmpty removes cues whose text is empty after trimming.
func DropEmpty() Filter {
	return filterFunc{name: "drop_empty", fn: func(cues []Cue) []Cue {
		out := make([]Cue, 0, len(cues))
		for _, cue := range cues {
			if strings.TrimSpace(cue.Text) == "" {
				continue
			}
			out = append(out, cue)
		}
		return out
	}}
}

// MergeDuplicates merges consecutive cues with identical text into one cue
// spanning both time ranges. Scene-change re-renders produce these.
func MergeDuplicates() Filter {
	return filterFunc{name: "merge_duplicates", fn: func(cues []Cue) []Cue {
		out := make([]Cue, 0, len(cues))
		for _, cue := range cues {
			if n := len(out); n > 0 && out[n-1].Text == cue.Text {
				if cue.End > out[n-1].End {
					out[n-1].End = cue.End
				}
				continue
			}
			out = append(out, cue)
		}
		return out
	}}
}

// MinDuration removes cues displayed shorter than min. Flash cues are
// usually OCR noise.
func MinDuration(min time.Duration) Filter {
	return filterFunc{name: "min_duration", fn: func(cues []Cue) []Cue {
		out := make([]Cue, 0, len(cues))
		for _, cue := range cues {
			if cue.Duration() < min {
				continue
			}
			out = append(out, cue)
		}
		return out
	}}
}

// MaxDuration clamps cues displayed longer than max to end at start+max.
// Stuck cues from bad rips otherwise skew duration-based statistics.
func MaxDuration(max time.Duration) Filter {
	return filterFunc{name: "max_duration", fn: func(cues []Cue) []Cue {
		out := make([]Cue, 0, len(cues))
		for _, cue := range cues {
			if cue.Duration() > max {
				cue.End = cue.Start + max
			}
			out = append(out, cue)
		}
		return out
	}}
}

// DefaultChain is the standard cleanup applied before language analysis.
func DefaultChain() Chain {
	return Chain{
		StripFormatting(),
		DropNonSpeech(),
		DropEmpty(),
		MergeDuplicates(),
	}
}
