// Package pipeline turns subtitle files into analysed vocabulary. Steps are
// composed into a Pipeline and each step depends on a narrow, role-specific
// view of the Job rather than the whole data holder.
package pipeline

import (
	"strings"
	"time"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/subtitle"
)

// Job is the full data holder for one processing run. Steps never receive
// it directly; they work through the view interfaces below.
type Job struct {
	Source     string
	AudioPath  string
	SourceLang string
	TargetLang string

	Cues   []subtitle.Cue
	Lemmas []domain.Token
	Items  []domain.VocabularyItem

	StepDurations map[string]time.Duration
}

// NewJob creates a job for the given source description and language pair.
func NewJob(source, sourceLang, targetLang string) *Job {
	return &Job{
		Source:        source,
		SourceLang:    sourceLang,
		TargetLang:    targetLang,
		StepDurations: make(map[string]time.Duration),
	}
}

// --- Role-specific views ---

// CueStore is the view for steps that rewrite the cue list.
type CueStore interface {
	SourceCues() []subtitle.Cue
	ReplaceCues([]subtitle.Cue)
}

// TextSource is the view for steps that analyse the spoken text.
type TextSource interface {
	SpokenText() string
	Language() string
}

// LemmaStore is the view for steps that produce or consume lemma tokens.
type LemmaStore interface {
	SetLemmas([]domain.Token)
	LemmaTokens() []domain.Token
}

// ItemStore is the view for steps that produce or enrich vocabulary items.
type ItemStore interface {
	SetItems([]domain.VocabularyItem)
	VocabularyItems() []domain.VocabularyItem
	LanguagePair() (source, target string)
}

// AudioSource is the view for the transcription step.
type AudioSource interface {
	Audio() (path, language string)
	ReplaceCues([]subtitle.Cue)
}

// --- Job implements every view ---

func (j *Job) SourceCues() []subtitle.Cue               { return j.Cues }
func (j *Job) ReplaceCues(cues []subtitle.Cue)          { j.Cues = cues }
func (j *Job) Language() string                         { return j.SourceLang }
func (j *Job) SetLemmas(tokens []domain.Token)          { j.Lemmas = tokens }
func (j *Job) LemmaTokens() []domain.Token              { return j.Lemmas }
func (j *Job) SetItems(items []domain.VocabularyItem)   { j.Items = items }
func (j *Job) VocabularyItems() []domain.VocabularyItem { return j.Items }
func (j *Job) LanguagePair() (string, string)           { return j.SourceLang, j.TargetLang }
func (j *Job) Audio() (string, string)                  { return j.AudioPath, j.SourceLang }

// SpokenText joins all cue texts into one newline-separated document.
func (j *Job) SpokenText() string {
	texts := make([]string, 0, len(j.Cues))
	for _, cue := range j.Cues {
		texts = append(texts, cue.Text)
	}
	return strings.Join(texts, "\n")
}

// ContentLemmas returns the lemma of every content-word token in text order.
// Function words and punctuation carry no vocabulary worth grading, so they
// are excluded from coverage.
func (j *Job) ContentLemmas() []string {
	lemmas := make([]string, 0, len(j.Lemmas))
	for _, token := range j.Lemmas {
		if token.Lemma == "" {
			continue
		}
		if _, skip := functionPOS[token.PartOfSpeech]; skip {
			continue
		}
		lemmas = append(lemmas, token.Lemma)
	}
	return lemmas
}
