package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/modelmanager"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/subtitle"
)

// Transcribe produces cues from an audio source via the transcription
// model. It is a no-op when the job already carries cues (an SRT upload).
type Transcribe struct {
	Models *modelmanager.Manager
}

func (s Transcribe) Name() string { return "transcribe" }

func (s Transcribe) Run(ctx context.Context, job *Job) error {
	return s.run(ctx, job)
}

func (s Transcribe) run(ctx context.Context, view AudioSource) error {
	path, language := view.Audio()
	if path == "" {
		return nil
	}

	return s.Models.With(ctx, modelmanager.ClassTranscription, func(instance any) error {
		transcriber, ok := instance.(domain.Transcriber)
		if !ok {
			return fmt.Errorf("transcription model does not implement Transcriber: %T", instance)
		}

		segments, err := transcriber.Transcribe(ctx, path, language)
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}

		cues := make([]subtitle.Cue, 0, len(segments))
		for i, seg := range segments {
			cues = append(cues, subtitle.Cue{
				Index: i + 1,
				Start: seg.Start,
				End:   seg.End,
				Text:  strings.TrimSpace(seg.Text),
			})
		}
		view.ReplaceCues(cues)
		return nil
	})
}

// FilterCues applies the subtitle cleanup chain.
type FilterCues struct {
	Chain subtitle.Chain
}

func (s FilterCues) Name() string { return "filter_cues" }

func (s FilterCues) Run(ctx context.Context, job *Job) error {
	return s.run(job)
}

func (s FilterCues) run(view CueStore) error {
	view.ReplaceCues(s.Chain.Apply(view.SourceCues()))
	return nil
}

// Lemmatize runs the NLP model over the spoken text and stores the
// analysed tokens. Lemmas are normalized to lowercase here, once, so every
// downstream consumer compares them against stored progress rows directly.
type Lemmatize struct {
	Models *modelmanager.Manager
}

func (s Lemmatize) Name() string { return "lemmatize" }

func (s Lemmatize) Run(ctx context.Context, job *Job) error {
	return s.run(ctx, job, job)
}

func (s Lemmatize) run(ctx context.Context, src TextSource, dst LemmaStore) error {
	text := src.SpokenText()
	if strings.TrimSpace(text) == "" {
		dst.SetLemmas(nil)
		return nil
	}

	return s.Models.With(ctx, modelmanager.ClassNLP, func(instance any) error {
		lemmatizer, ok := instance.(domain.Lemmatizer)
		if !ok {
			return fmt.Errorf("nlp model does not implement Lemmatizer: %T", instance)
		}

		tokens, err := lemmatizer.Lemmatize(ctx, text, src.Language())
		if err != nil {
			return fmt.Errorf("lemmatization failed: %w", err)
		}
		for i := range tokens {
			tokens[i].Lemma = strings.ToLower(strings.TrimSpace(tokens[i].Lemma))
		}
		dst.SetLemmas(tokens)
		return nil
	})
}

// functionPOS are part-of-speech tags that carry grammar, not vocabulary.
var functionPOS = map[string]struct{}{
	"PUNCT": {}, "SYM": {}, "NUM": {}, "SPACE": {}, "X": {},
	"DET": {}, "PRON": {}, "ADP": {}, "AUX": {}, "CCONJ": {},
	"SCONJ": {}, "PART": {},
}

// ExtractVocabulary turns analysed tokens into frequency-counted unique
// vocabulary items, skipping function words.
type ExtractVocabulary struct{}

func (s ExtractVocabulary) Name() string { return "extract_vocabulary" }

func (s ExtractVocabulary) Run(ctx context.Context, job *Job) error {
	return s.run(job, job)
}

func (s ExtractVocabulary) run(src LemmaStore, dst ItemStore) error {
	type entry struct {
		item  domain.VocabularyItem
		first int
	}
	seen := make(map[string]*entry)

	for i, token := range src.LemmaTokens() {
		lemma := strings.ToLower(strings.TrimSpace(token.Lemma))
		if lemma == "" {
			continue
		}
		if _, skip := functionPOS[token.PartOfSpeech]; skip {
			continue
		}

		if e, ok := seen[lemma]; ok {
			e.item.Frequency++
			continue
		}
		seen[lemma] = &entry{
			item: domain.VocabularyItem{
				Lemma:        lemma,
				Surface:      token.Surface,
				PartOfSpeech: token.PartOfSpeech,
				Frequency:    1,
			},
			first: i,
		}
	}

	entries := make([]*entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	// Most frequent first; ties keep text order
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].item.Frequency != entries[j].item.Frequency {
			return entries[i].item.Frequency > entries[j].item.Frequency
		}
		return entries[i].first < entries[j].first
	})

	items := make([]domain.VocabularyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.item)
	}
	dst.SetItems(items)
	return nil
}

// Translate fills in translations for vocabulary items through the
// translation cache, falling back to the translation model on a miss.
type Translate struct {
	Models *modelmanager.Manager
	Cache  domain.TranslationCache
}

func (s Translate) Name() string { return "translate" }

func (s Translate) Run(ctx context.Context, job *Job) error {
	return s.run(ctx, job)
}

func (s Translate) run(ctx context.Context, view ItemStore) error {
	items := view.VocabularyItems()
	if len(items) == 0 {
		return nil
	}
	source, target := view.LanguagePair()

	// Resolve cache hits first so the model is only acquired when needed.
	var misses []int
	for i := range items {
		translation, ok, err := s.Cache.Get(ctx, items[i].Lemma, source, target)
		if err != nil {
			return fmt.Errorf("translation cache get: %w", err)
		}
		if ok {
			items[i].Translation = translation
			continue
		}
		misses = append(misses, i)
	}

	if len(misses) == 0 {
		view.SetItems(items)
		return nil
	}

	err := s.Models.With(ctx, modelmanager.ClassTranslation, func(instance any) error {
		translator, ok := instance.(domain.Translator)
		if !ok {
			return fmt.Errorf("translation model does not implement Translator: %T", instance)
		}

		for _, i := range misses {
			translation, err := translator.Translate(ctx, items[i].Lemma, source, target)
			if err != nil {
				return fmt.Errorf("translate %q: %w", items[i].Lemma, err)
			}
			items[i].Translation = translation

			if err := s.Cache.Set(ctx, items[i].Lemma, source, target, translation); err != nil {
				// Cache write failures must not fail the run
				slog.Warn("Translation cache write failed", "lemma", items[i].Lemma, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	view.SetItems(items)
	return nil
}
