package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/modelmanager"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/subtitle"
)

// --- fakes ---

type fakeTranscriber struct {
	segments []domain.Segment
	err      error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, language string) ([]domain.Segment, error) {
	return f.segments, f.err
}

type fakeLemmatizer struct {
	err error
}

func (f *fakeLemmatizer) Lemmatize(ctx context.Context, text, language string) ([]domain.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	var tokens []domain.Token
	for _, word := range strings.Fields(strings.ToLower(text)) {
		tokens = append(tokens, domain.Token{Surface: word, Lemma: word, PartOfSpeech: "NOUN"})
	}
	return tokens, nil
}

type fakeTranslator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "en:" + text, nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) key(text, source, target string) string {
	return source + ":" + target + ":" + text
}

func (c *memoryCache) Get(ctx context.Context, text, source, target string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[c.key(text, source, target)]
	return v, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, text, source, target, translation string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(text, source, target)] = translation
	return nil
}

func staticLoader(instance any) modelmanager.Loader {
	return func(ctx context.Context) (any, error) {
		return instance, nil
	}
}

func newTestManager(t *testing.T, transcriber domain.Transcriber, translator domain.Translator, lemmatizer domain.Lemmatizer) *modelmanager.Manager {
	t.Helper()
	m := modelmanager.New(clockwork.NewRealClock())
	if transcriber != nil {
		m.Register(modelmanager.ClassTranscription, staticLoader(transcriber), modelmanager.SlotOptions{})
	}
	if translator != nil {
		m.Register(modelmanager.ClassTranslation, staticLoader(translator), modelmanager.SlotOptions{})
	}
	if lemmatizer != nil {
		m.Register(modelmanager.ClassNLP, staticLoader(lemmatizer), modelmanager.SlotOptions{})
	}
	return m
}

func germanCues() []subtitle.Cue {
	return []subtitle.Cue{
		{Index: 1, Start: 0, End: 2 * time.Second, Text: "Der Hund beißt"},
		{Index: 2, Start: 2 * time.Second, End: 4 * time.Second, Text: "Der Baum fällt"},
	}
}

// --- step tests ---

func TestTranscribe_ProducesCues(t *testing.T) {
	transcriber := &fakeTranscriber{segments: []domain.Segment{
		{Start: 0, End: time.Second, Text: " Hallo Welt "},
		{Start: time.Second, End: 2 * time.Second, Text: "Wie geht es dir"},
	}}
	m := newTestManager(t, transcriber, nil, nil)

	job := NewJob("episode1.mp4", "de", "en")
	job.AudioPath = "/media/episode1.wav"

	step := Transcribe{Models: m}
	require.NoError(t, step.Run(context.Background(), job))

	require.Len(t, job.Cues, 2)
	assert.Equal(t, 1, job.Cues[0].Index)
	assert.Equal(t, "Hallo Welt", job.Cues[0].Text)
	assert.Equal(t, 2*time.Second, job.Cues[1].End)
}

func TestTranscribe_SkipsWithoutAudio(t *testing.T) {
	m := newTestManager(t, nil, nil, nil) // no model registered at all

	job := NewJob("episode1.srt", "de", "en")
	job.Cues = germanCues()

	require.NoError(t, Transcribe{Models: m}.Run(context.Background(), job))
	assert.Len(t, job.Cues, 2)
}

func TestTranscribe_ModelError(t *testing.T) {
	wantErr := errors.New("gpu on fire")
	m := newTestManager(t, &fakeTranscriber{err: wantErr}, nil, nil)

	job := NewJob("episode1.mp4", "de", "en")
	job.AudioPath = "/media/episode1.wav"

	err := Transcribe{Models: m}.Run(context.Background(), job)
	assert.ErrorIs(t, err, wantErr)
}

func TestFilterCues_AppliesChain(t *testing.T) {
	job := NewJob("episode1.srt", "de", "en")
	job.Cues = []subtitle.Cue{
		{Index: 1, Start: 0, End: time.Second, Text: "<i>Der Hund</i>"},
		{Index: 2, Start: time.Second, End: 2 * time.Second, Text: "[Tür knallt]"},
		{Index: 3, Start: 2 * time.Second, End: 3 * time.Second, Text: "♪ la la la ♪"},
	}

	require.NoError(t, FilterCues{Chain: subtitle.DefaultChain()}.Run(context.Background(), job))

	require.Len(t, job.Cues, 1)
	assert.Equal(t, "Der Hund", job.Cues[0].Text)
}

func TestLemmatize_StoresTokens(t *testing.T) {
	m := newTestManager(t, nil, nil, &fakeLemmatizer{})

	job := NewJob("episode1.srt", "de", "en")
	job.Cues = germanCues()

	require.NoError(t, Lemmatize{Models: m}.Run(context.Background(), job))

	require.Len(t, job.Lemmas, 6)
	assert.Equal(t, "der", job.Lemmas[0].Lemma)
	assert.Equal(t, "fällt", job.Lemmas[5].Lemma)
}

// casedLemmatizer mimics taggers that keep the original casing and
// occasionally pad their lemmas.
type casedLemmatizer struct{}

func (casedLemmatizer) Lemmatize(ctx context.Context, text, language string) ([]domain.Token, error) {
	return []domain.Token{
		{Surface: "Hunde", Lemma: " Hund ", PartOfSpeech: "NOUN"},
		{Surface: "beißt", Lemma: "BEISSEN", PartOfSpeech: "VERB"},
	}, nil
}

func TestLemmatize_NormalizesLemmas(t *testing.T) {
	m := newTestManager(t, nil, nil, casedLemmatizer{})

	job := NewJob("episode1.srt", "de", "en")
	job.Cues = germanCues()

	require.NoError(t, Lemmatize{Models: m}.Run(context.Background(), job))

	require.Len(t, job.Lemmas, 2)
	assert.Equal(t, "hund", job.Lemmas[0].Lemma)
	assert.Equal(t, "beissen", job.Lemmas[1].Lemma)
	// Surfaces keep their original casing
	assert.Equal(t, "Hunde", job.Lemmas[0].Surface)
}

func TestLemmatize_EmptyTextSkipsModel(t *testing.T) {
	m := newTestManager(t, nil, nil, nil) // acquiring would fail

	job := NewJob("empty.srt", "de", "en")
	require.NoError(t, Lemmatize{Models: m}.Run(context.Background(), job))
	assert.Empty(t, job.Lemmas)
}

func TestExtractVocabulary_CountsAndFilters(t *testing.T) {
	job := NewJob("episode1.srt", "de", "en")
	job.Lemmas = []domain.Token{
		{Surface: "Der", Lemma: "der", PartOfSpeech: "DET"},
		{Surface: "Hund", Lemma: "Hund", PartOfSpeech: "NOUN"},
		{Surface: "beißt", Lemma: "beißen", PartOfSpeech: "VERB"},
		{Surface: "den", Lemma: "der", PartOfSpeech: "DET"},
		{Surface: "Hund", Lemma: "Hund", PartOfSpeech: "NOUN"},
		{Surface: ".", Lemma: ".", PartOfSpeech: "PUNCT"},
	}

	require.NoError(t, ExtractVocabulary{}.Run(context.Background(), job))

	require.Len(t, job.Items, 2)
	assert.Equal(t, "hund", job.Items[0].Lemma)
	assert.Equal(t, 2, job.Items[0].Frequency)
	assert.Equal(t, "beißen", job.Items[1].Lemma)
	assert.Equal(t, 1, job.Items[1].Frequency)
}

func TestJob_ContentLemmas(t *testing.T) {
	job := NewJob("episode1.srt", "de", "en")
	job.Lemmas = []domain.Token{
		{Surface: "Der", Lemma: "der", PartOfSpeech: "DET"},
		{Surface: "Hund", Lemma: "hund", PartOfSpeech: "NOUN"},
		{Surface: ".", Lemma: ".", PartOfSpeech: "PUNCT"},
		{Surface: "Hund", Lemma: "hund", PartOfSpeech: "NOUN"},
		{Surface: "bellt", Lemma: "bellen", PartOfSpeech: "VERB"},
		{Surface: "", Lemma: "", PartOfSpeech: "NOUN"},
	}

	assert.Equal(t, []string{"hund", "hund", "bellen"}, job.ContentLemmas())
}

func TestTranslate_CacheMissThenHit(t *testing.T) {
	translator := &fakeTranslator{}
	cache := newMemoryCache()
	m := newTestManager(t, nil, translator, nil)

	job := NewJob("episode1.srt", "de", "en")
	job.Items = []domain.VocabularyItem{
		{Lemma: "hund", Frequency: 2},
		{Lemma: "beißen", Frequency: 1},
	}

	step := Translate{Models: m, Cache: cache}
	require.NoError(t, step.Run(context.Background(), job))

	assert.Equal(t, "en:hund", job.Items[0].Translation)
	assert.Equal(t, "en:beißen", job.Items[1].Translation)
	assert.Equal(t, 2, translator.calls)

	// Second run resolves from cache without touching the model.
	job2 := NewJob("episode2.srt", "de", "en")
	job2.Items = []domain.VocabularyItem{{Lemma: "hund", Frequency: 1}}
	require.NoError(t, step.Run(context.Background(), job2))

	assert.Equal(t, "en:hund", job2.Items[0].Translation)
	assert.Equal(t, 2, translator.calls)
}

type failingSetCache struct {
	*memoryCache
}

func (c *failingSetCache) Set(ctx context.Context, text, source, target, translation string) error {
	return errors.New("redis down")
}

func TestTranslate_CacheWriteFailureDoesNotFailRun(t *testing.T) {
	translator := &fakeTranslator{}
	m := newTestManager(t, nil, translator, nil)

	job := NewJob("episode1.srt", "de", "en")
	job.Items = []domain.VocabularyItem{{Lemma: "hund"}, {Lemma: "baum"}}

	step := Translate{Models: m, Cache: &failingSetCache{newMemoryCache()}}
	require.NoError(t, step.Run(context.Background(), job))

	assert.Equal(t, "en:hund", job.Items[0].Translation)
	assert.Equal(t, "en:baum", job.Items[1].Translation)
	assert.Equal(t, 2, translator.calls)
}

func TestTranslate_ModelError(t *testing.T) {
	wantErr := errors.New("model gone")
	m := newTestManager(t, nil, &fakeTranslator{err: wantErr}, nil)

	job := NewJob("episode1.srt", "de", "en")
	job.Items = []domain.VocabularyItem{{Lemma: "hund"}}

	err := Translate{Models: m, Cache: newMemoryCache()}.Run(context.Background(), job)
	assert.ErrorIs(t, err, wantErr)
}

// --- pipeline tests ---

type namedStep struct {
	name string
	fn   func(ctx context.Context, job *Job) error
}

func (s namedStep) Name() string { return s.name }

func (s namedStep) Run(ctx context.Context, job *Job) error { return s.fn(ctx, job) }

func TestPipeline_RunsStepsInOrder(t *testing.T) {
	var order []string
	record := func(name string) Step {
		return namedStep{name: name, fn: func(ctx context.Context, job *Job) error {
			order = append(order, name)
			return nil
		}}
	}

	p := New(clockwork.NewRealClock(), record("one"), record("two"), record("three"))
	job := NewJob("x.srt", "de", "en")
	require.NoError(t, p.Run(context.Background(), job))

	assert.Equal(t, []string{"one", "two", "three"}, order)
	assert.Contains(t, job.StepDurations, "two")
}

func TestPipeline_StopsOnError(t *testing.T) {
	wantErr := errors.New("boom")
	var ranLast bool

	p := New(clockwork.NewRealClock(),
		namedStep{name: "fails", fn: func(ctx context.Context, job *Job) error { return wantErr }},
		namedStep{name: "never", fn: func(ctx context.Context, job *Job) error { ranLast = true; return nil }},
	)

	err := p.Run(context.Background(), NewJob("x.srt", "de", "en"))
	require.ErrorIs(t, err, wantErr)
	assert.Contains(t, err.Error(), "step fails")
	assert.False(t, ranLast)
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(clockwork.NewRealClock(),
		namedStep{name: "any", fn: func(ctx context.Context, job *Job) error { return nil }},
	)

	err := p.Run(ctx, NewJob("x.srt", "de", "en"))
	assert.ErrorIs(t, err, context.Canceled)
}

// Full run: SRT text in, translated vocabulary out.
func TestPipeline_EndToEnd(t *testing.T) {
	m := newTestManager(t, nil, &fakeTranslator{}, &fakeLemmatizer{})

	p := New(clockwork.NewRealClock(),
		FilterCues{Chain: subtitle.DefaultChain()},
		Lemmatize{Models: m},
		ExtractVocabulary{},
		Translate{Models: m, Cache: newMemoryCache()},
	)

	job := NewJob("episode1.srt", "de", "en")
	job.Cues = []subtitle.Cue{
		{Index: 1, Start: 0, End: 2 * time.Second, Text: "<i>hund hund baum</i>"},
		{Index: 2, Start: 2 * time.Second, End: 3 * time.Second, Text: "[Musik]"},
	}

	require.NoError(t, p.Run(context.Background(), job))

	require.Len(t, job.Items, 2)
	assert.Equal(t, "hund", job.Items[0].Lemma)
	assert.Equal(t, 2, job.Items[0].Frequency)
	assert.Equal(t, "en:hund", job.Items[0].Translation)
	assert.Equal(t, "en:baum", job.Items[1].Translation)

	for _, name := range []string{"filter_cues", "lemmatize", "extract_vocabulary", "translate"} {
		assert.Contains(t, job.StepDurations, name, fmt.Sprintf("missing timing for %s", name))
	}
}
