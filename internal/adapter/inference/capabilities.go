package inference

import (
	"context"
	"time"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
)

var (
	_ domain.Transcriber = (*Transcriber)(nil)
	_ domain.Translator  = (*Translator)(nil)
	_ domain.Lemmatizer  = (*Lemmatizer)(nil)
)

// Transcriber calls the speech-to-text sidecar.
type Transcriber struct {
	client *client
}

func NewTranscriber(baseURL string, timeout time.Duration) *Transcriber {
	return &Transcriber{client: newClient(baseURL, "transcription", timeout)}
}

type transcribeRequest struct {
	AudioPath string `json:"audio_path"`
	Language  string `json:"language"`
}

type transcribeResponse struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (t *Transcriber) Transcribe(ctx context.Context, audioPath, language string) ([]domain.Segment, error) {
	var resp transcribeResponse
	req := transcribeRequest{AudioPath: audioPath, Language: language}
	if err := t.client.postJSON(ctx, "/transcribe", req, &resp); err != nil {
		return nil, err
	}

	segments := make([]domain.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, domain.Segment{
			Start: secondsToDuration(s.Start),
			End:   secondsToDuration(s.End),
			Text:  s.Text,
		})
	}
	return segments, nil
}

// Translator calls the translation sidecar.
type Translator struct {
	client *client
}

func NewTranslator(baseURL string, timeout time.Duration) *Translator {
	return &Translator{client: newClient(baseURL, "translation", timeout)}
}

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	Translation string `json:"translation"`
}

func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	var resp translateResponse
	req := translateRequest{Text: text, Source: source, Target: target}
	if err := t.client.postJSON(ctx, "/translate", req, &resp); err != nil {
		return "", err
	}
	return resp.Translation, nil
}

// Lemmatizer calls the POS tagging sidecar.
type Lemmatizer struct {
	client *client
}

func NewLemmatizer(baseURL string, timeout time.Duration) *Lemmatizer {
	return &Lemmatizer{client: newClient(baseURL, "nlp", timeout)}
}

type analyzeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type analyzeResponse struct {
	Tokens []struct {
		Surface string `json:"surface"`
		Lemma   string `json:"lemma"`
		POS     string `json:"pos"`
	} `json:"tokens"`
}

func (l *Lemmatizer) Lemmatize(ctx context.Context, text, language string) ([]domain.Token, error) {
	var resp analyzeResponse
	req := analyzeRequest{Text: text, Language: language}
	if err := l.client.postJSON(ctx, "/analyze", req, &resp); err != nil {
		return nil, err
	}

	tokens := make([]domain.Token, 0, len(resp.Tokens))
	for _, t := range resp.Tokens {
		tokens = append(tokens, domain.Token{Surface: t.Surface, Lemma: t.Lemma, PartOfSpeech: t.POS})
	}
	return tokens, nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
