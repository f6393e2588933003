package subtitle

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,500
Guten Morgen!

2
00:00:04,000 --> 00:00:06,000
Wie geht es dir
heute?

3
00:00:07,250 --> 00:00:08,750
Sehr gut, danke.
`

func TestParse_WellFormed(t *testing.T) {
	cues, err := Parse(strings.NewReader(sampleSRT))
	require.NoError(t, err)
	require.Len(t, cues, 3)

	assert.Equal(t, 1, cues[0].Index)
	assert.Equal(t, 1*time.Second, cues[0].Start)
	assert.Equal(t, 3500*time.Millisecond, cues[0].End)
	assert.Equal(t, "Guten Morgen!", cues[0].Text)

	// Multi-line text is preserved
	assert.Equal(t, "Wie geht es dir\nheute?", cues[1].Text)

	assert.Equal(t, 7250*time.Millisecond, cues[2].Start)
}

func TestParse_CRLFAndBOM(t *testing.T) {
	input := "\uFEFF1\r\n00:00:01,000 --> 00:00:02,000\r\nHallo Welt\r\n\r\n"
	cues, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cues, 1)
	assert.Equal(t, "Hallo Welt", cues[0].Text)
}

func TestParse_MissingIndexLine(t *testing.T) {
	input := "00:00:01,000 --> 00:00:02,000\nOhne Index\n"
	cues, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cues, 1)
	assert.Equal(t, 0, cues[0].Index)
	assert.Equal(t, "Ohne Index", cues[0].Text)
}

func TestParse_PeriodMillisecondSeparator(t *testing.T) {
	input := "1\n00:00:01.500 --> 00:00:02.500\nPunkt statt Komma\n"
	cues, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cues, 1)
	assert.Equal(t, 1500*time.Millisecond, cues[0].Start)
}

func TestParse_SkipsMalformedBlocks(t *testing.T) {
	input := `1
not a timestamp
Kaputt

2
00:00:04,000 --> 00:00:05,000
Noch da
`
	cues, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cues, 1)
	assert.Equal(t, "Noch da", cues[0].Text)
}

func TestParse_EndBeforeStartSkipped(t *testing.T) {
	input := "1\n00:00:05,000 --> 00:00:04,000\nZeitreise\n"
	cues, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, cues)
}

func TestParse_PositionHintsIgnored(t *testing.T) {
	input := "1\n00:00:01,000 --> 00:00:02,000 X1:100 X2:200\nMit Hinweisen\n"
	cues, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cues, 1)
	assert.Equal(t, 2*time.Second, cues[0].End)
}

func TestParse_Empty(t *testing.T) {
	cues, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, cues)
}

func TestWrite_RoundTrip(t *testing.T) {
	cues, err := Parse(strings.NewReader(sampleSRT))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cues))

	again, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, again, len(cues))
	for i := range cues {
		assert.Equal(t, cues[i].Start, again[i].Start)
		assert.Equal(t, cues[i].End, again[i].End)
		assert.Equal(t, cues[i].Text, again[i].Text)
	}
}

func TestWrite_Renumbers(t *testing.T) {
	cues := []Cue{
		{Index: 7, Start: time.Second, End: 2 * time.Second, Text: "Eins"},
		{Index: 9, Start: 3 * time.Second, End: 4 * time.Second, Text: "Zwei"},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cues))

	out, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Index)
	assert.Equal(t, 2, out[1].Index)
}
