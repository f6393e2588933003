// Package subtitle parses, filters, and tokenizes SRT subtitle files.
package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Cue is a single subtitle entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Duration returns how long the cue is displayed.
func (c Cue) Duration() time.Duration {
	return c.End - c.Start
}

const utf8BOM = "\uFEFF"

// Parse reads SRT cues from r. It is tolerant of real-world files: BOM,
// CRLF line endings, missing index lines, and blank runs between blocks.
// Blocks with malformed timestamps are skipped rather than failing the file.
func Parse(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cues []Cue
	var block []string

	flush := func() {
		if cue, ok := parseBlock(block); ok {
			cues = append(cues, cue)
		}
		block = block[:0]
	}

	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			line = strings.TrimPrefix(line, utf8BOM)
			first = false
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subtitle data: %w", err)
	}
	flush()

	return cues, nil
}

// parseBlock converts one newline-separated block into a cue.
func parseBlock(lines []string) (Cue, bool) {
	if len(lines) == 0 {
		return Cue{}, false
	}

	var cue Cue
	i := 0

	// Optional numeric index line
	if n, err := strconv.Atoi(strings.TrimSpace(lines[i])); err == nil {
		cue.Index = n
		i++
	}
	if i >= len(lines) {
		return Cue{}, false
	}

	start, end, err := parseTimecodes(lines[i])
	if err != nil {
		return Cue{}, false
	}
	cue.Start, cue.End = start, end
	i++

	cue.Text = strings.TrimSpace(strings.Join(lines[i:], "\n"))
	if cue.Text == "" {
		return Cue{}, false
	}
	return cue, true
}

func parseTimecodes(line string) (start, end time.Duration, err error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("missing --> separator in %q", line)
	}

	start, err = parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	// Position hints ("X1:... X2:...") may follow the end timestamp
	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp in %q", line)
	}
	end, err = parseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("end before start in %q", line)
	}
	return start, end, nil
}

// parseTimestamp parses "HH:MM:SS,mmm". A period as the millisecond
// separator is accepted too.
func parseTimestamp(s string) (time.Duration, error) {
	s = strings.ReplaceAll(s, ".", ",")
	main, millis, ok := strings.Cut(s, ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	clock := strings.Split(main, ":")
	if len(clock) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	h, err := strconv.Atoi(clock[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q", s)
	}
	m, err := strconv.Atoi(clock[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q", s)
	}
	sec, err := strconv.Atoi(clock[2])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q", s)
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, fmt.Errorf("invalid milliseconds in %q", s)
	}
	if m > 59 || sec > 59 || ms > 999 || h < 0 || m < 0 || sec < 0 || ms < 0 {
		return 0, fmt.Errorf("timestamp out of range %q", s)
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// Write renders cues as a valid SRT document. Indices are renumbered from 1.
func Write(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for i, cue := range cues {
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return fmt.Errorf("failed to write subtitle data: %w", err)
			}
		}
		_, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n",
			i+1, formatTimestamp(cue.Start), formatTimestamp(cue.End), cue.Text)
		if err != nil {
			return fmt.Errorf("failed to write subtitle data: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write subtitle data: %w", err)
	}
	return nil
}

func formatTimestamp(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
