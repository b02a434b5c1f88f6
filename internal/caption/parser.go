// Package caption decodes raw subtitle file text into the canonical timed
// caption sequence stored with a lesson. Parsing is best-effort: malformed
// blocks are skipped, never surfaced as errors.
package caption

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jlightning/polyglot-io-sub000/internal/models"
)

//	1
//	00:00:00,000 --> 00:00:01,830
//	I'm happy to
//	have you here today.
//
//	2
//	00:00:01.910 --> 00:00:03.610
//	As I'm sure you're all aware...

var (
	timestampRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})[,.](\d{3})$`)
	blankLineRe = regexp.MustCompile(`\n[ \t]*\n+`)
)

// Parse decodes subtitle text into captions in file order. Blocks missing a
// timestamp line, with an unparsable timestamp, with empty text, or with a
// non-positive duration are dropped; the rest of the file still parses.
func Parse(raw string) []models.Caption {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var captions []models.Caption
	for _, block := range blankLineRe.Split(raw, -1) {
		lines := make([]string, 0, 4)
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
		// Need at least a sequence line and a timestamp line.
		if len(lines) < 2 {
			continue
		}

		m := timestampRe.FindStringSubmatch(lines[1])
		if m == nil {
			continue
		}
		startMs := decodeMs(m[1], m[2], m[3], m[4])
		endMs := decodeMs(m[5], m[6], m[7], m[8])
		if endMs <= startMs {
			continue
		}

		text := strings.TrimSpace(strings.Join(lines[2:], "\n"))
		if text == "" {
			continue
		}

		captions = append(captions, models.Caption{
			Text:    text,
			StartMs: startMs,
			EndMs:   endMs,
		})
	}

	return captions
}

func decodeMs(h, m, s, ms string) int64 {
	hours, _ := strconv.ParseInt(h, 10, 64)
	minutes, _ := strconv.ParseInt(m, 10, 64)
	seconds, _ := strconv.ParseInt(s, 10, 64)
	millis, _ := strconv.ParseInt(ms, 10, 64)
	return hours*3_600_000 + minutes*60_000 + seconds*1_000 + millis
}
