package caption

import (
	"strings"
	"testing"
)

const sampleSRT = `1
00:00:00,000 --> 00:00:01,830
I'm happy to
have you here today.

2
00:00:01,910 --> 00:00:03,610
As I'm sure you're all aware

3
00:00:03.700 --> 00:00:05.200
period separators work too
`

func TestParseBasic(t *testing.T) {
	captions := Parse(sampleSRT)
	if len(captions) != 3 {
		t.Fatalf("expected 3 captions, got %d", len(captions))
	}

	first := captions[0]
	if first.Text != "I'm happy to\nhave you here today." {
		t.Errorf("multi-line text joined wrong: %q", first.Text)
	}
	if first.StartMs != 0 || first.EndMs != 1830 {
		t.Errorf("expected [0, 1830], got [%d, %d]", first.StartMs, first.EndMs)
	}

	third := captions[2]
	if third.StartMs != 3700 || third.EndMs != 5200 {
		t.Errorf("period-separated timestamps: got [%d, %d]", third.StartMs, third.EndMs)
	}
}

func TestParseCRLF(t *testing.T) {
	crlf := strings.ReplaceAll(sampleSRT, "\n", "\r\n")
	captions := Parse(crlf)
	if len(captions) != 3 {
		t.Fatalf("expected 3 captions from CRLF input, got %d", len(captions))
	}
}

func TestParseSkipsMalformedBlocks(t *testing.T) {
	raw := `1
00:00:00,000 --> 00:00:01,000
valid one

2
not a timestamp
broken block

3
00:00:02,000 --> 00:00:03,000
valid two

4
00:00:04,000 --> 00:00:05,000

5
00:00:06,000

6
00:00:07,000 --> 00:00:06,000
end before start
`
	captions := Parse(raw)
	if len(captions) != 2 {
		t.Fatalf("expected 2 captions, got %d", len(captions))
	}
	if captions[0].Text != "valid one" || captions[1].Text != "valid two" {
		t.Errorf("wrong captions survived: %+v", captions)
	}
}

func TestParseHourConversion(t *testing.T) {
	raw := `1
01:02:03,456 --> 01:02:04,000
late caption
`
	captions := Parse(raw)
	if len(captions) != 1 {
		t.Fatalf("expected 1 caption, got %d", len(captions))
	}
	want := int64(1*3_600_000 + 2*60_000 + 3*1_000 + 456)
	if captions[0].StartMs != want {
		t.Errorf("expected start %d, got %d", want, captions[0].StartMs)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "\n\n\n", "garbage without structure"} {
		if captions := Parse(raw); len(captions) != 0 {
			t.Errorf("expected no captions for %q, got %d", raw, len(captions))
		}
	}
}

func TestParsedCaptionsAreWellFormed(t *testing.T) {
	for _, c := range Parse(sampleSRT) {
		if c.EndMs <= c.StartMs {
			t.Errorf("caption %q has end %d <= start %d", c.Text, c.EndMs, c.StartMs)
		}
		if strings.TrimSpace(c.Text) == "" {
			t.Errorf("caption with empty text at %d", c.StartMs)
		}
	}
}
