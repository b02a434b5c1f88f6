package caption

import (
	"reflect"
	"testing"

	"github.com/jlightning/polyglot-io-sub000/internal/models"
)

func TestNormalizeMergesAdjacentDuplicates(t *testing.T) {
	in := []models.Caption{
		{Text: "a", StartMs: 0, EndMs: 1000},
		{Text: "a", StartMs: 900, EndMs: 2000},
		{Text: "b", StartMs: 2000, EndMs: 3000},
	}

	want := []models.Caption{
		{Text: "a", StartMs: 0, EndMs: 2000},
		{Text: "b", StartMs: 2000, EndMs: 3000},
	}

	got := Normalize(in)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestNormalizeSortsByStart(t *testing.T) {
	in := []models.Caption{
		{Text: "second", StartMs: 5000, EndMs: 6000},
		{Text: "first", StartMs: 1000, EndMs: 2000},
	}

	got := Normalize(in)
	if got[0].Text != "first" || got[1].Text != "second" {
		t.Fatalf("not sorted by start: %+v", got)
	}
}

func TestNormalizeKeepsSeparatedDuplicates(t *testing.T) {
	in := []models.Caption{
		{Text: "a", StartMs: 0, EndMs: 1000},
		{Text: "b", StartMs: 1000, EndMs: 2000},
		{Text: "a", StartMs: 2000, EndMs: 3000},
	}

	got := Normalize(in)
	if len(got) != 3 {
		t.Fatalf("duplicates separated by other text must not merge, got %+v", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := []models.Caption{
		{Text: "a", StartMs: 900, EndMs: 2000},
		{Text: "a", StartMs: 0, EndMs: 1000},
		{Text: "b", StartMs: 2000, EndMs: 3000},
		{Text: "b", StartMs: 2500, EndMs: 3500},
	}

	once := Normalize(in)
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalize not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Fatalf("expected empty output, got %+v", got)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := []models.Caption{
		{Text: "b", StartMs: 2000, EndMs: 3000},
		{Text: "a", StartMs: 0, EndMs: 1000},
	}
	Normalize(in)
	if in[0].Text != "b" {
		t.Fatal("input slice reordered")
	}
}
