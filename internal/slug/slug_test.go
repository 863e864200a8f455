package slug

import (
	"strings"
	"testing"
)

func TestBuild(t *testing.T) {
	got := Build("House", "Sell", "12 George St, Sydney NSW", "500000", "ab12cd34")
	want := "house-sell-12-george-st-sydney-nsw-500000-ab12cd34"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBuildSkipsEmptyParts(t *testing.T) {
	if got := Build("Land", "Rent", "", " ", "x1"); got != "land-rent-x1" {
		t.Fatalf("unexpected slug %q", got)
	}
}

func TestGenerateIsUnique(t *testing.T) {
	a := Generate("House", "Sell", "1 Main St", "100")
	b := Generate("House", "Sell", "1 Main St", "100")
	if a == b {
		t.Fatalf("expected distinct slugs, both %q", a)
	}
	if !strings.HasPrefix(a, "house-sell-1-main-st-100-") {
		t.Fatalf("unexpected slug %q", a)
	}
}

func TestRandomSuffixLength(t *testing.T) {
	if s := RandomSuffix(); len(s) != SuffixLength {
		t.Fatalf("expected %d chars, got %q", SuffixLength, s)
	}
}
