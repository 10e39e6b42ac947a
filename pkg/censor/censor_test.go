package censor

import (
	"strings"
	"testing"
)

func TestApplyMasksWholeWords(t *testing.T) {
	f := New()

	got, changed := f.Apply("oh damn that hurt")
	if !changed {
		t.Fatal("expected filter to report a change")
	}
	if got != "oh *** that hurt" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestApplyIsCaseInsensitive(t *testing.T) {
	f := New()

	got, changed := f.Apply("DAMN Damn dAmN")
	if !changed {
		t.Fatal("expected filter to report a change")
	}
	if got != "*** *** ***" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestApplyRespectsWordBoundaries(t *testing.T) {
	f := New()

	// "hell" yasaklı ama "hello" değil.
	got, changed := f.Apply("hello from hell")
	if !changed {
		t.Fatal("expected filter to report a change")
	}
	if got != "hello from ***" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestApplyLeavesCleanTextAlone(t *testing.T) {
	f := New()

	in := "a perfectly polite sentence"
	got, changed := f.Apply(in)
	if changed {
		t.Fatal("filter reported a change on clean text")
	}
	if got != in {
		t.Fatalf("clean text was altered: %q", got)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	f := New()

	inputs := []string{
		"damn it all to hell",
		"clean text",
		"",
		"stupid STUPID stupidity",
	}
	for _, in := range inputs {
		once, _ := f.Apply(in)
		twice, changed := f.Apply(once)
		if twice != once {
			t.Fatalf("Apply not idempotent for %q: %q != %q", in, twice, once)
		}
		if changed {
			t.Fatalf("second Apply reported a change for %q", in)
		}
	}
}

func TestNewAcceptsExtraWords(t *testing.T) {
	f := New("Banana", " banana ", "")

	got, changed := f.Apply("i hate banana bread")
	if !changed {
		t.Fatal("extra word was not applied")
	}
	if got != "i hate *** bread" {
		t.Fatalf("unexpected result: %q", got)
	}

	// Tekrar ve boş girdiler tek bir kelimeye inmeli.
	count := 0
	for _, w := range f.Words() {
		if w == "banana" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected banana once in word list, got %d", count)
	}
}

func TestMaskContainsNoDeniedWord(t *testing.T) {
	f := New()
	for _, w := range f.Words() {
		if strings.Contains(strings.ToLower(Mask), w) {
			t.Fatalf("mask %q contains denied word %q", Mask, w)
		}
	}
}
