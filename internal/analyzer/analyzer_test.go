package analyzer_test

import (
	"reflect"
	"testing"

	"github.com/dkoval/sitesearch/internal/analyzer"
)

// stubMorphology returns the word itself, lowercased, as its own base
// form, unless it appears in excluded, in which case its part of
// speech reports a closed class.
type stubMorphology struct {
	excluded map[string]string // word -> class descriptor
	fail     map[string]bool
}

func (s *stubMorphology) BaseForms(word string) ([]string, error) {
	if s.fail[word] {
		return nil, errStub
	}
	return []string{word}, nil
}

func (s *stubMorphology) PartsOfSpeech(word string) ([]string, error) {
	if class, ok := s.excluded[word]; ok {
		return []string{class}, nil
	}
	return []string{"NOUN"}, nil
}

var errStub = &stubError{"stub failure"}

type stubError struct{ msg string }

func (e *stubError) Error() string { return e.msg }

func TestCollectLemmasBasic(t *testing.T) {
	a := analyzer.NewWithMorphology(&stubMorphology{})

	got := a.CollectLemmas("dog dog cat")
	want := map[string]int{"dog": 2, "cat": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectLemmas = %v, want %v", got, want)
	}
}

func TestCollectLemmasFiltersShortWords(t *testing.T) {
	a := analyzer.NewWithMorphology(&stubMorphology{})

	got := a.CollectLemmas("I am ok dog")
	want := map[string]int{"dog": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectLemmas = %v, want %v", got, want)
	}
}

func TestCollectLemmasFiltersClosedClass(t *testing.T) {
	a := analyzer.NewWithMorphology(&stubMorphology{
		excluded: map[string]string{"the": "ARTICLE", "and": "CONJ"},
	})

	got := a.CollectLemmas("the dog and the cat")
	want := map[string]int{"dog": 1, "cat": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectLemmas = %v, want %v", got, want)
	}
}

func TestCollectLemmasStripsPunctuation(t *testing.T) {
	a := analyzer.NewWithMorphology(&stubMorphology{})

	got := a.CollectLemmas("Hello, world! Hello again.")
	want := map[string]int{"hello": 2, "world": 1, "again": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectLemmas = %v, want %v", got, want)
	}
}

func TestCollectLemmasSkipsMorphologyErrors(t *testing.T) {
	a := analyzer.NewWithMorphology(&stubMorphology{
		fail: map[string]bool{"unknown": true},
	})

	got := a.CollectLemmas("dog unknown cat")
	want := map[string]int{"dog": 1, "cat": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectLemmas = %v, want %v", got, want)
	}
}

func TestCollectLemmasEmptyInput(t *testing.T) {
	a := analyzer.NewWithMorphology(&stubMorphology{})

	got := a.CollectLemmas("")
	if len(got) != 0 {
		t.Errorf("CollectLemmas(\"\") = %v, want empty", got)
	}
}

func TestCollectLemmasNilAnalyzer(t *testing.T) {
	var a *analyzer.Analyzer
	got := a.CollectLemmas("dog cat")
	if len(got) != 0 {
		t.Errorf("CollectLemmas on nil analyzer = %v, want empty", got)
	}
}
