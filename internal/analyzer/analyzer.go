// Package analyzer reduces raw text to a lemma-frequency mapping,
// filtering out closed-class words that add no retrieval signal. The
// morphological library itself is treated as a pluggable boundary
// (MorphologyProvider); only the interface and a concrete stemmer-backed
// adapter live here.
package analyzer

import (
	"log"
	"regexp"
	"strings"
)

const minLemmaLength = 3

var nonLetterRun = regexp.MustCompile(`[^\p{L}\s]+`)

// MorphologyProvider maps a word to candidate base forms and, in
// lockstep, a part-of-speech descriptor per candidate. Its linguistic
// internals are out of scope; only this boundary is specified.
type MorphologyProvider interface {
	BaseForms(word string) ([]string, error)
	PartsOfSpeech(word string) ([]string, error)
}

// Analyzer turns text into a lemma→count mapping.
type Analyzer struct {
	morph MorphologyProvider
}

// New wires the default Snowball-backed MorphologyProvider.
func New() *Analyzer {
	return &Analyzer{morph: newSnowballMorphology()}
}

// NewWithMorphology allows a caller to supply its own MorphologyProvider,
// e.g. in tests.
func NewWithMorphology(m MorphologyProvider) *Analyzer {
	return &Analyzer{morph: m}
}

// CollectLemmas lowercases text, strips non-letter runs, tokenizes on
// whitespace, discards closed-class and short tokens, and counts
// first-base-form occurrences. An analyzer error on a single token is
// swallowed; a nil Analyzer or morphology provider yields an empty
// mapping.
func (a *Analyzer) CollectLemmas(text string) map[string]int {
	result := make(map[string]int)
	if a == nil || a.morph == nil {
		return result
	}
	if strings.TrimSpace(text) == "" {
		return result
	}

	normalized := nonLetterRun.ReplaceAllString(strings.ToLower(text), " ")
	for _, word := range strings.Fields(normalized) {
		if len([]rune(word)) < minLemmaLength {
			continue
		}
		lemma, ok := a.processWord(word)
		if !ok {
			continue
		}
		result[lemma]++
	}
	return result
}

func (a *Analyzer) processWord(word string) (string, bool) {
	forms, err := a.morph.BaseForms(word)
	if err != nil || len(forms) == 0 {
		if err != nil {
			log.Printf("analyzer: base forms for %q: %v", word, err)
		}
		return "", false
	}

	pos, err := a.morph.PartsOfSpeech(word)
	if err != nil {
		log.Printf("analyzer: part of speech for %q: %v", word, err)
		return "", false
	}
	for _, descriptor := range pos {
		if isExcludedClass(descriptor) {
			return "", false
		}
	}

	lemma := forms[0]
	if len([]rune(lemma)) < minLemmaLength {
		return "", false
	}
	return lemma, true
}
