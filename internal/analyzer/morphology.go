package analyzer

import (
	"fmt"
	"regexp"

	"github.com/kljensen/snowball"
)

var (
	russianPattern = regexp.MustCompile(`(?i)[а-яё]`)
	englishPattern = regexp.MustCompile(`(?i)[a-z]`)
)

// detectLanguage picks the snowball language for word by script,
// preferring Russian when both scripts are present. Grounded on
// LemmaService.detectLanguage in original_source/.
func detectLanguage(word string) string {
	hasRussian := russianPattern.MatchString(word)
	hasEnglish := englishPattern.MatchString(word)
	switch {
	case hasRussian:
		return "russian"
	case hasEnglish:
		return "english"
	default:
		return ""
	}
}

// snowballMorphology is the concrete MorphologyProvider backing
// Analyzer: snowball.Stem supplies base forms, and a closed-class
// lookup table (below) supplies the part-of-speech descriptors the
// stemmer itself does not produce.
type snowballMorphology struct{}

func newSnowballMorphology() *snowballMorphology {
	return &snowballMorphology{}
}

func (m *snowballMorphology) BaseForms(word string) ([]string, error) {
	lang := detectLanguage(word)
	if lang == "" {
		return nil, fmt.Errorf("no recognized script for %q", word)
	}
	stem, err := snowball.Stem(word, lang, true)
	if err != nil {
		return nil, fmt.Errorf("stem %q: %w", word, err)
	}
	return []string{stem}, nil
}

func (m *snowballMorphology) PartsOfSpeech(word string) ([]string, error) {
	return []string{closedClassOf(word)}, nil
}
