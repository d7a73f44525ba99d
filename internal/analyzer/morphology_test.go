package analyzer

import "testing"

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"dog", "english"},
		{"собака", "russian"},
		{"привет123", "russian"},
		{"123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := detectLanguage(tt.word); got != tt.want {
			t.Errorf("detectLanguage(%q) = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestSnowballMorphologyBaseForms(t *testing.T) {
	m := newSnowballMorphology()

	forms, err := m.BaseForms("jumping")
	if err != nil {
		t.Fatalf("BaseForms failed: %v", err)
	}
	if len(forms) != 1 || forms[0] == "" {
		t.Errorf("BaseForms(\"jumping\") = %v, want a single non-empty stem", forms)
	}

	if _, err := m.BaseForms("123"); err == nil {
		t.Error("BaseForms(\"123\") expected an error for unrecognized script")
	}
}

func TestClosedClassOf(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"the", classArticle},
		{"and", classConjunction},
		{"и", classConjunction},
		{"не", classParticle},
		{"dog", classOther},
	}

	for _, tt := range tests {
		if got := closedClassOf(tt.word); got != tt.want {
			t.Errorf("closedClassOf(%q) = %q, want %q", tt.word, got, tt.want)
		}
	}
}
