package analyzer

// Closed-class descriptors, mirroring the excluded part-of-speech sets
// in original_source/services/LemmaService.java (RUSSIAN_EXCLUDE_POS,
// ENGLISH_EXCLUDE_POS). Word membership lists are grounded on a
// categorized stop-word table, extended with a Russian equivalent per
// class and a small interjection/particle class neither source
// enumerates in full.
const (
	classArticle      = "ARTICLE"
	classPronoun      = "PRON"
	classPreposition  = "PREP"
	classConjunction  = "CONJ"
	classInterjection = "INT"
	classParticle     = "PART"
	classOther        = "OTHER"
)

var excludedClasses = map[string]bool{
	classArticle:      true,
	classPronoun:      true,
	classPreposition:  true,
	classConjunction:  true,
	classInterjection: true,
	classParticle:     true,
}

func isExcludedClass(descriptor string) bool {
	return excludedClasses[descriptor]
}

var englishClosedClass = buildClassIndex(map[string][]string{
	classArticle: {"a", "an", "the"},

	classPronoun: {
		"i", "me", "my", "myself", "we", "our", "ours", "ourselves",
		"you", "your", "yours", "yourself", "yourselves",
		"he", "him", "his", "himself", "she", "her", "hers", "herself",
		"it", "its", "itself", "they", "them", "their", "theirs", "themselves",
		"this", "that", "these", "those", "who", "whom", "whose", "which", "what",
	},

	classPreposition: {
		"of", "at", "by", "for", "with", "about", "against", "between",
		"into", "through", "during", "before", "after", "above", "below",
		"to", "from", "up", "down", "in", "out", "on", "off", "over", "under",
	},

	classConjunction: {
		"and", "or", "but", "if", "while", "because", "as", "until",
		"than", "so", "nor", "yet",
	},

	classParticle: {
		"not", "to", "no", "only", "own", "just", "even",
	},

	classInterjection: {
		"oh", "ah", "wow", "hey", "ouch", "oops", "hooray", "alas",
	},
})

var russianClosedClass = buildClassIndex(map[string][]string{
	classPronoun: {
		"я", "ты", "он", "она", "оно", "мы", "вы", "они",
		"меня", "тебя", "его", "её", "нас", "вас", "их",
		"мой", "твой", "свой", "наш", "ваш", "этот", "тот", "который",
	},

	classPreposition: {
		"в", "на", "за", "под", "над", "из", "от", "до", "для",
		"без", "через", "перед", "при", "про", "по", "с", "у", "о", "об", "к",
	},

	classConjunction: {
		"и", "а", "но", "или", "либо", "что", "чтобы", "если", "как",
		"когда", "потому", "так", "хотя", "да", "ни",
	},

	classParticle: {
		"не", "ни", "же", "ли", "бы", "лишь", "только", "вот", "даже",
	},

	classInterjection: {
		"ой", "ах", "ох", "эй", "увы", "ура",
	},
})

func buildClassIndex(classes map[string][]string) map[string]string {
	index := make(map[string]string)
	for class, words := range classes {
		for _, w := range words {
			index[w] = class
		}
	}
	return index
}

// closedClassOf returns the closed-class descriptor for word, or
// classOther if word belongs to none.
func closedClassOf(word string) string {
	if class, ok := englishClosedClass[word]; ok {
		return class
	}
	if class, ok := russianClosedClass[word]; ok {
		return class
	}
	return classOther
}
