package classify

import "regexp"

// Ruleset is the single consolidated vocabulary behind the classifier. All
// scope decisions are driven by one of these instances, so tuning the gate
// means editing data here rather than forking classifier logic.
type Ruleset struct {
	// Salutations are greeting and honorific tokens stripped from the start
	// of a question. Compared against lowercased tokens with surrounding
	// punctuation trimmed, so "hello!" and "hello," both count.
	Salutations []string

	// TriggerPatterns are conclusive on their own: a single match marks the
	// question in-scope regardless of the rest of the text.
	TriggerPatterns []*regexp.Regexp

	// ExclusionTerms are conclusive evidence of out-of-scope unless the
	// domain evidence is already strong (two or more domain-term hits).
	ExclusionTerms []string

	// DomainTerms are stems counted against the question text. Substring
	// matched, so "headach" covers "headache" and "headaches".
	DomainTerms []string

	// ContextPhrases are request formulations which, together with at least
	// one domain term, confirm in-scope.
	ContextPhrases []string
}

// DefaultRuleset returns the health-domain vocabulary.
func DefaultRuleset() *Ruleset {
	return &Ruleset{
		Salutations: []string{
			"hello", "hi", "hey", "greetings", "goodnight",
			"good", "morning", "afternoon", "evening",
			"dear", "doctor", "doc", "admin", "administrator", "moderator",
		},
		TriggerPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bvitamin\s+[a-k]\d*\b`),
			regexp.MustCompile(`(?i)\bblood\s+pressure\b`),
			regexp.MustCompile(`(?i)\bside\s+effects?\b`),
			regexp.MustCompile(`(?i)\bheart\s+rate\b`),
			regexp.MustCompile(`(?i)\bblood\s+sugar\b`),
		},
		ExclusionTerms: []string{
			"price", "cost", "buy", "purchase", "discount", "delivery",
			"invoice", "refund", "phone", "laptop", "car", "apartment",
			"football", "movie", "recipe", "weather", "lottery",
		},
		DomainTerms: []string{
			// symptoms
			"headach", "stomach", "fever", "cough", "runny nose", "nausea",
			"vomit", "diarrhea", "constipat", "dizz", "fatigue", "weakness",
			"itch", "rash", "redness", "swell", "inflam", "ache", "pain",
			"sore", "cramp", "chill", "insomnia", "snor",
			// conditions
			"flu", "infect", "virus", "bacteria", "allerg", "asthma",
			"diabet", "migraine", "anemia", "arthrit", "bronchit",
			"gastrit", "hypertens", "depress", "anxiet",
			// care and anatomy
			"symptom", "diagnos", "treat", "therap", "medic", "pill",
			"tablet", "dose", "vaccin", "immun", "clinic", "hospital",
			"pharmac", "prescri", "health", "wellness", "blood", "pulse",
			"pressure", "temperature", "throat", "lung", "liver", "kidney",
			"joint", "muscle", "spine", "skin", "tooth", "teeth", "gum",
			"sleep", "pregnan", "nutrition", "metabol",
		},
		ContextPhrases: []string{
			"please advise",
			"what should i do",
			"what do i do",
			"what helps with",
			"how to treat",
			"how do i treat",
			"how to relieve",
			"is it normal",
			"is it dangerous",
			"should i see a doctor",
			"should i worry",
		},
	}
}
