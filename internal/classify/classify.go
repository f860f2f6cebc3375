// Package classify is the scope gate for incoming questions: a pure,
// deterministic heuristic over a configurable ruleset. It decides whether a
// question belongs to the health domain before anything is stored or any
// generation call is made. The contract is deliberately model-free so a
// statistical classifier can be swapped in behind the same interface.
package classify

import (
	"strings"
	"unicode"
)

// Result is the classifier verdict for one raw input.
type Result struct {
	// Cleaned is the normalized text: leading salutations stripped,
	// whitespace collapsed, lowercased with the first rune capitalized.
	Cleaned string
	// InScope reports whether the question belongs to the domain.
	InScope bool
	// Signals lists every matched rule, in rule-evaluation order.
	Signals []string
}

type Classifier struct {
	rules *Ruleset
}

// New builds a classifier over the given ruleset. A nil ruleset selects
// DefaultRuleset.
func New(rules *Ruleset) *Classifier {
	if rules == nil {
		rules = DefaultRuleset()
	}
	return &Classifier{rules: rules}
}

const tokenTrimCutset = ",.!?;:—-–()\"'"

// Normalize strips leading salutation and address tokens. Stripping stops at
// the first non-salutation token, so salutations appearing mid-sentence are
// preserved. If stripping would consume the entire input, the original text is
// returned unchanged - normalization never produces empty output.
func (c *Classifier) Normalize(text string) string {
	fields := strings.Fields(strings.ToLower(text))

	i := 0
	for i < len(fields) && c.isSalutation(fields[i]) {
		i++
	}

	rest := fields[i:]
	if len(rest) == 0 {
		return text
	}

	return upperFirst(strings.Join(rest, " "))
}

// Classify normalizes the input and decides scope. The verdict is a pure
// function of the cleaned text: same input, same result, always.
//
// Signal precedence:
//  1. any trigger pattern match is conclusive in-scope;
//  2. an exclusion term is conclusive out-of-scope unless two or more domain
//     terms already matched;
//  3. otherwise in-scope needs a context phrase with at least one domain term,
//     two domain terms, or a question mark with at least one domain term.
func (c *Classifier) Classify(text string) Result {
	cleaned := c.Normalize(text)
	lower := strings.ToLower(cleaned)

	var signals []string

	triggered := false
	for _, p := range c.rules.TriggerPatterns {
		if p.MatchString(cleaned) {
			triggered = true
			signals = append(signals, "trigger:"+p.String())
		}
	}

	domainHits := 0
	for _, term := range c.rules.DomainTerms {
		if strings.Contains(lower, term) {
			domainHits++
			signals = append(signals, "domain:"+term)
		}
	}

	excluded := false
	for _, term := range c.rules.ExclusionTerms {
		if strings.Contains(lower, term) {
			excluded = true
			signals = append(signals, "exclusion:"+term)
		}
	}

	hasContext := false
	for _, phrase := range c.rules.ContextPhrases {
		if strings.Contains(lower, phrase) {
			hasContext = true
			signals = append(signals, "context:"+phrase)
		}
	}

	hasQuestionMark := strings.Contains(cleaned, "?")
	if hasQuestionMark {
		signals = append(signals, "question_mark")
	}

	inScope := false
	switch {
	case triggered:
		inScope = true
	case excluded && domainHits < 2:
		inScope = false
	case hasContext && domainHits >= 1:
		inScope = true
	case domainHits >= 2:
		inScope = true
	case hasQuestionMark && domainHits >= 1:
		inScope = true
	}

	return Result{
		Cleaned: cleaned,
		InScope: inScope,
		Signals: signals,
	}
}

func (c *Classifier) isSalutation(token string) bool {
	tok := strings.Trim(token, tokenTrimCutset)
	if tok == "" {
		// A bare punctuation token between salutations does not stop
		// stripping.
		return true
	}
	for _, s := range c.rules.Salutations {
		if tok == s {
			return true
		}
	}
	return false
}

func upperFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
