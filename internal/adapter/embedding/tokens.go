package embedding

import (
	"strings"
	"unicode"
)

// stopwords carry no meaning for matching rules to questions.
var stopwords = func() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "you", "your", "we", "our", "my",
		"they", "their", "if", "or", "so", "i", "me",
		"can", "do", "does", "did", "been", "being", "would",
		"could", "should", "which", "what", "when", "where", "how",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}()

// tokenize lowercases text, splits it on anything that is not a letter or
// digit, and drops stopwords. Negations and modal verbs such as "no", "not"
// and "must" are kept since they decide whether something is allowed.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := words[:0]
	for _, w := range words {
		if _, isStop := stopwords[w]; isStop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}
