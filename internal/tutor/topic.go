package tutor

import (
	"strings"
	"unicode"
)

// fillerPrefixes are conversational openers stripped before treating the
// remainder of a first message as the topic. Longest-first so compound
// prefixes win.
var fillerPrefixes = []string{
	"can you teach me about",
	"could you teach me about",
	"can you explain to me",
	"i want to learn about",
	"i want to learn",
	"i'd like to learn about",
	"help me understand",
	"help me with",
	"teach me about",
	"can you explain",
	"tell me about",
	"explain to me",
	"what is a",
	"what is an",
	"let's talk about",
	"teach me",
	"explain",
	"what is",
	"what are",
}

// smallWords stay lowercase in title case unless they lead.
var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true,
	"but": true, "by": true, "for": true, "in": true, "of": true,
	"on": true, "or": true, "the": true, "to": true, "with": true,
}

// ExtractTopic derives a topic title from the first message of a
// session: strip filler prefixes, trim punctuation, title-case the rest.
// An utterance that is all filler falls back to a general topic.
func ExtractTopic(utterance string) string {
	s := strings.TrimSpace(strings.ToLower(utterance))
	s = strings.Trim(s, "?!. ")

	for changed := true; changed; {
		changed = false
		for _, prefix := range fillerPrefixes {
			if strings.HasPrefix(s, prefix+" ") {
				s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
				changed = true
			}
		}
	}

	s = strings.Trim(s, "?!. ")
	if s == "" {
		return "General Discussion"
	}
	return TitleCase(s)
}

// TitleCase capitalizes each word, leaving small connector words
// lowercase except in the leading position.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if i > 0 && smallWords[w] {
			continue
		}
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	runes := []rune(w)
	if len(runes) == 0 {
		return w
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
