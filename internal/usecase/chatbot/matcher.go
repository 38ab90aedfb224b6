package chatbot

import (
	"strings"
	"unicode"
)

const (
	// HighConfidence answers straight from the table.
	HighConfidence = 0.6
	// MinConfidence attaches the matched topic to the AI prompt.
	MinConfidence = 0.2

	keywordWeight = 2.0
	fullScore     = 6.0
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "how": {}, "what": {}, "can": {}, "does": {}, "for": {},
	"you": {}, "your": {}, "are": {}, "with": {}, "this": {}, "that": {}, "why": {},
}

type Match struct {
	Entry *Entry
	Score float64
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func tokens(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(s) {
		if len(w) < 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// score weighs whole-keyword hits above single shared words.
func score(norm string, e *Entry) float64 {
	padded := " " + norm + " "
	exact := 0
	for _, k := range e.Keywords {
		if strings.Contains(padded, " "+normalize(k)+" ") {
			exact++
		}
	}
	overlap := 0
	q := tokens(normalize(e.Question))
	for w := range tokens(norm) {
		if _, ok := q[w]; ok {
			overlap++
		}
	}
	s := (keywordWeight*float64(exact) + float64(overlap)) / fullScore
	if s > 1 {
		s = 1
	}
	return s
}

// Best returns the highest scoring entry; ties keep table order.
func Best(entries []Entry, input string) Match {
	norm := normalize(input)
	var m Match
	for i := range entries {
		if s := score(norm, &entries[i]); s > m.Score {
			m = Match{Entry: &entries[i], Score: s}
		}
	}
	return m
}
