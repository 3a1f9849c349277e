package search

import (
	"strings"
	"unicode"

	"github.com/poiesic/enrichit/core"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "in": {}, "is": {}, "it": {},
	"of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "this": {}, "to": {},
	"was": {}, "with": {},
}

// terms lowercases text and splits it on anything that is not a letter or
// digit, dropping stop words. Hyphenated tags split into their parts.
func terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; !stop {
			out = append(out, f)
		}
	}
	return out
}

// recordTerms collects the searchable vocabulary of a record: its body plus
// the generated title, keywords and tags.
func recordTerms(record *core.ContentRecord) map[string]struct{} {
	set := make(map[string]struct{})
	add := func(s string) {
		for _, t := range terms(s) {
			set[t] = struct{}{}
		}
	}
	add(record.Body)
	if r := record.Result; r != nil {
		add(r.SearchMetadata.Title)
		add(r.SearchMetadata.Keywords)
		for _, tag := range r.Tags {
			add(tag)
		}
	}
	return set
}

// coversQuery reports whether every non-stop-word term of query occurs in the
// record. A query made only of stop words covers nothing.
func coversQuery(record *core.ContentRecord, query string) bool {
	want := terms(query)
	if len(want) == 0 {
		return false
	}
	have := recordTerms(record)
	for _, t := range want {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}
