package ref

import (
	"regexp"

	"golang.org/x/text/unicode/norm"

	"github.com/FocuswithJustin/VerseDeck/core/canon"
)

const (
	bookPattern         = `[가-힣]{1,2}`
	chapterVersePattern = `[0-9]{1,3}:[0-9,~\-]*[0-9]`
)

var (
	citationRe     = regexp.MustCompile(bookPattern + `[ ]?` + chapterVersePattern)
	bookRe         = regexp.MustCompile(bookPattern)
	chapterVerseRe = regexp.MustCompile(chapterVersePattern)
)

// Candidate is a reference-shaped span split into its raw tokens.
// It has not been checked against the canon.
type Candidate struct {
	// BookToken is the 1-2 syllable abbreviation as written.
	BookToken string `json:"book_token"`

	// ChapterVerse is the chapter-verse token with "~" normalized to "-".
	ChapterVerse string `json:"chapter_verse"`
}

// FindAll returns every reference-shaped span in text, in order of
// appearance and including repeats.
func FindAll(text string) []Candidate {
	text = norm.NFC.String(text)

	var out []Candidate
	for _, span := range citationRe.FindAllString(text, -1) {
		// Re-apply the sub-patterns to the span instead of using capture
		// groups; the book and chapter-verse parts are extracted independently.
		book := bookRe.FindString(span)
		cv := chapterVerseRe.FindString(span)
		if book == "" || cv == "" {
			continue
		}
		out = append(out, Candidate{BookToken: book, ChapterVerse: normalizeSpec(cv)})
	}
	return out
}

// Resolve validates a candidate. It fails when the abbreviation is unknown,
// the chapter is not positive or no verse survives parsing.
func (c Candidate) Resolve() (Reference, bool) {
	book, ok := canon.Resolve(c.BookToken)
	if !ok {
		return Reference{}, false
	}
	chapter, verses := ParseChapterVerse(c.ChapterVerse)
	r := Reference{Book: book, Chapter: chapter, Verses: verses, Spec: c.ChapterVerse}
	if !r.Valid() {
		return Reference{}, false
	}
	return r, true
}

// ParseReferences finds and resolves every reference in text. Candidates
// that do not resolve are dropped silently.
func ParseReferences(text string) []Reference {
	var out []Reference
	for _, c := range FindAll(text) {
		if r, ok := c.Resolve(); ok {
			out = append(out, r)
		}
	}
	return out
}

// ParseReferenceStrings is ParseReferences rendered with Reference.String.
// The result is never nil.
func ParseReferenceStrings(text string) []string {
	refs := ParseReferences(text)
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.String())
	}
	return out
}
