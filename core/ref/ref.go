// Package ref finds Korean scripture references in free text and resolves
// them into (book, chapter, verses) triples.
//
// Supported citation shapes:
//   - "창1:1" (abbreviation, chapter:verse)
//   - "살후 1:8-9" (optional single space, verse range)
//   - "계20:10,14-15" (comma-separated verses and ranges)
//   - "막9:42~48" (tilde range, normalized to "-")
//
// Everything in this package is pure and safe for concurrent use.
package ref

import (
	"strings"

	"github.com/FocuswithJustin/VerseDeck/core/canon"
	"github.com/FocuswithJustin/VerseDeck/core/errors"
)

// Reference is a resolved scripture reference.
type Reference struct {
	// Book is the canon entry the abbreviation resolved to.
	Book canon.Book `json:"book"`

	// Chapter is the 1-based chapter number.
	Chapter int `json:"chapter"`

	// Verses is the ascending, de-duplicated verse list.
	Verses []int `json:"verses"`

	// Spec is the chapter-verse token with "~" normalized to "-" (e.g. "20:10,14-15").
	Spec string `json:"spec"`
}

// String returns the canonical form "<full name> <chapter:verses>".
func (r Reference) String() string {
	return r.Book.FullName + " " + r.Spec
}

// Valid reports whether the reference names a chapter and at least one verse.
func (r Reference) Valid() bool {
	return r.Chapter > 0 && len(r.Verses) > 0
}

// ParseCanonical parses a reference in the form produced by Reference.String,
// e.g. "데살로니가후서 1:8-9".
func ParseCanonical(s string) (Reference, error) {
	parts := strings.Split(strings.TrimSpace(s), " ")
	if len(parts) != 2 {
		return Reference{}, errors.NewValidation("reference", "expected \"<book> <chapter>:<verses>\"")
	}

	book, ok := canon.ByFullName(parts[0])
	if !ok {
		return Reference{}, errors.NewNotFound("book", parts[0])
	}

	spec := normalizeSpec(parts[1])
	chapter, verses := ParseChapterVerse(spec)
	r := Reference{Book: book, Chapter: chapter, Verses: verses, Spec: spec}
	if !r.Valid() {
		return Reference{}, errors.NewValidation("reference", "no chapter or verses in "+parts[1])
	}
	return r, nil
}

func normalizeSpec(spec string) string {
	return strings.ReplaceAll(spec, "~", "-")
}
