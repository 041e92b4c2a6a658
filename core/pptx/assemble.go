// Package pptx assembles and writes scripture decks as PresentationML
// packages, one slide per verse.
//
// A package is built from a fixed skeleton (master, layout, theme and
// properties parts, embedded in the binary) plus the parts generated for each
// deck: the content-types manifest, the presentation manifest and its
// relationships, and one slide document with its relationship stub per verse.
package pptx

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/FocuswithJustin/VerseDeck/core/encoding"
)

// Relationship ids rId1 to rId10 and slide ids below 256 belong to the
// skeleton; generated slides are numbered after them.
const (
	relationshipOffset = 11
	slideIDOffset      = 256
)

// ErrNoSlides is returned by Assemble for an empty deck.
var ErrNoSlides = errors.New("pptx: deck has no slides")

//go:embed templates/*
var templateFS embed.FS

var (
	contentTypesTemplate  = mustTemplate("content_types.xml")
	presentationTemplate  = mustTemplate("presentation.xml")
	presentationRels      = mustTemplate("presentation.xml.rels")
	slideTemplate         = mustTemplate("slide.xml")
	slideRelationshipStub = mustTemplate("slide.xml.rels")
)

func mustTemplate(name string) string {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		panic(fmt.Sprintf("pptx: missing template %s: %v", name, err))
	}
	return string(data)
}

// Header is the per-deck text shown on every slide.
type Header struct {
	BookPrimary   string // e.g. "데살로니가후서"
	BookSecondary string // e.g. "2 Thessalonians"
	ChapterVerse  string // e.g. "1:8-9"
}

// Slide is the bilingual content of one slide.
type Slide struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Parts holds the generated parts of one deck.
type Parts struct {
	ContentTypes      string
	Presentation      string
	PresentationRels  string
	Slides            []string
	SlideRelationship string
}

// RelationshipID returns the presentation relationship id of the i-th
// (0-based) slide.
func RelationshipID(i int) string {
	return fmt.Sprintf("rId%d", i+relationshipOffset)
}

// SlideID returns the numeric slide id of the i-th (0-based) slide.
func SlideID(i int) int {
	return i + slideIDOffset
}

// SlidePartName returns the package path of the i-th (0-based) slide.
func SlidePartName(i int) string {
	return fmt.Sprintf("ppt/slides/slide%d.xml", i+1)
}

// SlideRelsPartName returns the package path of the i-th slide's
// relationship part.
func SlideRelsPartName(i int) string {
	return fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1)
}

// Assemble generates the parts of a deck with one slide per entry of slides.
func Assemble(header Header, slides []Slide) (*Parts, error) {
	if len(slides) == 0 {
		return nil, ErrNoSlides
	}

	var overrides, idList, rels strings.Builder
	for i := range slides {
		fmt.Fprintf(&overrides, "  <Override PartName=\"/%s\" ContentType=\"application/vnd.openxmlformats-officedocument.presentationml.slide+xml\"/>\n", SlidePartName(i))
		fmt.Fprintf(&idList, "    <p:sldId id=\"%d\" r:id=\"%s\"/>\n", SlideID(i), RelationshipID(i))
		fmt.Fprintf(&rels, "  <Relationship Id=\"%s\" Type=\"http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide\" Target=\"slides/slide%d.xml\"/>\n", RelationshipID(i), i+1)
	}

	parts := &Parts{
		ContentTypes:      strings.Replace(contentTypesTemplate, "{{SLIDE_OVERRIDES}}", overrides.String(), 1),
		Presentation:      strings.Replace(presentationTemplate, "{{SLIDE_ID_LIST}}", idList.String(), 1),
		PresentationRels:  strings.Replace(presentationRels, "{{SLIDE_RELATIONSHIPS}}", rels.String(), 1),
		Slides:            make([]string, len(slides)),
		SlideRelationship: slideRelationshipStub,
	}
	for i, s := range slides {
		parts.Slides[i] = renderSlide(header, s)
	}
	return parts, nil
}

// renderSlide substitutes all five markers in one pass, so text that
// happens to contain a marker is never substituted again.
func renderSlide(header Header, s Slide) string {
	r := strings.NewReplacer(
		"{{BOOK_PRIMARY}}", encoding.EscapeXML(header.BookPrimary),
		"{{BOOK_SECONDARY}}", encoding.EscapeXML(header.BookSecondary),
		"{{CHAPTER_VERSE}}", encoding.EscapeXML(header.ChapterVerse),
		"{{TEXT_PRIMARY}}", encoding.EscapeXML(s.Primary),
		"{{TEXT_SECONDARY}}", encoding.EscapeXML(s.Secondary),
	)
	return r.Replace(slideTemplate)
}
