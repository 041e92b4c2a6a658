package pptx

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	apperrors "github.com/FocuswithJustin/VerseDeck/core/errors"
	"github.com/FocuswithJustin/VerseDeck/internal/validation"
)

const (
	slideContentType      = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	slideRelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
)

var (
	overrideExpr     = xpath.MustCompile(`//*[local-name()='Override']`)
	slideIDExpr      = xpath.MustCompile(`//*[local-name()='sldIdLst']/*[local-name()='sldId']`)
	relationshipExpr = xpath.MustCompile(`//*[local-name()='Relationship']`)
)

// SlideRef is one entry of the presentation's slide id list.
type SlideRef struct {
	ID             int    `json:"id"`
	RelationshipID string `json:"relationship_id"`
}

// Relationship is one slide relationship of the presentation.
type Relationship struct {
	ID     string `json:"id"`
	Target string `json:"target"`
}

// PackageInfo summarizes the slide structure of a package.
type PackageInfo struct {
	Path               string         `json:"path"`
	Entries            []string       `json:"entries"` // archive order
	SlideParts         []string       `json:"slide_parts"`
	SlideOverrides     []string       `json:"slide_overrides"`
	SlideIDs           []SlideRef     `json:"slide_ids"`
	SlideRelationships []Relationship `json:"slide_relationships"`
}

// Consistent reports whether the slide parts, content-type overrides, id
// list and relationships all describe the same number of slides, and every
// id list entry points at a slide relationship.
func (p *PackageInfo) Consistent() bool {
	n := len(p.SlideParts)
	if len(p.SlideOverrides) != n || len(p.SlideIDs) != n || len(p.SlideRelationships) != n {
		return false
	}
	rels := make(map[string]bool, n)
	for _, r := range p.SlideRelationships {
		rels[r.ID] = true
	}
	for _, s := range p.SlideIDs {
		if !rels[s.RelationshipID] {
			return false
		}
	}
	return true
}

// Inspect reads the package at path and reports its slide parts and the
// manifest entries that refer to them.
func Inspect(path string) (*PackageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewIO("open", path, err)
	}
	ft, err := validation.ValidateFileType(f, path)
	f.Close()
	if err != nil {
		return nil, apperrors.NewParse("pptx", path, err.Error())
	}
	if ft != validation.FileTypeZip {
		return nil, apperrors.NewUnsupported("package", string(ft)+" file is not a zip package")
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &apperrors.ParseError{Format: "pptx", Path: path, Message: "invalid archive", Err: err}
	}
	defer zr.Close()

	info := &PackageInfo{Path: path}
	files := make(map[string]*zip.File, len(zr.File))
	for _, zf := range zr.File {
		info.Entries = append(info.Entries, zf.Name)
		files[zf.Name] = zf
		if strings.HasPrefix(zf.Name, "ppt/slides/slide") && strings.HasSuffix(zf.Name, ".xml") {
			info.SlideParts = append(info.SlideParts, zf.Name)
		}
	}
	sort.Slice(info.SlideParts, func(i, j int) bool {
		return slideNumber(info.SlideParts[i]) < slideNumber(info.SlideParts[j])
	})

	ct, err := parsePart(files, contentTypesPart)
	if err != nil {
		return nil, err
	}
	for _, n := range xmlquery.QuerySelectorAll(ct, overrideExpr) {
		if n.SelectAttr("ContentType") == slideContentType {
			info.SlideOverrides = append(info.SlideOverrides, n.SelectAttr("PartName"))
		}
	}

	pres, err := parsePart(files, "ppt/presentation.xml")
	if err != nil {
		return nil, err
	}
	for _, n := range xmlquery.QuerySelectorAll(pres, slideIDExpr) {
		id, err := strconv.Atoi(plainAttr(n, "id"))
		if err != nil {
			return nil, &apperrors.ParseError{Format: "XML", Path: "ppt/presentation.xml", Message: "invalid slide id", Err: err}
		}
		info.SlideIDs = append(info.SlideIDs, SlideRef{ID: id, RelationshipID: prefixedAttr(n, "id")})
	}

	rels, err := parsePart(files, "ppt/_rels/presentation.xml.rels")
	if err != nil {
		return nil, err
	}
	for _, n := range xmlquery.QuerySelectorAll(rels, relationshipExpr) {
		if n.SelectAttr("Type") == slideRelationshipType {
			info.SlideRelationships = append(info.SlideRelationships, Relationship{
				ID:     n.SelectAttr("Id"),
				Target: n.SelectAttr("Target"),
			})
		}
	}

	return info, nil
}

func parsePart(files map[string]*zip.File, name string) (*xmlquery.Node, error) {
	zf, ok := files[name]
	if !ok {
		return nil, apperrors.NewNotFound("part", name)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, &apperrors.ParseError{Format: "pptx", Path: name, Message: "cannot open part", Err: err}
	}
	defer rc.Close()

	doc, err := xmlquery.Parse(io.LimitReader(rc, validation.MaxFileSize))
	if err != nil {
		return nil, &apperrors.ParseError{Format: "XML", Path: name, Message: "malformed part", Err: err}
	}
	return doc, nil
}

// plainAttr returns the value of the unprefixed attribute local.
func plainAttr(n *xmlquery.Node, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

// prefixedAttr returns the value of the namespaced attribute local, such
// as r:id.
func prefixedAttr(n *xmlquery.Node, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local && a.Name.Space != "" && a.Name.Space != "xmlns" {
			return a.Value
		}
	}
	return ""
}

func slideNumber(part string) int {
	s := strings.TrimSuffix(strings.TrimPrefix(part, "ppt/slides/slide"), ".xml")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// String renders the summary printed by the inspect command.
func (p *PackageInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Path)
	fmt.Fprintf(&b, "  slides:        %d\n", len(p.SlideParts))
	fmt.Fprintf(&b, "  overrides:     %d\n", len(p.SlideOverrides))
	fmt.Fprintf(&b, "  relationships: %d\n", len(p.SlideRelationships))
	for _, s := range p.SlideIDs {
		fmt.Fprintf(&b, "  sldId %d -> %s\n", s.ID, s.RelationshipID)
	}
	return b.String()
}
