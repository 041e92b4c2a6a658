package pptx

import (
	"embed"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	apperrors "github.com/FocuswithJustin/VerseDeck/core/errors"
	"github.com/FocuswithJustin/VerseDeck/internal/fileutil"
	"github.com/FocuswithJustin/VerseDeck/internal/logging"
	"github.com/FocuswithJustin/VerseDeck/internal/validation"
)

// FallbackName is the file served when a deck has no slides.
const FallbackName = "error.pptx"

const (
	contentTypesPart = "[Content_Types].xml"
	placeholderName  = ".keep"
)

//go:embed all:skeleton
var skeletonFS embed.FS

// Content of the no-verses deck.
var (
	fallbackHeader = Header{
		BookPrimary:   "본문 없음",
		BookSecondary: "No verses",
	}
	fallbackSlides = []Slide{{
		Primary:   "요청한 본문을 찾지 못했습니다.",
		Secondary: "No verses were found for the requested reference.",
	}}
)

// Result describes a written package.
type Result struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Slides   int    `json:"slides"`
	Digest   string `json:"digest,omitempty"` // BLAKE3-256, hex
	Fallback bool   `json:"fallback"`
}

// Writer writes deck packages into OutputDir.
//
// Each build works in its own temporary directory under OutputDir, so
// concurrent builds never share intermediate files. OutputDir itself is
// never cleared.
type Writer struct {
	OutputDir string

	// SkeletonDir, when set, replaces the embedded skeleton with an
	// on-disk tree of the same layout.
	SkeletonDir string
}

// NewWriter returns a Writer for outputDir using the embedded skeleton.
func NewWriter(outputDir string) *Writer {
	return &Writer{OutputDir: outputDir}
}

// OutputName returns the file name of the package for header, e.g.
// "2 Thessalonians 1_8-9.pptx".
func OutputName(header Header) (string, error) {
	name := header.BookSecondary + " " + strings.ReplaceAll(header.ChapterVerse, ":", "_") + ".pptx"
	safe, err := validation.SanitizeFilename(name)
	if err != nil {
		return "", &apperrors.ValidationError{Field: "filename", Value: name, Message: "cannot derive package name", Err: err}
	}
	return safe, nil
}

// Build writes a deck for header with one slide per entry of slides. An
// empty deck is not an error: the fallback result is returned and nothing
// is written.
func (w *Writer) Build(header Header, slides []Slide) (*Result, error) {
	if len(slides) == 0 {
		return w.fallbackResult(), nil
	}

	parts, err := Assemble(header, slides)
	if err != nil {
		return nil, err
	}
	return w.Write(parts, header)
}

// BuildOpen is Build that also returns the written package opened for
// reading. The handle is taken before the package is moved into OutputDir,
// so it always holds this build's bytes even when a concurrent build of the
// same name replaces the file. The caller must close it.
func (w *Writer) BuildOpen(header Header, slides []Slide) (*Result, *os.File, error) {
	if len(slides) == 0 {
		res := w.fallbackResult()
		f, err := os.Open(res.Path)
		if err != nil {
			return nil, nil, apperrors.NewIO("open", res.Path, err)
		}
		return res, f, nil
	}

	parts, err := Assemble(header, slides)
	if err != nil {
		return nil, nil, err
	}
	name, err := OutputName(header)
	if err != nil {
		return nil, nil, err
	}
	return w.write(parts, name, true)
}

// Write packs parts into OutputDir under the name derived from header.
func (w *Writer) Write(parts *Parts, header Header) (*Result, error) {
	name, err := OutputName(header)
	if err != nil {
		return nil, err
	}
	res, _, err := w.write(parts, name, false)
	return res, err
}

// EnsureFallback writes the fallback package to OutputDir unless it is
// already present, and returns its path.
func (w *Writer) EnsureFallback() (string, error) {
	path := filepath.Join(w.OutputDir, FallbackName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	parts, err := Assemble(fallbackHeader, fallbackSlides)
	if err != nil {
		return "", err
	}
	if _, _, err := w.write(parts, FallbackName, false); err != nil {
		return "", err
	}
	return path, nil
}

// Prune removes decks and abandoned build directories in OutputDir last
// modified before now minus maxAge, and returns how many it removed. The
// fallback package and files that are not decks are kept. Open handles
// from BuildOpen stay readable after their file is pruned.
func (w *Writer) Prune(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(w.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, apperrors.NewIO("read", w.OutputDir, err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir() && strings.HasPrefix(name, ".build-"):
		case !e.IsDir() && strings.HasSuffix(name, ".pptx") && name != FallbackName:
		default:
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(w.OutputDir, name)
		if err := os.RemoveAll(path); err != nil {
			return removed, apperrors.NewIO("remove", path, err)
		}
		removed++
	}
	return removed, nil
}

func (w *Writer) fallbackResult() *Result {
	return &Result{
		Name:     FallbackName,
		Path:     filepath.Join(w.OutputDir, FallbackName),
		Fallback: true,
	}
}

func (w *Writer) write(parts *Parts, name string, keepOpen bool) (_ *Result, _ *os.File, err error) {
	if err := os.MkdirAll(w.OutputDir, 0755); err != nil {
		return nil, nil, apperrors.NewIO("create", w.OutputDir, err)
	}

	buildID := uuid.NewString()
	workDir, err := os.MkdirTemp(w.OutputDir, ".build-"+buildID+"-*")
	if err != nil {
		return nil, nil, apperrors.NewIO("create", w.OutputDir, err)
	}
	defer os.RemoveAll(workDir)

	logging.Debug("building deck", "build_id", buildID, "name", name, "slides", len(parts.Slides))

	tree := filepath.Join(workDir, "package")
	if err := w.stage(tree); err != nil {
		return nil, nil, apperrors.NewIO("stage", tree, err)
	}
	if err := writeParts(tree, parts); err != nil {
		return nil, nil, err
	}
	if err := removePlaceholders(tree); err != nil {
		return nil, nil, apperrors.NewIO("clean", tree, err)
	}

	archive := filepath.Join(workDir, "package.pptx")
	if err := fileutil.ZipDir(tree, archive, contentTypesPart); err != nil {
		return nil, nil, apperrors.NewIO("zip", archive, err)
	}
	if err := os.RemoveAll(tree); err != nil {
		return nil, nil, apperrors.NewIO("remove", tree, err)
	}

	f, err := os.Open(archive)
	if err != nil {
		return nil, nil, apperrors.NewIO("open", archive, err)
	}
	defer func() {
		if err != nil || !keepOpen {
			f.Close()
		}
	}()

	digest, err := fileDigest(f)
	if err != nil {
		return nil, nil, apperrors.NewIO("read", archive, err)
	}

	rel, err := validation.SanitizePath(w.OutputDir, name)
	if err != nil {
		return nil, nil, &apperrors.ValidationError{Field: "filename", Value: name, Message: "package name escapes output directory", Err: err}
	}
	dst := filepath.Join(w.OutputDir, rel)
	if err := os.Rename(archive, dst); err != nil {
		return nil, nil, apperrors.NewIO("rename", dst, err)
	}

	res := &Result{
		Name:   name,
		Path:   dst,
		Slides: len(parts.Slides),
		Digest: digest,
	}
	if !keepOpen {
		return res, nil, nil
	}
	return res, f, nil
}

func (w *Writer) stage(dst string) error {
	if w.SkeletonDir != "" {
		return fileutil.CopyDir(w.SkeletonDir, dst)
	}
	return fileutil.CopyFS(skeletonFS, "skeleton", dst)
}

func writeParts(tree string, parts *Parts) error {
	files := map[string]string{
		contentTypesPart:                  parts.ContentTypes,
		"ppt/presentation.xml":            parts.Presentation,
		"ppt/_rels/presentation.xml.rels": parts.PresentationRels,
	}
	for i, slide := range parts.Slides {
		files[SlidePartName(i)] = slide
		files[SlideRelsPartName(i)] = parts.SlideRelationship
	}

	for name, content := range files {
		path := filepath.Join(tree, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return apperrors.NewIO("create", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return apperrors.NewIO("write", path, err)
		}
	}
	return nil
}

func removePlaceholders(tree string) error {
	return filepath.WalkDir(tree, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == placeholderName {
			return os.Remove(path)
		}
		return nil
	})
}

// fileDigest hashes f from the start and rewinds it.
func fileDigest(f *os.File) (string, error) {
	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
