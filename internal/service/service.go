// Package service joins reference parsing, the verse stores and the deck
// writer into the operations exposed by the CLI and the web server.
package service

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/FocuswithJustin/VerseDeck/core/canon"
	"github.com/FocuswithJustin/VerseDeck/core/errors"
	"github.com/FocuswithJustin/VerseDeck/core/pptx"
	"github.com/FocuswithJustin/VerseDeck/core/ref"
	"github.com/FocuswithJustin/VerseDeck/internal/cache"
	"github.com/FocuswithJustin/VerseDeck/internal/logging"
)

// TextSource looks up verse text for one translation. Keys of the result
// are decimal verse numbers; missing verses are absent.
type TextSource interface {
	LookupText(ctx context.Context, book canon.Book, chapter int, verses []int, strip bool) (map[string]string, error)
}

// Passage is a resolved reference with the text of every verse in both
// translations, ready to be rendered as a deck.
type Passage struct {
	Reference ref.Reference `json:"reference"`
	Header    pptx.Header   `json:"-"`
	Slides    []pptx.Slide  `json:"slides"`
}

// Options configures a Service.
type Options struct {
	CacheTTL     time.Duration
	CacheEntries int
}

type passageKey struct {
	reference string
	strip     bool
}

// Service is safe for concurrent use.
type Service struct {
	primary   TextSource
	secondary TextSource
	writer    *pptx.Writer
	passages  *cache.TTLCache[passageKey, *Passage]
}

// New returns a Service reading Korean text from primary and English text
// from secondary, writing decks with writer.
func New(primary, secondary TextSource, writer *pptx.Writer, opts Options) *Service {
	return &Service{
		primary:   primary,
		secondary: secondary,
		writer:    writer,
		passages:  cache.New[passageKey, *Passage](opts.CacheTTL, opts.CacheEntries),
	}
}

// ParseReferences returns the canonical form of every reference found in
// text. The result is never nil.
func (s *Service) ParseReferences(ctx context.Context, text string) []string {
	refs := ref.ParseReferenceStrings(text)
	logging.ReferencesParsed(ctx, len(text), len(refs))
	return refs
}

// Passage looks up the verses of reference, given in canonical form such
// as "데살로니가후서 1:8-9". Verses absent from both translations are left
// out, so a passage past the end of a chapter has no slides.
func (s *Service) Passage(ctx context.Context, reference string, strip bool) (*Passage, error) {
	key := passageKey{reference: strings.TrimSpace(reference), strip: strip}
	if p, ok := s.passages.Get(key); ok {
		return p, nil
	}

	r, err := ref.ParseCanonical(key.reference)
	if err != nil {
		return nil, err
	}

	primary, err := s.primary.LookupText(ctx, r.Book, r.Chapter, r.Verses, strip)
	if err != nil {
		return nil, errors.Wrapf(err, "primary text for %s", r)
	}
	secondary, err := s.secondary.LookupText(ctx, r.Book, r.Chapter, r.Verses, strip)
	if err != nil {
		return nil, errors.Wrapf(err, "secondary text for %s", r)
	}

	p := &Passage{
		Reference: r,
		Header: pptx.Header{
			BookPrimary:   r.Book.FullName,
			BookSecondary: r.Book.DisplayName,
			ChapterVerse:  r.Spec,
		},
		Slides: make([]pptx.Slide, 0, len(r.Verses)),
	}
	for _, v := range r.Verses {
		n := strconv.Itoa(v)
		kor, hasKor := primary[n]
		eng, hasEng := secondary[n]
		// A verse neither translation has gets no slide rather than a
		// placeholder, so a reference past the end of a chapter falls back.
		if !hasKor && !hasEng {
			continue
		}
		p.Slides = append(p.Slides, pptx.Slide{
			Primary:   n + ". " + kor,
			Secondary: n + ". " + eng,
		})
	}

	s.passages.Set(key, p)
	return p, nil
}

// PassageText renders p as the reference line followed by the primary and
// secondary line of each verse.
func PassageText(p *Passage) string {
	var b strings.Builder
	b.WriteString(p.Reference.String())
	for _, slide := range p.Slides {
		b.WriteString("\n")
		b.WriteString(slide.Primary)
		b.WriteString("\n")
		b.WriteString(slide.Secondary)
	}
	return b.String()
}

// BuildDeck writes the deck for reference. A reference with no verse text
// yields the fallback result.
func (s *Service) BuildDeck(ctx context.Context, reference string, strip bool) (*pptx.Result, error) {
	p, err := s.Passage(ctx, reference, strip)
	if err != nil {
		return nil, err
	}

	res, err := s.writer.Build(p.Header, p.Slides)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s", p.Reference)
	}
	logging.DeckBuilt(ctx, p.Reference.String(), res.Name, res.Slides, res.Fallback)
	return res, nil
}

// OpenDeck is BuildDeck for serving: it also returns the built package
// opened for reading, which the caller must close. The handle matches
// the result's digest even if another build replaces the file by name.
func (s *Service) OpenDeck(ctx context.Context, reference string, strip bool) (*pptx.Result, *os.File, error) {
	p, err := s.Passage(ctx, reference, strip)
	if err != nil {
		return nil, nil, err
	}

	res, f, err := s.writer.BuildOpen(p.Header, p.Slides)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "build %s", p.Reference)
	}
	logging.DeckBuilt(ctx, p.Reference.String(), res.Name, res.Slides, res.Fallback)
	return res, f, nil
}

// PruneDecks removes decks older than maxAge from the output directory.
func (s *Service) PruneDecks(maxAge time.Duration) (int, error) {
	return s.writer.Prune(maxAge, time.Now())
}

// BuildOutcome is the result of one deck of a batch build.
type BuildOutcome struct {
	Reference string       `json:"reference"`
	Result    *pptx.Result `json:"result,omitempty"`
	Err       error        `json:"-"`
}

// BuildDecks builds a deck for each reference using up to workers
// concurrent builds. Outcomes are returned in the order of references; a
// failed reference does not stop the others.
func (s *Service) BuildDecks(ctx context.Context, references []string, strip bool, workers int) []BuildOutcome {
	type job struct {
		index     int
		reference string
	}
	type done struct {
		index   int
		outcome BuildOutcome
	}

	pool := newWorkerPool[job, done](workers, len(references))
	pool.start(func(j job) done {
		res, err := s.BuildDeck(ctx, j.reference, strip)
		return done{j.index, BuildOutcome{Reference: j.reference, Result: res, Err: err}}
	})
	for i, r := range references {
		pool.submit(job{i, r})
	}
	pool.close()

	outcomes := make([]BuildOutcome, len(references))
	for d := range pool.results {
		outcomes[d.index] = d.outcome
	}
	return outcomes
}

// OutputDir is the directory decks are written to.
func (s *Service) OutputDir() string {
	return s.writer.OutputDir
}
