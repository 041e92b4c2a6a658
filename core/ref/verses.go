package ref

import (
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// MaxVerse is the largest verse number accepted. Larger numbers, and ranges
// ending above it, are dropped like any other malformed fragment.
const MaxVerse = 999

// verseLexer tokenizes the part of a chapter-verse spec after the colon.
// Every input character falls into exactly one rule, so lexing never fails.
var verseLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Range", Pattern: `[-~]`},
	{Name: "Other", Pattern: `[^0-9,~-]+`},
})

var (
	numberToken = verseLexer.Symbols()["Number"]
	rangeToken  = verseLexer.Symbols()["Range"]
)

// scanState is the state of the verse-spec scanner.
type scanState int

const (
	// stateFirst accumulates a single verse or the lower bound of a range.
	stateFirst scanState = iota
	// stateOperator has seen a range operator and waits for the upper bound.
	stateOperator
	// stateSecond accumulates the upper bound of a range.
	stateSecond
)

// verseScanner is the explicit state machine behind ParseVerses.
type verseScanner struct {
	state   scanState
	first   string
	current string
	verses  []int
}

func (s *verseScanner) number(digits string) {
	s.current += digits
	if s.state == stateOperator {
		s.state = stateSecond
	}
}

// separator closes the pending single verse or range.
func (s *verseScanner) separator() {
	if s.state == stateFirst {
		s.single()
	} else {
		s.expand()
	}
	s.reset()
}

// operator starts a range. A second operator inside a pending range flushes
// that range and restarts from an empty state.
func (s *verseScanner) operator() {
	if s.state != stateFirst {
		s.expand()
		s.reset()
		return
	}
	s.first, s.current = s.current, ""
	s.state = stateOperator
}

func (s *verseScanner) single() {
	if s.current == "" {
		return
	}
	n, err := strconv.Atoi(s.current)
	if err != nil || n > MaxVerse {
		return
	}
	s.verses = append(s.verses, n)
}

// expand appends [first, current]. Inverted, empty or out-of-range bounds
// contribute nothing; the rest of the spec is still parsed.
func (s *verseScanner) expand() {
	from, err := strconv.Atoi(s.first)
	if err != nil {
		return
	}
	to, err := strconv.Atoi(s.current)
	if err != nil {
		return
	}
	if from >= to || to > MaxVerse {
		return
	}
	for v := from; v <= to; v++ {
		s.verses = append(s.verses, v)
	}
}

func (s *verseScanner) reset() {
	s.state = stateFirst
	s.first = ""
	s.current = ""
}

// ParseVerses expands a verse spec such as "10,14-15" into an ascending,
// de-duplicated verse list.
func ParseVerses(spec string) []int {
	lex, err := verseLexer.LexString("", spec)
	if err != nil {
		return nil
	}

	var s verseScanner
	for {
		tok, err := lex.Next()
		if err != nil || tok.EOF() {
			break
		}
		switch tok.Type {
		case numberToken:
			s.number(tok.Value)
		case rangeToken:
			s.operator()
		default:
			// Comma, and any stray character, closes the current fragment.
			s.separator()
		}
	}
	s.separator()

	slices.Sort(s.verses)
	return slices.Compact(s.verses)
}

// ParseChapterVerse splits a chapter-verse token such as "20:10,14-15" into
// its chapter and verse list. A token without a colon, or with a non-numeric
// chapter, yields chapter -1 and no verses.
func ParseChapterVerse(token string) (int, []int) {
	pos := strings.IndexByte(token, ':')
	if pos < 0 {
		return -1, nil
	}
	chapter, err := strconv.Atoi(token[:pos])
	if err != nil {
		return -1, nil
	}
	return chapter, ParseVerses(token[pos+1:])
}
