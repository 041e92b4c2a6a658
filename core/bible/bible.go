// Package bible reads verse text from the per-translation SQLite databases.
//
// Each database holds one table per book, named by canon.Book.Table, with
// the columns idx, chapter, verse, verseIdx, contents_type and contents.
// A verse may be split over several rows (ordered by verseIdx); only rows
// with contents_type 1 are verse text.
package bible

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/VerseDeck/core/canon"
	"github.com/FocuswithJustin/VerseDeck/core/errors"
	"github.com/FocuswithJustin/VerseDeck/core/sqlite"
	"github.com/FocuswithJustin/VerseDeck/internal/validation"
)

// verseText is the contents_type of rows carrying verse text.
const verseText = 1

// Store is a read-only verse store backed by one SQLite database.
// It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the database at path read-only. The file must exist and be a
// SQLite database.
func Open(path string) (*Store, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, &errors.ValidationError{Field: "path", Value: path, Message: err.Error()}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	ft, err := validation.ValidateFileType(f, path)
	f.Close()
	if err != nil {
		return nil, errors.NewParse("sqlite", path, err.Error())
	}
	if ft != validation.FileTypeSQLite {
		return nil, errors.NewUnsupported("verse store", string(ft)+" file is not a SQLite database")
	}

	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewIO("open", path, err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LookupText returns the text of the given verses of book, keyed by the
// decimal verse number. Verses with no rows are absent from the result.
// When strip is set, annotations are removed with StripAnnotations.
func (s *Store) LookupText(ctx context.Context, book canon.Book, chapter int, verses []int, strip bool) (map[string]string, error) {
	known, ok := canon.ByFullName(book.FullName)
	if !ok || known.Table != book.Table {
		return nil, errors.NewNotFound("book", book.FullName)
	}

	result := make(map[string]string, len(verses))
	if len(verses) == 0 {
		return result, nil
	}

	args := make([]any, 0, len(verses)+2)
	args = append(args, verseText, chapter)
	for _, v := range verses {
		args = append(args, v)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(verses)), ", ")

	// The table name comes from the canon whitelist, never from input.
	query := `SELECT verse, contents FROM "` + known.Table + `"
		WHERE contents_type = ? AND chapter = ? AND verse IN (` + placeholders + `)
		ORDER BY chapter ASC, verse ASC, verseIdx ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, errors.NewNotFound("table", known.Table)
		}
		return nil, errors.Wrapf(err, "lookup %s %d", known.Table, chapter)
	}
	defer rows.Close()

	for rows.Next() {
		var verse int
		var text string
		if err := rows.Scan(&verse, &text); err != nil {
			return nil, errors.Wrap(err, "scan verse row")
		}
		key := strconv.Itoa(verse)
		if prev, ok := result[key]; ok {
			result[key] = prev + " " + text
		} else {
			result[key] = text
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read verse rows")
	}

	if strip {
		for k, v := range result {
			result[k] = StripAnnotations(v)
		}
	}
	return result, nil
}

// StripAnnotations removes editorial notes from Korean verse text:
// parenthesized spans (nested parentheses included) and ASCII letters.
// Text without Hangul syllables is returned unchanged.
func StripAnnotations(text string) string {
	if !containsHangul(text) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	depth := 0
	for _, r := range text {
		if r == '(' {
			depth++
		}
		if depth > 0 {
			if r == ')' {
				depth--
			}
			continue
		}
		if isASCIILetter(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func containsHangul(s string) bool {
	for _, r := range s {
		if r >= '가' && r <= '힣' {
			return true
		}
	}
	return false
}

func isASCIILetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}
