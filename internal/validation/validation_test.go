package validation

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantError error
	}{
		{"bulletin", "오늘 본문은 살후1:8-9 입니다", nil},
		{"empty", "", nil},
		{"at limit", strings.Repeat("a", MaxTextLength), nil},
		{"too long", strings.Repeat("a", MaxTextLength+1), ErrTextTooLong},
		{"invalid utf-8", "창\xff1:1", ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.text)
			if !errors.Is(err, tt.wantError) {
				t.Errorf("ValidateText() error = %v, want %v", err, tt.wantError)
			}
		})
	}
}

func TestSanitizePath(t *testing.T) {
	baseDir := "/srv/versedeck/output"

	tests := []struct {
		name      string
		baseDir   string
		userPath  string
		want      string
		wantError error
	}{
		{"simple valid path", baseDir, "John 3_16.pptx", "John 3_16.pptx", nil},
		{"nested valid path", baseDir, "decks/John 3_16.pptx", filepath.Join("decks", "John 3_16.pptx"), nil},
		{"dot component", baseDir, "./error.pptx", "error.pptx", nil},
		{"dotted name is not traversal", baseDir, "..deck.pptx", "..deck.pptx", nil},
		{"traversal with dotdot", baseDir, "../etc/passwd", "", ErrPathTraversal},
		{"traversal in middle", baseDir, "a/../../etc/passwd", "", ErrPathTraversal},
		{"absolute path", baseDir, "/etc/passwd", "", ErrPathTraversal},
		{"empty path", baseDir, "", "", ErrEmptyPath},
		{"very long path", baseDir, strings.Repeat("a/", 2048) + "x", "", ErrPathTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.baseDir, tt.userPath)

			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Errorf("SanitizePath() error = %v, want %v", err, tt.wantError)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizePath() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SanitizePath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		wantError bool
	}{
		{"deck name", "2 Thessalonians 1_8-9.pptx", false},
		{"hangul", "데살로니가후서.pptx", false},
		{"empty", "", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"slash", "a/b.pptx", true},
		{"backslash", `a\b.pptx`, true},
		{"null byte", "a\x00b", true},
		{"control", "a\nb", true},
		{"leading hyphen", "-rf.pptx", true},
		{"too long", strings.Repeat("a", MaxFilenameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.filename)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateFilename(%q) error = %v, wantError %v", tt.filename, err, tt.wantError)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantError error
	}{
		{"relative", "./data/dbs/kor_bible.db", nil},
		{"absolute", "/var/lib/versedeck/eng_bible.db", nil},
		{"empty", "", ErrEmptyPath},
		{"control", "data\x01.db", ErrInvalidCharacter},
		{"too long", strings.Repeat("a", MaxPathLength+1), ErrPathTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePath(tt.path); !errors.Is(err, tt.wantError) {
				t.Errorf("ValidatePath() error = %v, want %v", err, tt.wantError)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		wantError bool
	}{
		{"clean", "Genesis 1_1.pptx", "Genesis 1_1.pptx", false},
		{"trims space", "  Ruth 1_16.pptx ", "Ruth 1_16.pptx", false},
		{"separators", "Song/Songs 2_1.pptx", "Song_Songs 2_1.pptx", false},
		{"control removed", "Jude\t1_3.pptx", "Jude1_3.pptx", false},
		{"leading hyphens", "--x.pptx", "x.pptx", false},
		{"empty", "", "", true},
		{"only hyphens", "---", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("SanitizeFilename(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateFileType(t *testing.T) {
	zipHeader := []byte{0x50, 0x4b, 0x03, 0x04, 0x14, 0x00}
	sqliteHeader := []byte("SQLite format 3\x00rest")

	tests := []struct {
		name      string
		content   []byte
		filename  string
		want      FileType
		wantError bool
	}{
		{"pptx package", zipHeader, "John 3_16.pptx", FileTypeZip, false},
		{"zip archive", zipHeader, "deck.zip", FileTypeZip, false},
		{"sqlite db", sqliteHeader, "kor_bible.db", FileTypeSQLite, false},
		{"sqlite3 ext", sqliteHeader, "eng.SQLITE3", FileTypeSQLite, false},
		{"text as pptx", []byte("plain text"), "notes.pptx", FileTypeUnknown, true},
		{"zip as db", zipHeader, "bible.db", FileTypeUnknown, true},
		{"empty db", nil, "bible.db", FileTypeUnknown, true},
		{"unknown extension", zipHeader, "deck.bin", FileTypeZip, false},
		{"unknown everything", []byte("hi"), "notes.txt", FileTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateFileType(bytes.NewReader(tt.content), tt.filename)
			if (err != nil) != tt.wantError {
				t.Fatalf("ValidateFileType() error = %v, wantError %v", err, tt.wantError)
			}
			if got != tt.want {
				t.Errorf("ValidateFileType() = %v, want %v", got, tt.want)
			}
		})
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("disk error") }

func TestValidateFileType_ReadError(t *testing.T) {
	if _, err := ValidateFileType(errReader{}, "deck.pptx"); err == nil {
		t.Error("expected error from failing reader")
	}
}
