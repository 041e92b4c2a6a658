package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/VerseDeck/core/pptx"
	"github.com/FocuswithJustin/VerseDeck/core/sqlite"
	"github.com/FocuswithJustin/VerseDeck/internal/config"
	"github.com/FocuswithJustin/VerseDeck/internal/validation"
)

// createBible writes a verse database holding Ruth 1:16-17 and
// 2 Thessalonians 1:8-9.
func createBible(t *testing.T, dir, name, lang string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	db := sqlite.MustOpen(path)
	defer db.Close()

	for _, table := range []string{"Ruth", "SecondThessalonians"} {
		if _, err := db.Exec(`CREATE TABLE "` + table + `" (
			idx INTEGER PRIMARY KEY,
			chapter INTEGER,
			verse INTEGER,
			verseIdx INTEGER,
			contents_type INTEGER,
			contents TEXT)`); err != nil {
			t.Fatalf("create %s: %v", table, err)
		}
	}
	rows := []struct {
		table        string
		chapter, vse int
		text         string
	}{
		{"Ruth", 1, 16, lang + " ruth 16"},
		{"Ruth", 1, 17, lang + " ruth 17"},
		{"SecondThessalonians", 1, 8, lang + " thess 8"},
		{"SecondThessalonians", 1, 9, lang + " thess 9"},
	}
	for _, r := range rows {
		if _, err := db.Exec(`INSERT INTO "`+r.table+`" (chapter, verse, verseIdx, contents_type, contents) VALUES (?, ?, 0, 1, ?)`,
			r.chapter, r.vse, r.text); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return path
}

func newRunContext(t *testing.T, stdin string) (*runContext, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Port:        8080,
		OutputDir:   filepath.Join(dir, "output"),
		PrimaryDB:   createBible(t, dir, "kor.db", "kor"),
		SecondaryDB: createBible(t, dir, "eng.db", "eng"),
		LogLevel:    "info",
		LogFormat:   "json",
	}
	out := &bytes.Buffer{}
	return &runContext{cfg: cfg, in: strings.NewReader(stdin), out: out}, out
}

func TestParseCmd_Run(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		stdin string
		want  string
	}{
		{"argument", "살후1:8-9 그리고 계20:10,14-15", "", "데살로니가후서 1:8-9\n요한계시록 20:10,14-15\n"},
		{"stdin", "", "본문 룻1:16~17\n", "룻기 1:16-17\n"},
		{"nothing found", "안녕하세요", "", ""},
		{"unknown book", "없1:1", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, out := newRunContext(t, tt.stdin)
			if err := (&ParseCmd{Text: tt.text}).Run(rc); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestParseCmd_TooLong(t *testing.T) {
	rc, _ := newRunContext(t, strings.Repeat("a", validation.MaxTextLength+1))
	if err := (&ParseCmd{}).Run(rc); err == nil {
		t.Error("expected error for oversized input")
	}
}

func TestShowCmd_Run(t *testing.T) {
	rc, out := newRunContext(t, "")

	cmd := &ShowCmd{Reference: []string{"데살로니가후서", "1:8-9"}}
	if err := cmd.Run(rc); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := "데살로니가후서 1:8-9\n8. kor thess 8\n8. eng thess 8\n9. kor thess 9\n9. eng thess 9\n"
	if out.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestShowCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		ref  []string
	}{
		{"abbreviation", []string{"살후1:8"}},
		{"unknown book", []string{"없는책", "1:1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, _ := newRunContext(t, "")
			if err := (&ShowCmd{Reference: tt.ref}).Run(rc); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestShowCmd_MissingDatabase(t *testing.T) {
	rc, _ := newRunContext(t, "")
	rc.cfg.PrimaryDB = filepath.Join(t.TempDir(), "missing.db")
	if err := (&ShowCmd{Reference: []string{"룻기 1:16"}}).Run(rc); err == nil {
		t.Error("expected error for a missing database")
	}
}

func TestBuildCmd_Run(t *testing.T) {
	rc, out := newRunContext(t, "")
	outDir := filepath.Join(t.TempDir(), "decks")

	cmd := &BuildCmd{References: []string{"데살로니가후서 1:8-9", "룻기 1:16-17"}, Out: outDir, Workers: 2}
	if err := cmd.Run(rc); err != nil {
		t.Fatalf("Run failed: %v\n%s", err, out.String())
	}

	for _, name := range []string{"2 Thessalonians 1_8-9.pptx", "Ruth 1_16-17.pptx", pptx.FallbackName} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if !strings.Contains(out.String(), "(2 slides)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestBuildCmd_FromText(t *testing.T) {
	rc, out := newRunContext(t, "본문은 룻1:16 과 살후1:8~9 그리고 룻1:18")

	if err := (&BuildCmd{FromText: true, Workers: 2}).Run(rc); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out.String())
	}
	if lines[2] != "룻기 1:18: no verses found" {
		t.Errorf("last line = %q", lines[2])
	}
	if _, err := os.Stat(filepath.Join(rc.cfg.OutputDir, "Ruth 1_16.pptx")); err != nil {
		t.Errorf("deck not written to configured output dir: %v", err)
	}
}

func TestBuildCmd_Errors(t *testing.T) {
	rc, _ := newRunContext(t, "")
	if err := (&BuildCmd{}).Run(rc); err == nil {
		t.Error("expected error without references")
	}

	rc, out := newRunContext(t, "")
	err := (&BuildCmd{References: []string{"룻기 1:16", "잘못된"}}).Run(rc)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("error = %v, want 1 of 2 builds failed", err)
	}
	if !strings.Contains(out.String(), "잘못된: error:") {
		t.Errorf("output = %q", out.String())
	}
}

func TestInspectCmd_Run(t *testing.T) {
	rc, out := newRunContext(t, "")
	if err := (&BuildCmd{References: []string{"룻기 1:16-17"}}).Run(rc); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(rc.cfg.OutputDir, "Ruth 1_16-17.pptx")

	out.Reset()
	if err := (&InspectCmd{Path: path}).Run(rc); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, want := range []string{"slides:        2", "sldId 256 -> rId11", "sldId 257 -> rId12"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := (&InspectCmd{Path: path, JSON: true}).Run(rc); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"relationship_id": "rId12"`) {
		t.Errorf("JSON output = %s", out.String())
	}
}

func TestVersionCmd_Run(t *testing.T) {
	rc, out := newRunContext(t, "")
	if err := (&VersionCmd{}).Run(rc); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "versedeck version "+version) {
		t.Errorf("output = %q", out.String())
	}
}

func TestCLIParse(t *testing.T) {
	parser, err := kong.New(&CLI, kong.Name("versedeck"), kong.Exit(func(int) {}))
	if err != nil {
		t.Fatalf("kong.New failed: %v", err)
	}

	tests := []struct {
		args    []string
		command string
	}{
		{[]string{"parse", "살후1:8"}, "parse"},
		{[]string{"show", "룻기", "1:16"}, "show"},
		{[]string{"build", "--strip", "룻기 1:16"}, "build"},
		{[]string{"--log-level", "debug", "version"}, "version"},
		{[]string{"web", "--port", "9000"}, "web"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			ctx, err := parser.Parse(tt.args)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got := strings.Fields(ctx.Command())[0]; got != tt.command {
				t.Errorf("command = %q, want %q", got, tt.command)
			}
		})
	}
	if CLI.Web.Port != 9000 {
		t.Errorf("web port = %d, want 9000", CLI.Web.Port)
	}
}
