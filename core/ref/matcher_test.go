package ref

import (
	"slices"
	"sync"
	"testing"

	"golang.org/x/text/unicode/norm"
)

const bulletin = `
	살후1:8-9
	계20:10,14-15
	계21:8(두려워~~~~)
	벧후2:4 막9:42~48
	계22:15 마25:46`

func TestParseReferenceStrings(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single range",
			text: "살후1:8-9",
			want: []string{"데살로니가후서 1:8-9"},
		},
		{
			name: "bulletin",
			text: bulletin,
			want: []string{
				"데살로니가후서 1:8-9",
				"요한계시록 20:10,14-15",
				"요한계시록 21:8",
				"베드로후서 2:4",
				"마가복음 9:42-48",
				"요한계시록 22:15",
				"마태복음 25:46",
			},
		},
		{
			// Verse numbers are non-negative; 0 is kept as written.
			name: "verse zero",
			text: "창1:0",
			want: []string{"창세기 1:0"},
		},
		{
			name: "optional space",
			text: "오늘 본문은 시 23:1-6 입니다",
			want: []string{"시편 23:1-6"},
		},
		{
			name: "duplicates preserved",
			text: "창1:1 그리고 다시 창1:1",
			want: []string{"창세기 1:1", "창세기 1:1"},
		},
		{
			name: "unknown abbreviation dropped",
			text: "요한복음3:16",
			want: []string{},
		},
		{
			name: "inverted range only is dropped",
			text: "창1:5-3",
			want: []string{},
		},
		{
			name: "chapter zero dropped",
			text: "창0:1",
			want: []string{},
		},
		{
			name: "inverted fragment keeps reference",
			text: "창1:1,5-3",
			want: []string{"창세기 1:1,5-3"},
		},
		{
			name: "no references",
			text: "plain text 1:2",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReferenceStrings(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseReferenceStrings() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseReferencesVerses(t *testing.T) {
	refs := ParseReferences("계20:10,14-15")
	if len(refs) != 1 {
		t.Fatalf("got %d references, want 1", len(refs))
	}

	r := refs[0]
	if r.Book.FullName != "요한계시록" {
		t.Errorf("book = %q", r.Book.FullName)
	}
	if r.Chapter != 20 {
		t.Errorf("chapter = %d, want 20", r.Chapter)
	}
	if !slices.Equal(r.Verses, []int{10, 14, 15}) {
		t.Errorf("verses = %v, want [10 14 15]", r.Verses)
	}
}

func TestFindAllKeepsUnresolved(t *testing.T) {
	got := FindAll("복음3:16 계1:1~2")
	want := []Candidate{
		{BookToken: "복음", ChapterVerse: "3:16"},
		{BookToken: "계", ChapterVerse: "1:1-2"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("FindAll() = %+v, want %+v", got, want)
	}
}

func TestFindAllDecomposedHangul(t *testing.T) {
	text := norm.NFD.String("살후1:8-9")
	got := ParseReferenceStrings(text)
	if !slices.Equal(got, []string{"데살로니가후서 1:8-9"}) {
		t.Errorf("ParseReferenceStrings(NFD) = %q", got)
	}
}

func TestParseReferencesIdempotent(t *testing.T) {
	first := ParseReferenceStrings(bulletin)
	second := ParseReferenceStrings(bulletin)
	if !slices.Equal(first, second) {
		t.Errorf("second call = %q, first = %q", second, first)
	}
}

func TestParseReferencesConcurrent(t *testing.T) {
	want := ParseReferenceStrings(bulletin)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := ParseReferenceStrings(bulletin); !slices.Equal(got, want) {
				errs <- "concurrent parse diverged"
			}
		}()
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}
