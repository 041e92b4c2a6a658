// Package canon holds the fixed 66-book canon used to resolve Korean book
// abbreviations to full names and to their English display names.
package canon

import "sort"

// Book is one entry of the canon.
type Book struct {
	// Index is the 1-based canonical position (Genesis = 1, Revelation = 66).
	Index int `json:"index"`

	// Abbreviation is the short Korean form used in citations (e.g. "창", "살후").
	Abbreviation string `json:"abbreviation"`

	// FullName is the Korean book name (e.g. "창세기").
	FullName string `json:"full_name"`

	// DisplayName is the English book name shown on slides (e.g. "1 Samuel").
	DisplayName string `json:"display_name"`

	// Table is the verse-store table holding the book's text (e.g. "FirstSamuel").
	Table string `json:"-"`
}

var books = [...]Book{
	{1, "창", "창세기", "Genesis", "Genesis"},
	{2, "출", "출애굽기", "Exodus", "Exodus"},
	{3, "레", "레위기", "Leviticus", "Leviticus"},
	{4, "민", "민수기", "Numbers", "Numbers"},
	{5, "신", "신명기", "Deuteronomy", "Deuteronomy"},
	{6, "수", "여호수아", "Joshua", "Joshua"},
	{7, "삿", "사사기", "Judges", "Judges"},
	{8, "룻", "룻기", "Ruth", "Ruth"},
	{9, "삼상", "사무엘상", "1 Samuel", "FirstSamuel"},
	{10, "삼하", "사무엘하", "2 Samuel", "SecondSamuel"},
	{11, "왕상", "열왕기상", "1 Kings", "FirstKings"},
	{12, "왕하", "열왕기하", "2 Kings", "SecondKings"},
	{13, "대상", "역대상", "1 Chronicles", "FirstChronicles"},
	{14, "대하", "역대하", "2 Chronicles", "SecondChronicles"},
	{15, "스", "에스라", "Ezra", "Ezra"},
	{16, "느", "느헤미야", "Nehemiah", "Nehemiah"},
	{17, "에", "에스더", "Esther", "Esther"},
	{18, "욥", "욥기", "Job", "Job"},
	{19, "시", "시편", "Psalms", "Psalms"},
	{20, "잠", "잠언", "Proverbs", "Proverbs"},
	{21, "전", "전도서", "Ecclesiastes", "Ecclesiastes"},
	{22, "아", "아가", "Song of Songs", "SongOfSongs"},
	{23, "사", "이사야", "Isaiah", "Isaiah"},
	{24, "렘", "예레미야", "Jeremiah", "Jeremiah"},
	{25, "애", "예레미야애가", "Lamentations", "Lamentations"},
	{26, "겔", "에스겔", "Ezekiel", "Ezekiel"},
	{27, "단", "다니엘", "Daniel", "Daniel"},
	{28, "호", "호세아", "Hosea", "Hosea"},
	{29, "욜", "요엘", "Joel", "Joel"},
	{30, "암", "아모스", "Amos", "Amos"},
	{31, "옵", "오바댜", "Obadiah", "Obadiah"},
	{32, "욘", "요나", "Jonah", "Jonah"},
	{33, "미", "미가", "Micah", "Micah"},
	{34, "나", "나훔", "Nahum", "Nahum"},
	{35, "합", "하박국", "Habakkuk", "Habakkuk"},
	{36, "습", "스바냐", "Zephaniah", "Zephaniah"},
	{37, "학", "학개", "Haggai", "Haggai"},
	{38, "슥", "스가랴", "Zechariah", "Zechariah"},
	{39, "말", "말라기", "Malachi", "Malachi"},
	{40, "마", "마태복음", "Matthew", "Matthew"},
	{41, "막", "마가복음", "Mark", "Mark"},
	{42, "눅", "누가복음", "Luke", "Luke"},
	{43, "요", "요한복음", "John", "John"},
	{44, "행", "사도행전", "Acts", "Acts"},
	{45, "롬", "로마서", "Romans", "Romans"},
	{46, "고전", "고린도전서", "1 Corinthians", "FirstCorinthians"},
	{47, "고후", "고린도후서", "2 Corinthians", "SecondCorinthians"},
	{48, "갈", "갈라디아서", "Galatians", "Galatians"},
	{49, "엡", "에베소서", "Ephesians", "Ephesians"},
	{50, "빌", "빌립보서", "Philippians", "Philippians"},
	{51, "골", "골로새서", "Colossians", "Colossians"},
	{52, "살전", "데살로니가전서", "1 Thessalonians", "FirstThessalonians"},
	{53, "살후", "데살로니가후서", "2 Thessalonians", "SecondThessalonians"},
	{54, "딤전", "디모데전서", "1 Timothy", "FirstTimothy"},
	{55, "딤후", "디모데후서", "2 Timothy", "SecondTimothy"},
	{56, "딛", "디도서", "Titus", "Titus"},
	{57, "몬", "빌레몬서", "Philemon", "Philemon"},
	{58, "히", "히브리서", "Hebrews", "Hebrews"},
	{59, "약", "야고보서", "James", "James"},
	{60, "벧전", "베드로전서", "1 Peter", "FirstPeter"},
	{61, "벧후", "베드로후서", "2 Peter", "SecondPeter"},
	{62, "요일", "요한일서", "1 John", "FirstJohn"},
	{63, "요이", "요한이서", "2 John", "SecondJohn"},
	{64, "요삼", "요한삼서", "3 John", "ThirdJohn"},
	{65, "유", "유다서", "Jude", "Jude"},
	{66, "계", "요한계시록", "Revelation", "Revelation"},
}

// Count is the number of books in the canon.
const Count = len(books)

var (
	byAbbreviation = make(map[string]Book, Count)
	byFullName     = make(map[string]Book, Count)
	byDisplayName  = make(map[string]Book, Count)
)

func init() {
	for _, b := range books {
		byAbbreviation[b.Abbreviation] = b
		byFullName[b.FullName] = b
		byDisplayName[b.DisplayName] = b
	}
}

// Resolve looks up a book by its exact abbreviation.
// An unknown abbreviation is not an error; callers drop the candidate.
func Resolve(abbreviation string) (Book, bool) {
	b, ok := byAbbreviation[abbreviation]
	return b, ok
}

// ByFullName looks up a book by its Korean full name.
func ByFullName(name string) (Book, bool) {
	b, ok := byFullName[name]
	return b, ok
}

// ByDisplayName looks up a book by its English display name.
func ByDisplayName(name string) (Book, bool) {
	b, ok := byDisplayName[name]
	return b, ok
}

// All returns the canon in canonical order. The slice is a copy.
func All() []Book {
	out := make([]Book, Count)
	copy(out, books[:])
	return out
}

// FullNames returns the Korean full names sorted lexically.
func FullNames() []string {
	names := make([]string, 0, Count)
	for _, b := range books {
		names = append(names, b.FullName)
	}
	sort.Strings(names)
	return names
}
