package cellwidth

import "testing"

func TestWidthASCII(t *testing.T) {
	if got := Width("Hello", 4); got != 5 {
		t.Fatalf("Width(Hello) = %d, want 5", got)
	}
}

func TestWidthTabAndNewline(t *testing.T) {
	if got := Width("a\tb\r\n", 4); got != 6 {
		t.Fatalf("Width(a\\tb\\r\\n) = %d, want 6", got)
	}
}

func TestWidthCJK(t *testing.T) {
	if got := Width("こんにちは", 4); got != 10 {
		t.Fatalf("Width(こんにちは) = %d, want 10", got)
	}
}

func TestWidthEmojiModifier(t *testing.T) {
	// waving hand + skin tone modifier is one grapheme cluster, 2 cells.
	if got := Width("\U0001F44B\U0001F3FB", 4); got != 2 {
		t.Fatalf("Width(emoji+modifier) = %d, want 2", got)
	}
}

func TestPrevNextGrapheme(t *testing.T) {
	text := "abc"
	if got := NextGrapheme(text, 0); got != 1 {
		t.Fatalf("NextGrapheme(0) = %d, want 1", got)
	}
	if got := PrevGrapheme(text, 3); got != 2 {
		t.Fatalf("PrevGrapheme(3) = %d, want 2", got)
	}
	if got := PrevGrapheme(text, 0); got != 0 {
		t.Fatalf("PrevGrapheme(0) = %d, want 0", got)
	}
	if got := NextGrapheme(text, 3); got != 3 {
		t.Fatalf("NextGrapheme(3) = %d, want 3", got)
	}
}

func TestIndexAtCell(t *testing.T) {
	text := "ab"
	if got := IndexAtCell(text, 0); got != 0 {
		t.Fatalf("IndexAtCell(0) = %d, want 0", got)
	}
	if got := IndexAtCell(text, 1); got != 1 {
		t.Fatalf("IndexAtCell(1) = %d, want 1", got)
	}
	if got := IndexAtCell(text, 100); got != 2 {
		t.Fatalf("IndexAtCell(100) = %d, want 2", got)
	}
}

func TestWordBoundaries(t *testing.T) {
	text := "foo bar_baz qux"
	if !IsWordStart(text, 0) {
		t.Fatal("expected word start at 0")
	}
	if IsWordStart(text, 3) {
		t.Fatal("space at 3 is not a word start")
	}
	if !IsWordStart(text, 4) {
		t.Fatal("expected word start at 4 (b in bar_baz)")
	}
	if !IsWordEnd(text, 3) {
		t.Fatal("expected word end at 3 (after foo)")
	}
	if got := WordStart(text, 11); got != 4 {
		t.Fatalf("WordStart(11) = %d, want 4", got)
	}
	if got := WordEnd(text, 5); got != 11 {
		t.Fatalf("WordEnd(5) = %d, want 11", got)
	}
}

func TestWordBoundariesUnderscore(t *testing.T) {
	text := "my_var"
	if got := WordEnd(text, 0); got != len(text) {
		t.Fatalf("WordEnd should treat underscore as word char, got %d want %d", got, len(text))
	}
}
