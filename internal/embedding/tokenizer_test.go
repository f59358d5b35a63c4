package embedding

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _ := tok.Tokenize("hello world", 10)
	if len(ids) != 10 {
		t.Errorf("len(ids)=%d", len(ids))
	}
	if ids[0] != 101 {
		t.Errorf("expected CLS 101, got %d", ids[0])
	}
	if ids[3] != 102 {
		t.Errorf("expected SEP 102 after two words, got %d", ids[3])
	}
	var active int
	for _, m := range attn {
		active += int(m)
	}
	if active != 4 {
		t.Errorf("attention covers %d tokens, want 4", active)
	}
}

func TestSimpleTokenizer_Truncates(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _ := tok.Tokenize(strings.Repeat("word ", 50), 8)
	if ids[7] != 102 || attn[7] != 1 {
		t.Errorf("last position should hold SEP, got %d", ids[7])
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("  a  b\tc\n ")
	if len(words) != 3 {
		t.Errorf("expected 3 words, got %v", words)
	}
	if len(SplitWords("")) != 0 {
		t.Error("empty string should yield no words")
	}
}

func TestHashString(t *testing.T) {
	h := HashString("abc")
	if h == 0 {
		t.Error("hash should be non-zero")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
}

var testVocab = []string{"[PAD]", "[UNK]", "[CLS]", "[SEP]", "hello", "world", "un", "##aff", "##able", ",", "!"}

func writeVocab(t *testing.T, tokens []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte(strings.Join(tokens, "\n")+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWordPieceTokenizer(t *testing.T) {
	tok, err := LoadWordPieceTokenizer(writeVocab(t, testVocab), true)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		text      string
		maxTokens int
		want      []int64
	}{
		{"pieces and punctuation", "Hello, unaffable world!", 12, []int64{2, 4, 9, 6, 7, 8, 5, 10, 3, 0, 0, 0}},
		{"accents stripped", "Héllo", 4, []int64{2, 4, 3, 0}},
		{"unknown word", "hello xyz", 5, []int64{2, 4, 1, 3, 0}},
		{"truncated", "hello world hello world", 4, []int64{2, 4, 5, 3}},
		{"empty", "", 3, []int64{2, 3, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, mask, types := tok.Tokenize(tt.text, tt.maxTokens)
			if len(ids) != len(tt.want) || len(mask) != len(tt.want) || len(types) != len(tt.want) {
				t.Fatalf("lengths = %d/%d/%d, want %d", len(ids), len(mask), len(types), len(tt.want))
			}
			for i := range tt.want {
				if ids[i] != tt.want[i] {
					t.Fatalf("ids = %v, want %v", ids, tt.want)
				}
				wantMask := int64(0)
				if tt.want[i] != 0 {
					wantMask = 1
				}
				if mask[i] != wantMask {
					t.Fatalf("mask = %v for ids %v", mask, ids)
				}
			}
		})
	}
}

func TestWordPieceTokenizer_CaseSensitive(t *testing.T) {
	tok, err := LoadWordPieceTokenizer(writeVocab(t, testVocab), false)
	if err != nil {
		t.Fatal(err)
	}
	ids, _, _ := tok.Tokenize("Hello", 3)
	if ids[1] != 1 {
		t.Errorf("uppercase word should be unknown without lower_case, got %d", ids[1])
	}
}

func TestWordPieceTokenizer_MPNetSpecials(t *testing.T) {
	tok, err := NewWordPieceTokenizer(map[string]int64{"<s>": 0, "<pad>": 1, "</s>": 2, "<unk>": 3, "hi": 7}, true)
	if err != nil {
		t.Fatal(err)
	}
	ids, _, _ := tok.Tokenize("hi", 4)
	want := []int64{0, 7, 2, 1}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestNewWordPieceTokenizer_MissingSpecials(t *testing.T) {
	if _, err := NewWordPieceTokenizer(map[string]int64{"hello": 0}, true); err == nil {
		t.Error("expected error for vocab without special tokens")
	}
	if _, err := LoadWordPieceTokenizer(filepath.Join(t.TempDir(), "missing.txt"), true); err == nil {
		t.Error("expected error for missing vocab file")
	}
}
