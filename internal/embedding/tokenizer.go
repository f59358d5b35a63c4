package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer produces model inputs (input_ids, attention_mask, token_type_ids)
// padded to maxTokens.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

const defaultMaxTokens = 256

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs. It keeps
// the encoder usable when no vocabulary ships with the model.
type SimpleTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens < 2 {
		maxTokens = defaultMaxTokens
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = 101 // [CLS]
	attentionMask[0] = 1

	pos := 1
	for _, word := range SplitWords(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(HashString(word) % 30000)
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = 102 // [SEP]
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

// WordPieceTokenizer implements BERT-style basic + WordPiece tokenization over a
// vocab.txt (one token per line, line number is the id). It recognizes both the
// BERT ([CLS], [SEP]) and RoBERTa/MPNet (<s>, </s>) special tokens.
type WordPieceTokenizer struct {
	vocab        map[string]int64
	lowerCase    bool
	cls          int64
	sep          int64
	pad          int64
	unk          int64
	maxWordChars int
}

// LoadWordPieceTokenizer reads a vocab file.
func LoadWordPieceTokenizer(path string, lowerCase bool) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		tok := strings.TrimRight(scanner.Text(), "\r")
		if _, dup := vocab[tok]; !dup {
			vocab[tok] = id
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocab: %w", err)
	}
	return NewWordPieceTokenizer(vocab, lowerCase)
}

// NewWordPieceTokenizer builds a tokenizer from an in-memory vocabulary.
func NewWordPieceTokenizer(vocab map[string]int64, lowerCase bool) (*WordPieceTokenizer, error) {
	t := &WordPieceTokenizer{vocab: vocab, lowerCase: lowerCase, maxWordChars: 100}
	var ok bool
	if t.cls, ok = lookupAny(vocab, "[CLS]", "<s>"); !ok {
		return nil, fmt.Errorf("vocab has no start token ([CLS] or <s>)")
	}
	if t.sep, ok = lookupAny(vocab, "[SEP]", "</s>"); !ok {
		return nil, fmt.Errorf("vocab has no end token ([SEP] or </s>)")
	}
	if t.unk, ok = lookupAny(vocab, "[UNK]", "<unk>"); !ok {
		return nil, fmt.Errorf("vocab has no unknown token ([UNK] or <unk>)")
	}
	t.pad, _ = lookupAny(vocab, "[PAD]", "<pad>")
	return t, nil
}

func lookupAny(vocab map[string]int64, names ...string) (int64, bool) {
	for _, n := range names {
		if id, ok := vocab[n]; ok {
			return id, true
		}
	}
	return 0, false
}

// Tokenize produces [start] pieces... [end] followed by padding, truncated to maxTokens.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens < 2 {
		maxTokens = defaultMaxTokens
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = t.pad
	}

	inputIDs[0] = t.cls
	attentionMask[0] = 1
	pos := 1

fill:
	for _, word := range t.basicTokens(text) {
		for _, id := range t.wordPiece(word) {
			if pos >= maxTokens-1 {
				break fill
			}
			inputIDs[pos] = id
			attentionMask[pos] = 1
			pos++
		}
	}
	inputIDs[pos] = t.sep
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

// basicTokens cleans text, splits on whitespace and isolates punctuation.
func (t *WordPieceTokenizer) basicTokens(text string) []string {
	if t.lowerCase {
		text = stripAccents(strings.ToLower(text))
	}
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar:
		case unicode.IsSpace(r):
			flush()
		case unicode.IsControl(r):
		case isPunct(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// wordPiece splits one word greedily into the longest vocabulary pieces.
func (t *WordPieceTokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > t.maxWordChars {
		return []int64{t.unk}
	}
	var ids []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		found := int64(-1)
		for ; end > start; end-- {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if id, ok := t.vocab[sub]; ok {
				found = id
				break
			}
		}
		if found < 0 {
			return []int64{t.unk}
		}
		ids = append(ids, found)
		start = end
	}
	return ids
}

func stripAccents(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isPunct treats all non-alphanumeric ASCII symbols as punctuation, like BERT.
func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

// SplitWords splits text on whitespace and returns non-empty words.
func SplitWords(text string) []string {
	return strings.Fields(text)
}

// HashString returns a deterministic hash for use as a simple token ID.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	if h < 0 { // math.MinInt
		h = 0
	}
	return h
}
