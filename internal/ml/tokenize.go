// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ml

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Reserved vocabulary tokens, BERT convention.
const (
	tokenPad = "[PAD]"
	tokenUnk = "[UNK]"
	tokenCls = "[CLS]"
	tokenSep = "[SEP]"
)

// word is a surface token with byte offsets into the source text.
type word struct {
	Text  string
	Start int
	End   int
}

// splitWords breaks text into words on whitespace, keeping punctuation
// runs as separate tokens so offsets stay aligned with the model's
// tokenizer. Offsets are byte positions into the original text.
func splitWords(text string) []word {
	var words []word
	start := -1
	wasLetter := false
	flush := func(end int) {
		if start >= 0 {
			words = append(words, word{Text: text[start:end], Start: start, End: end})
			start = -1
		}
	}
	for i, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush(i)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if start >= 0 && !wasLetter {
				flush(i)
			}
			if start < 0 {
				start = i
			}
			wasLetter = true
		default:
			if start >= 0 && wasLetter {
				flush(i)
			}
			if start < 0 {
				start = i
			}
			wasLetter = false
		}
	}
	flush(len(text))
	return words
}

// Vocab maps surface words to model input ids.
type Vocab struct {
	ids map[string]int
	pad int
	unk int
	cls int
	sep int
}

// LoadVocab reads a vocabulary file with one token per line, ids
// assigned by line order. The file must define the reserved tokens.
func LoadVocab(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	v := &Vocab{ids: make(map[string]int), pad: -1, unk: -1, cls: -1, sep: -1}
	scanner := bufio.NewScanner(f)
	id := 0
	for scanner.Scan() {
		tok := strings.TrimRight(scanner.Text(), "\r\n")
		if tok == "" {
			continue
		}
		v.ids[tok] = id
		switch tok {
		case tokenPad:
			v.pad = id
		case tokenUnk:
			v.unk = id
		case tokenCls:
			v.cls = id
		case tokenSep:
			v.sep = id
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	if v.pad < 0 || v.unk < 0 || v.cls < 0 || v.sep < 0 {
		return nil, fmt.Errorf("vocab %s missing reserved tokens", path)
	}
	return v, nil
}

func (v *Vocab) id(w string) int {
	if id, ok := v.ids[w]; ok {
		return id
	}
	if id, ok := v.ids[strings.ToLower(w)]; ok {
		return id
	}
	return v.unk
}

// TokenizedInput is one encoded sequence ready for inference. Words
// occupy input positions 1..len(Words); position 0 is [CLS] and the
// position after the last word is [SEP].
type TokenizedInput struct {
	Words         []word
	InputIDs      []int
	AttentionMask []int
}

// Encode builds the model input for a word sequence, truncating to
// maxLen positions including the [CLS] and [SEP] markers.
func (v *Vocab) Encode(words []word, maxLen int) *TokenizedInput {
	if maxLen < 3 {
		maxLen = 3
	}
	if len(words) > maxLen-2 {
		words = words[:maxLen-2]
	}
	ids := make([]int, maxLen)
	mask := make([]int, maxLen)
	ids[0] = v.cls
	mask[0] = 1
	for i, w := range words {
		ids[i+1] = v.id(w.Text)
		mask[i+1] = 1
	}
	ids[len(words)+1] = v.sep
	mask[len(words)+1] = 1
	for i := len(words) + 2; i < maxLen; i++ {
		ids[i] = v.pad
	}
	return &TokenizedInput{Words: words, InputIDs: ids, AttentionMask: mask}
}
