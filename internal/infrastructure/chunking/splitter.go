package chunking

import "strings"

// Most notes fit in one block; only unusually long notes get split, on
// sentence boundaries, so each block stays independently embeddable.
type Splitter struct {
	MaxBlockSize int
}

func NewSplitter(maxBlockSize int) *Splitter {
	if maxBlockSize <= 0 {
		maxBlockSize = 8000
	}
	return &Splitter{MaxBlockSize: maxBlockSize}
}

func (s *Splitter) Split(text string) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if len(clean) <= s.MaxBlockSize {
		return []string{clean}
	}

	sentences := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var blocks []string
	var current strings.Builder
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(sentence)+1 > s.MaxBlockSize {
			blocks = append(blocks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(sentence)
		current.WriteString(". ")
	}
	if strings.TrimSpace(current.String()) != "" {
		blocks = append(blocks, strings.TrimSpace(current.String()))
	}
	if len(blocks) == 0 {
		return []string{clean}
	}
	return blocks
}
