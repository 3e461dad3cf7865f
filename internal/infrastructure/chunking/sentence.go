package chunking

import (
	"regexp"
	"strings"
)

const (
	charsPerToken         = 4
	DefaultMinTokens      = 400
	DefaultMaxTokens      = 800
	DefaultOverlapPercent = 15
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// SentenceChunker packs whole sentences into chunks of roughly minTokens..maxTokens,
// carrying a tail of the previous chunk into the next one.
type SentenceChunker struct {
	MinChars     int
	MaxChars     int
	OverlapChars int
}

func NewSentenceChunker(minTokens, maxTokens, overlapPercent int) *SentenceChunker {
	if minTokens <= 0 {
		minTokens = DefaultMinTokens
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if minTokens > maxTokens {
		minTokens = maxTokens
	}
	if overlapPercent < 0 || overlapPercent >= 100 {
		overlapPercent = DefaultOverlapPercent
	}
	maxChars := maxTokens * charsPerToken
	return &SentenceChunker{
		MinChars:     minTokens * charsPerToken,
		MaxChars:     maxChars,
		OverlapChars: maxChars * overlapPercent / 100,
	}
}

func (c *SentenceChunker) Split(text string) []string {
	var (
		chunks  []string
		current string
	)

	for _, part := range sentenceBoundary.Split(text, -1) {
		sentence := strings.TrimSpace(part)
		if sentence == "" {
			continue
		}
		sentence += "."

		currentLen := runeLen(current)
		if currentLen+runeLen(sentence) > c.MaxChars && currentLen >= c.MinChars {
			chunks = append(chunks, strings.TrimSpace(current))
			current = tail(current, c.OverlapChars) + " " + sentence
			continue
		}
		if current == "" {
			current = sentence
		} else {
			current += " " + sentence
		}
	}

	last := strings.TrimSpace(current)
	switch {
	case runeLen(last) >= c.MinChars:
		chunks = append(chunks, last)
	case len(chunks) > 0 && last != "":
		chunks[len(chunks)-1] += " " + last
	case last != "":
		chunks = append(chunks, last)
	}
	return chunks
}

func runeLen(s string) int {
	return len([]rune(s))
}

func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
