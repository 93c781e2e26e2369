package rcon

import (
	"strings"
	"unicode/utf8"
)

// SplitMessage breaks text into chunks of at most max runes. It prefers line
// boundaries, then word boundaries, and cuts words only when a single word
// is longer than max.
func SplitMessage(text string, max int) []string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	add := func(piece, sep string) {
		n := utf8.RuneCountInString(piece)
		if curLen > 0 && curLen+utf8.RuneCountInString(sep)+n > max {
			flush()
		}
		if curLen > 0 {
			cur.WriteString(sep)
			curLen += utf8.RuneCountInString(sep)
		}
		cur.WriteString(piece)
		curLen += n
	}

	for _, line := range strings.Split(text, "\n") {
		if utf8.RuneCountInString(line) <= max {
			add(line, "\n")
			continue
		}
		flush()
		for _, word := range strings.Fields(line) {
			for utf8.RuneCountInString(word) > max {
				flush()
				head, tail := cutRunes(word, max)
				chunks = append(chunks, head)
				word = tail
			}
			add(word, " ")
		}
		flush()
	}
	flush()
	return chunks
}

func cutRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
