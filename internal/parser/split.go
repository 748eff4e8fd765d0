// Package parser derives note titles from raw text and encodes notes as
// Markdown documents with YAML frontmatter.
package parser

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/cloudnotes/internal/models"
)

// TitleLimit is the maximum title length, in characters, of single-line text.
const TitleLimit = 100

// Split converts raw editor text into a title and content.
//
// Text without a newline becomes the title; past TitleLimit characters the
// remainder moves to the content behind a synthetic newline. Otherwise the
// text is split at the first newline, which stays at the start of the
// content. LastModified is always now.
func Split(raw string, now time.Time) models.Information {
	info := models.Information{LastModified: now}

	i := strings.IndexByte(raw, '\n')
	switch {
	case i >= 0:
		info.Title = raw[:i]
		info.Content = raw[i:]
	case utf8.RuneCountInString(raw) <= TitleLimit:
		info.Title = raw
	default:
		cut := runeOffset(raw, TitleLimit)
		info.Title = raw[:cut]
		info.Content = "\n" + raw[cut:]
	}
	return info
}

// Join rebuilds the editor text of a note.
func Join(title, content string) string {
	return title + content
}

// runeOffset returns the byte offset of the n-th rune in s.
func runeOffset(s string, n int) int {
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}
