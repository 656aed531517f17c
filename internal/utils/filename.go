package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes a string safe to use as a filename. Invalid
// characters are stripped, whitespace is normalized and the result is
// truncated to leave room for an extension.
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = whitespaceChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	if len(filename) > 200 {
		filename = strings.TrimSpace(filename[:200])
	}

	if filename == "" {
		filename = "Untitled"
	}

	return filename
}

// TitleAuthorFromFilename derives a title and author from a book filename.
// Scanned libraries commonly name files "Title - Author.pdf"; when no
// separator is present the whole stem becomes the title.
func TitleAuthorFromFilename(filename string) (title, author string) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = multipleSpaces.ReplaceAllString(strings.ReplaceAll(stem, "_", " "), " ")
	stem = strings.TrimSpace(stem)

	if idx := strings.LastIndex(stem, " - "); idx > 0 {
		title = strings.TrimSpace(stem[:idx])
		author = strings.TrimSpace(stem[idx+3:])
		return title, author
	}
	return stem, ""
}
