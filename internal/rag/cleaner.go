package rag

import (
	"regexp"
	"strings"
)

var (
	multiNewlineRe       = regexp.MustCompile(`\n{3,}`)
	multiSpaceRe         = regexp.MustCompile(` {2,}`)
	spaceAroundNewlineRe = regexp.MustCompile(` *\n *`)
	blankRunRe           = regexp.MustCompile(`\n\n+`)
	bulletRe             = regexp.MustCompile("[•‣⁃]")
	nonASCIIRe           = regexp.MustCompile(`[^\x00-\x7F\n]+`)
	pageNumberRe         = regexp.MustCompile(`(?m)^\d+ *$`)
	pageLabelRe          = regexp.MustCompile(`(?m)^Page \d+ *$`)
)

// CleanText normalizes whitespace in extracted document text: strips control
// bytes, collapses runs of blank lines and spaces, removes carriage returns
// and trims the result.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\t", " ")
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = spaceAroundNewlineRe.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// CleanForChunking prepares text for the chunker. It keeps paragraph
// structure (blank lines) but drops PDF artifacts: bullet glyphs, stray
// non-ASCII runs, and bare page-number lines.
func CleanForChunking(text string) string {
	text = CleanText(text)
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	text = bulletRe.ReplaceAllString(text, "")
	text = nonASCIIRe.ReplaceAllString(text, " ")
	text = pageNumberRe.ReplaceAllString(text, "")
	text = pageLabelRe.ReplaceAllString(text, "")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
