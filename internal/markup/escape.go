// Package markup renders analysis results as Telegram MarkdownV2 text.
package markup

import "strings"

// reserved is the MarkdownV2 character set that must be backslash-escaped
// in free text. Backtick-delimited spans are excluded from escaping.
const reserved = "_*[]()~`>#+-=|{}.!"

// Escape prefixes every MarkdownV2 reserved character with a backslash.
// It is deliberately not idempotent: escaping twice double-escapes, so each
// raw string is escaped exactly once before display.
func Escape(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, r := range text {
		if r < 0x80 && strings.ContainsRune(reserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
