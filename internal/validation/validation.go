package validation

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxKeywordLength bounds dream keywords in runes.
const MaxKeywordLength = 50

// ValidateKeyword accepts any non-empty keyword without whitespace or control characters.
// Dream keywords are CJK words, so no character class restriction applies beyond that.
func ValidateKeyword(keyword string) bool {
	if keyword == "" || utf8.RuneCountInString(keyword) > MaxKeywordLength {
		return false
	}
	for _, r := range keyword {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// NormalizeKeyword trims surrounding whitespace, including full-width spaces.
func NormalizeKeyword(keyword string) string {
	return strings.TrimFunc(keyword, unicode.IsSpace)
}

// HasHTTPScheme reports whether s starts with http:// or https://, case-insensitively.
func HasHTTPScheme(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}
