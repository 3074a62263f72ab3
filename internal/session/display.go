package session

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DisplayNameFromEmail capitalises the local part of an e-mail address:
// "alice@site.com" becomes "Alice".
func DisplayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	r, size := utf8.DecodeRuneInString(local)
	if r == utf8.RuneError {
		return local
	}
	return string(unicode.ToUpper(r)) + local[size:]
}

// Initials returns up to two upper-case initials for an avatar
// placeholder, "U" when the name is empty.
func Initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "U"
	}
	out := firstUpper(parts[0])
	if len(parts) > 1 {
		out += firstUpper(parts[1])
	}
	return out
}

func firstUpper(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r))
}
