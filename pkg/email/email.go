// Package email derives delivery addresses and salutations for claim owners.
package email

import (
	"strings"
	"unicode"
)

// Address returns ownerID when it already looks like an address, and
// ownerID@domain otherwise. It returns "" when neither yields an address.
func Address(ownerID, domain string) string {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return ""
	}
	if looksLikeAddress(ownerID) {
		return strings.ToLower(ownerID)
	}
	domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
	if domain == "" {
		return ""
	}
	local := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("._-+", r) {
			return unicode.ToLower(r)
		}
		return '-'
	}, ownerID)
	return local + "@" + strings.ToLower(domain)
}

func looksLikeAddress(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at == strings.LastIndexByte(s, '@') && strings.Contains(s[at+1:], ".")
}

// DeriveNameFromEmail guesses first and last names from the local part,
// falling back to "Customer".
func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "Customer", "Customer"
	}

	first := capitalize(parts[0])
	last := "Customer"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

// Greeting returns a salutation line for address.
func Greeting(address string) string {
	first, _ := DeriveNameFromEmail(address)
	return "Hello " + first + ","
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
