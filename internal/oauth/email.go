package oauth

import "strings"

// SelectEmail picks the address to use from a provider email list:
// primary and verified first, then the first verified, then the first entry.
func SelectEmail(entries []EmailEntry) string {
	for _, e := range entries {
		if e.Primary && e.Verified && e.Email != "" {
			return e.Email
		}
	}
	for _, e := range entries {
		if e.Verified && e.Email != "" {
			return e.Email
		}
	}
	for _, e := range entries {
		if e.Email != "" {
			return e.Email
		}
	}
	return ""
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
