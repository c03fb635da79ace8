package logger

import "strings"

// RedactEmail masks a subscriber address so logs never carry a usable one.
// The first two characters of the local part survive ("jane.doe@example.com"
// becomes "ja***@example.com"); local parts of two characters or fewer are
// masked entirely. Anything that does not look like an address at all is
// replaced wholesale.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) <= 2 {
		return "***@" + domain
	}
	return local[:2] + "***@" + domain
}
