package dispatch

import "strings"

// FormatAddress normalizes a destination into a channel address. Channel ids
// (@g.us) and already-formatted contacts (@c.us) pass through untouched.
// Mexican 12-digit numbers get the mobile trunk digit 1 inserted after the
// country code, which the channel provider requires.
func FormatAddress(dest string) string {
	if strings.HasSuffix(dest, "@g.us") || strings.HasSuffix(dest, "@c.us") {
		return dest
	}
	digits := digitsOnly(dest)
	if strings.HasPrefix(digits, "52") && len(digits) == 12 {
		digits = digits[:2] + "1" + digits[2:]
	}
	return digits + "@c.us"
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
