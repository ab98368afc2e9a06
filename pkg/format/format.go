// Package format normalizes checkout form input as the user types.
package format

import "strings"

const (
	CardDigits   = 16
	ExpiryDigits = 4
	PhoneDigits  = 9
)

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func capDigits(s string, n int) string {
	d := Digits(s)
	if len(d) > n {
		d = d[:n]
	}
	return d
}

// CardNumber formats a card number as "1234 5678 9012 3456", keeping at most 16 digits.
func CardNumber(value string) string {
	d := capDigits(value, CardDigits)
	var b strings.Builder
	for i := 0; i < len(d); i++ {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(d[i])
	}
	return b.String()
}

// Expiry formats a card expiry as MM/YY.
func Expiry(value string) string {
	d := capDigits(value, ExpiryDigits)
	if len(d) > 2 {
		return d[:2] + "/" + d[2:]
	}
	return d
}

// Phone formats a local mobile number as "7XX XXX XXX".
func Phone(value string) string {
	d := capDigits(value, PhoneDigits)
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + " " + d[3:]
	default:
		return d[:3] + " " + d[3:6] + " " + d[6:]
	}
}

// PhoneSubmission returns the digits that go on the wire for a phone input.
// Anything other than exactly nine digits yields "" so the request field stays unset.
func PhoneSubmission(value string) string {
	d := Digits(Phone(value))
	if len(d) != PhoneDigits {
		return ""
	}
	return d
}

// CardSubmission strips the display separators from a formatted card number.
func CardSubmission(value string) string {
	return Digits(CardNumber(value))
}
