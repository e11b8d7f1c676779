package domain

import (
	"math/rand"
	"regexp"
	"strings"
)

const (
	guestIDPrefix   = "guest_"
	guestIDLength   = 8
	guestIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var guestIDPattern = regexp.MustCompile(`^guest_[A-Za-z0-9]{8}$`)

// NewGuestID generates a guest identifier: "guest_" followed by 8 characters
// drawn uniformly from the 62-symbol alphanumeric alphabet. The source is not
// cryptographic; guest ids are opaque handles, not secrets.
func NewGuestID() string {
	var sb strings.Builder
	sb.Grow(len(guestIDPrefix) + guestIDLength)
	sb.WriteString(guestIDPrefix)

	for i := 0; i < guestIDLength; i++ {
		sb.WriteByte(guestIDAlphabet[rand.Intn(len(guestIDAlphabet))])
	}

	return sb.String()
}

// IsGuestID reports whether s is a well-formed guest identifier.
func IsGuestID(s string) bool {
	return guestIDPattern.MatchString(s)
}
