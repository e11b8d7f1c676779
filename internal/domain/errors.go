package domain

import "errors"

var (
	ErrKeyNotFound    = errors.New("key not found")    // no value stored under the key
	ErrLinkNotFound   = errors.New("link not found")   // record absent from the current sequence
	ErrNotGuest       = errors.New("no guest session") // operation requires an active guest
	ErrInvalidGuestID = errors.New("invalid guest id") // malformed guest identifier
)
