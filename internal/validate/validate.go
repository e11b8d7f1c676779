package validate

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/chaitanya-699/url-shortener/internal/domain"
)

// Validation failures are surfaced before any network call is made.
var (
	ErrEmptyURL        = errors.New("url is empty")
	ErrInvalidURL      = errors.New("invalid url")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrMissingPassword = errors.New("password is required")
	ErrShortPassword   = errors.New("password must be at least 8 characters")
)

const minPasswordLength = 8

// NormalizeURL trims whitespace and prepends https:// when no scheme is given.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return ""
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	return raw
}

// URL checks that raw is a well-formed http(s) URL.
func URL(raw string) error {
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return ErrEmptyURL
	}

	u, err := url.Parse(raw)

	if err != nil {
		return ErrInvalidURL
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}

	return nil
}

// Credentials checks the sign-in/sign-up form fields locally.
func Credentials(email, password string) error {
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}

	if password == "" {
		return ErrMissingPassword
	}

	return nil
}

// RegistrationPassword additionally applies the sign-up password policy.
func RegistrationPassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrShortPassword
	}

	return nil
}

// GuestID checks the guest identifier format.
func GuestID(id string) error {
	if !domain.IsGuestID(id) {
		return domain.ErrInvalidGuestID
	}

	return nil
}
