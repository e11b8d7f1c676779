package domain

// Storage keys. Each identity's link cache lives under its own key so that
// switching identity never leaks another identity's records.
const (
	// GuestIDKey holds the current guest identifier between visits.
	GuestIDKey = "urlShortener_guestId"

	// CurrentUserKey holds the signed-in user in demo mode, where no backend
	// session cookie exists to restore it from.
	CurrentUserKey = "urlShortener_user"

	// AuthTokenKey holds the session token between runs so that the auth
	// check on startup can resume an authenticated session.
	AuthTokenKey = "urlShortener_authToken"
)

// UserCacheKey returns the link-cache key for an authenticated user.
func UserCacheKey(userID string) string {
	return "userUrls_" + userID
}

// GuestCacheKey returns the link-cache key for a guest.
func GuestCacheKey(guestID string) string {
	return "guestUrls_" + guestID
}
