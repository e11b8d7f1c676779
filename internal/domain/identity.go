package domain

// User holds the profile returned by the authentication endpoints.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Identity is the current session actor: anonymous, guest or authenticated.
// At most one of User and GuestID is set.
type Identity struct {
	User    *User  `json:"user,omitempty"`
	GuestID string `json:"guestId,omitempty"`
}

func Anonymous() Identity {
	return Identity{}
}

func AsGuest(guestID string) Identity {
	return Identity{GuestID: guestID}
}

func AsUser(user User) Identity {
	return Identity{User: &user}
}

func (i Identity) IsAuthenticated() bool {
	return i.User != nil
}

func (i Identity) IsGuest() bool {
	return i.User == nil && i.GuestID != ""
}

func (i Identity) IsAnonymous() bool {
	return i.User == nil && i.GuestID == ""
}

// OwnerRef returns the identifier link records are owned by.
func (i Identity) OwnerRef() string {
	if i.User != nil {
		return i.User.ID
	}
	return i.GuestID
}

// CacheKey returns the storage key the identity's link cache lives under.
// Empty for anonymous sessions, which have no cache.
func (i Identity) CacheKey() string {
	switch {
	case i.User != nil:
		return UserCacheKey(i.User.ID)
	case i.GuestID != "":
		return GuestCacheKey(i.GuestID)
	default:
		return ""
	}
}
