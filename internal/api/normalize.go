package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/chaitanya-699/url-shortener/internal/domain"
)

// The remote API has grown several shapes for the same payloads: ids arrive
// as "id" or "userId" and as strings or numbers, link lists arrive bare or
// wrapped. Everything is mapped to canonical types here, at the boundary, so
// the rest of the client never sees the variance.

// flexID decodes a JSON string or number into a string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)

	if s == "null" {
		s = ""
	}

	*f = flexID(s)
	return nil
}

type userWire struct {
	ID      flexID `json:"id"`
	UserID  flexID `json:"userId"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// normalizeUser maps an auth payload to a User. ok is false when the payload
// carries no usable identity, which is how the API says "not authenticated".
func normalizeUser(body []byte) (*domain.User, bool) {
	var wire userWire

	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, false
	}

	id := string(wire.ID)
	if id == "" {
		id = string(wire.UserID)
	}

	if id == "" || wire.Email == "" {
		return nil, false
	}

	return &domain.User{
		ID:    id,
		Email: wire.Email,
		Name:  wire.Name,
	}, true
}

type linkWire struct {
	ID          flexID `json:"id"`
	OriginalURL string `json:"originalUrl"`
	ShortURL    string `json:"shortUrl"`
	ShortCode   string `json:"shortCode"`
	URLCode     string `json:"urlCode"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	GuestID     string `json:"guestId"`
	Clicks      int    `json:"clicks"`
	TotalClicks int    `json:"totalClicks"`
}

// normalizeLink maps a link payload to a LinkRecord owned by the given
// identity. qrEnabled is derived from the identity, never from the wire:
// QR codes are an account feature.
func normalizeLink(wire linkWire, identity domain.Identity) domain.LinkRecord {
	shortCode := wire.ShortCode
	if shortCode == "" {
		shortCode = wire.URLCode
	}

	clicks := wire.Clicks
	if clicks == 0 {
		clicks = wire.TotalClicks
	}

	id := string(wire.ID)
	if id == "" {
		id = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	return domain.LinkRecord{
		ID:          id,
		OriginalURL: wire.OriginalURL,
		ShortURL:    wire.ShortURL,
		ShortCode:   shortCode,
		Description: wire.Description,
		CreatedAt:   parseCreatedAt(wire.CreatedAt),
		OwnerRef:    identity.OwnerRef(),
		QREnabled:   identity.IsAuthenticated(),
		Clicks:      clicks,
	}
}

func parseCreatedAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)

	if err != nil {
		return time.Time{}
	}

	return t
}

type linkListWire struct {
	Entries []linkWire `json:"entries"`
	URLs    []linkWire `json:"urls"`
	Data    []linkWire `json:"data"`
}

// normalizeLinkList accepts a bare array or any of the wrapped-object shapes.
func normalizeLinkList(body []byte, identity domain.Identity) ([]domain.LinkRecord, error) {
	var wires []linkWire

	if err := json.Unmarshal(body, &wires); err != nil {
		var wrapped linkListWire

		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, err
		}

		switch {
		case wrapped.Entries != nil:
			wires = wrapped.Entries
		case wrapped.URLs != nil:
			wires = wrapped.URLs
		default:
			wires = wrapped.Data
		}
	}

	records := make([]domain.LinkRecord, len(wires))
	for i, wire := range wires {
		records[i] = normalizeLink(wire, identity)
	}

	return records, nil
}

type messageWire struct {
	Message string `json:"message"`
}

// normalizeMessage extracts the server's message, falling back when absent.
func normalizeMessage(body []byte, fallback string) string {
	var wire messageWire

	if err := json.Unmarshal(body, &wire); err != nil || wire.Message == "" {
		return fallback
	}

	return wire.Message
}
