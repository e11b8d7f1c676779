package domain

import (
	"sort"
	"time"
)

// LinkRecord is one shortened URL with its metadata.
type LinkRecord struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"originalUrl"`
	ShortURL    string    `json:"shortUrl"`
	ShortCode   string    `json:"shortCode"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	OwnerRef    string    `json:"ownerRef"`
	QREnabled   bool      `json:"qrEnabled"`
	Clicks      int       `json:"clicks"`
}

// SortLinks orders records by creation time, newest first. The order is
// recomputed after every load and mutation; neither the server's nor the
// storage's native order is trusted.
func SortLinks(links []LinkRecord) {
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
}

// FindLink returns the index of the record with the given id, or -1.
func FindLink(links []LinkRecord, id string) int {
	for i := range links {
		if links[i].ID == id {
			return i
		}
	}
	return -1
}
