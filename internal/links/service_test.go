package links

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chaitanya-699/url-shortener/internal/api"
	"github.com/chaitanya-699/url-shortener/internal/domain"
	"github.com/chaitanya-699/url-shortener/internal/session"
	"github.com/chaitanya-699/url-shortener/internal/storage"
	"github.com/chaitanya-699/url-shortener/internal/storage/inmemory"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *session.Store, *storage.Adapter) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter := storage.NewAdapter(inmemory.New(), zap.NewNop())
	client := api.New(api.WithBaseURL(server.URL))
	sessionStore := session.New(client, adapter, zap.NewNop())
	service := New(client, sessionStore, adapter, zap.NewNop())

	return service, sessionStore, adapter
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func linkBody(id, code string, createdAt time.Time) map[string]any {
	return map[string]any{
		"id":          id,
		"originalUrl": "https://example.com/" + id,
		"shortUrl":    "http://sho.rt/" + code,
		"shortCode":   code,
		"createdAt":   createdAt.Format(time.RFC3339),
	}
}

func recordIDs(records []domain.LinkRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func TestActivate(t *testing.T) {
	t.Run("cached sequence shows immediately, server replaces it", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		proceed := make(chan struct{})
		service, _, adapter := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-proceed
			writeJSON(t, w, http.StatusOK, []map[string]any{
				linkBody("2", "bbb", now),
			})
		}))
		ctx := context.Background()

		identity := domain.AsGuest("guest_abcd1234")
		adapter.Write(ctx, identity.CacheKey(), []domain.LinkRecord{
			{ID: "1", ShortCode: "aaa", OwnerRef: identity.GuestID, CreatedAt: now.Add(-time.Hour)},
		})

		service.Activate(ctx, identity)

		// The cached record is visible before the refresh lands.
		assert.Equal(t, []string{"1"}, recordIDs(service.Records()))
		close(proceed)

		require.Eventually(t, func() bool {
			records := service.Records()
			return len(records) == 1 && records[0].ID == "2"
		}, time.Second, 10*time.Millisecond, "server sequence must fully replace the cache")

		var persisted []domain.LinkRecord
		require.True(t, adapter.Read(ctx, identity.CacheKey(), &persisted))
		assert.Equal(t, []string{"2"}, recordIDs(persisted))
	})

	t.Run("refresh failure degrades to the cached sequence", func(t *testing.T) {
		service, _, adapter := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		ctx := context.Background()

		identity := domain.AsGuest("guest_abcd1234")
		adapter.Write(ctx, identity.CacheKey(), []domain.LinkRecord{{ID: "1", ShortCode: "aaa"}})

		service.Activate(ctx, identity)

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, []string{"1"}, recordIDs(service.Records()))
	})

	t.Run("anonymous identity clears the sequence", func(t *testing.T) {
		service, _, adapter := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, []map[string]any{})
		}))
		ctx := context.Background()

		identity := domain.AsGuest("guest_abcd1234")
		adapter.Write(ctx, identity.CacheKey(), []domain.LinkRecord{{ID: "1"}})
		service.Activate(ctx, identity)
		require.NotEmpty(t, service.Records())

		service.Activate(ctx, domain.Anonymous())

		assert.Empty(t, service.Records())

		// The guest's persisted cache stays behind.
		var persisted []domain.LinkRecord
		assert.True(t, adapter.Read(ctx, identity.CacheKey(), &persisted))
	})

	t.Run("previous identity's records never leak into the next view", func(t *testing.T) {
		service, _, adapter := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// User B's fetch fails; guest A's records must still be gone.
			w.WriteHeader(http.StatusInternalServerError)
		}))
		ctx := context.Background()

		guest := domain.AsGuest("guest_abcd1234")
		adapter.Write(ctx, guest.CacheKey(), []domain.LinkRecord{{ID: "a1"}})
		service.Activate(ctx, guest)
		require.NotEmpty(t, service.Records())

		service.Activate(ctx, domain.AsUser(domain.User{ID: "B", Email: "b@example.com"}))

		time.Sleep(50 * time.Millisecond)
		assert.Empty(t, service.Records())
	})

	t.Run("stale refresh for a superseded identity is dropped", func(t *testing.T) {
		release := make(chan struct{})
		now := time.Now().UTC()
		service, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
			writeJSON(t, w, http.StatusOK, []map[string]any{
				linkBody("stale", "old", now),
			})
		}))
		ctx := context.Background()

		service.Activate(ctx, domain.AsGuest("guest_abcd1234"))
		service.Activate(ctx, domain.Anonymous())
		close(release)

		time.Sleep(100 * time.Millisecond)
		assert.Empty(t, service.Records())
	})

	t.Run("sequence is resorted after load", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		service, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Server returns oldest first; native order is never trusted.
			writeJSON(t, w, http.StatusOK, []map[string]any{
				linkBody("1", "aaa", now.Add(-2*time.Hour)),
				linkBody("2", "bbb", now),
				linkBody("3", "ccc", now.Add(-time.Hour)),
			})
		}))

		service.Activate(context.Background(), domain.AsGuest("guest_abcd1234"))

		require.Eventually(t, func() bool {
			return len(service.Records()) == 3
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"2", "3", "1"}, recordIDs(service.Records()))
	})
}

func TestCreate(t *testing.T) {
	t.Run("anonymous caller is promoted to guest", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		service, sessionStore, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/url":
				writeJSON(t, w, http.StatusCreated, linkBody("10", "abc", now))
			case "/api/url/all":
				writeJSON(t, w, http.StatusOK, []map[string]any{})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		ctx := context.Background()

		record, err := service.Create(ctx, "example.com/page", "")

		require.NoError(t, err)
		assert.True(t, sessionStore.Identity().IsGuest())
		assert.Equal(t, "10", record.ID)
		assert.False(t, record.QREnabled, "guest links never get QR codes")

		require.Eventually(t, func() bool {
			records := service.Records()
			return len(records) == 1 && records[0].ID == "10"
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("invalid url costs no network call", func(t *testing.T) {
		requests := 0
		service, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))

		_, err := service.Create(context.Background(), "", "")

		assert.Error(t, err)
		assert.Zero(t, requests)
	})

	t.Run("server failure leaves the sequence unchanged", func(t *testing.T) {
		now := time.Now().UTC()
		service, sessionStore, adapter := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/url":
				writeJSON(t, w, http.StatusBadRequest, map[string]any{"message": "URL is blocked"})
			default:
				writeJSON(t, w, http.StatusOK, []map[string]any{linkBody("1", "aaa", now)})
			}
		}))
		ctx := context.Background()

		_, err := sessionStore.CreateOrAdoptGuestSession(ctx, "guest_abcd1234")
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			return len(service.Records()) == 1
		}, time.Second, 10*time.Millisecond)
		before := recordIDs(service.Records())

		_, err = service.Create(ctx, "https://example.com/blocked", "")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "URL is blocked")
		assert.Equal(t, before, recordIDs(service.Records()))

		var persisted []domain.LinkRecord
		require.True(t, adapter.Read(ctx, domain.GuestCacheKey("guest_abcd1234"), &persisted))
		assert.Equal(t, before, recordIDs(persisted))
	})

	t.Run("created record is prepended and persisted", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		service, sessionStore, adapter := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/url":
				writeJSON(t, w, http.StatusCreated, linkBody("20", "new", now))
			default:
				writeJSON(t, w, http.StatusOK, []map[string]any{linkBody("1", "aaa", now.Add(-time.Hour))})
			}
		}))
		ctx := context.Background()

		_, err := sessionStore.CreateOrAdoptGuestSession(ctx, "guest_abcd1234")
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			return len(service.Records()) == 1
		}, time.Second, 10*time.Millisecond)

		_, err = service.Create(ctx, "https://example.com/new", "fresh link")
		require.NoError(t, err)

		assert.Equal(t, []string{"20", "1"}, recordIDs(service.Records()))

		var persisted []domain.LinkRecord
		require.True(t, adapter.Read(ctx, domain.GuestCacheKey("guest_abcd1234"), &persisted))
		assert.Equal(t, []string{"20", "1"}, recordIDs(persisted))
	})

	t.Run("record already delivered by a refresh is not duplicated", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		service, sessionStore, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/url":
				writeJSON(t, w, http.StatusCreated, linkBody("20", "new", now))
			default:
				// The refresh racing the create already carries the new record.
				writeJSON(t, w, http.StatusOK, []map[string]any{linkBody("20", "new", now)})
			}
		}))
		ctx := context.Background()

		_, err := sessionStore.CreateOrAdoptGuestSession(ctx, "guest_abcd1234")
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			return len(service.Records()) == 1
		}, time.Second, 10*time.Millisecond)

		_, err = service.Create(ctx, "https://example.com/new", "fresh link")
		require.NoError(t, err)

		assert.Equal(t, []string{"20"}, recordIDs(service.Records()))
	})
}

func TestDelete(t *testing.T) {
	seed := func(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Service, *storage.Adapter) {
		t.Helper()
		now := time.Now().UTC().Truncate(time.Second)
		service, sessionStore, adapter := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/url/all" {
				writeJSON(t, w, http.StatusOK, []map[string]any{
					linkBody("1", "aaa", now),
					linkBody("2", "bbb", now.Add(-time.Hour)),
				})
				return
			}
			handler(w, r)
		}))

		_, err := sessionStore.CreateOrAdoptGuestSession(context.Background(), "guest_abcd1234")
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			return len(service.Records()) == 2
		}, time.Second, 10*time.Millisecond)

		return service, adapter
	}

	t.Run("removes the record and persists", func(t *testing.T) {
		service, adapter := seed(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{"message": "URL deleted"})
		})
		ctx := context.Background()

		message, err := service.Delete(ctx, "1")

		require.NoError(t, err)
		assert.Equal(t, "URL deleted", message)
		assert.Equal(t, []string{"2"}, recordIDs(service.Records()))

		var persisted []domain.LinkRecord
		require.True(t, adapter.Read(ctx, domain.GuestCacheKey("guest_abcd1234"), &persisted))
		assert.Equal(t, []string{"2"}, recordIDs(persisted))
	})

	t.Run("absent id fails with not found and changes nothing", func(t *testing.T) {
		service, _ := seed(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no network call expected for an absent id")
		})

		before := recordIDs(service.Records())
		_, err := service.Delete(context.Background(), "missing")

		assert.ErrorIs(t, err, domain.ErrLinkNotFound)
		assert.Equal(t, before, recordIDs(service.Records()))
	})

	t.Run("server failure leaves the sequence unchanged", func(t *testing.T) {
		service, _ := seed(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusNotFound, map[string]any{"message": "URL not found"})
		})

		before := recordIDs(service.Records())
		_, err := service.Delete(context.Background(), "1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "URL not found")
		assert.Equal(t, before, recordIDs(service.Records()))
	})
}

func TestRefresh(t *testing.T) {
	t.Run("full replace, old records gone from view and storage", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		refreshed := false
		service, _, adapter := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if refreshed {
				writeJSON(t, w, http.StatusOK, []map[string]any{linkBody("2", "bbb", now)})
				return
			}
			writeJSON(t, w, http.StatusOK, []map[string]any{linkBody("1", "aaa", now.Add(-time.Hour))})
		}))
		ctx := context.Background()

		identity := domain.AsUser(domain.User{ID: "7", Email: "user@example.com"})
		service.Activate(ctx, identity)
		require.Eventually(t, func() bool {
			records := service.Records()
			return len(records) == 1 && records[0].ID == "1"
		}, time.Second, 10*time.Millisecond)

		refreshed = true
		require.NoError(t, service.Refresh(ctx))

		assert.Equal(t, []string{"2"}, recordIDs(service.Records()))

		var persisted []domain.LinkRecord
		require.True(t, adapter.Read(ctx, identity.CacheKey(), &persisted))
		assert.Equal(t, []string{"2"}, recordIDs(persisted))
	})

	t.Run("surfaces failures", func(t *testing.T) {
		service, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusInternalServerError, map[string]any{"message": "boom"})
		}))
		ctx := context.Background()

		service.Activate(ctx, domain.AsGuest("guest_abcd1234"))

		err := service.Refresh(ctx)

		assert.Error(t, err)
	})
}

func TestAnalytics(t *testing.T) {
	t.Run("projects the payload for a known record", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		service, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/url/analytics/aaa" {
				writeJSON(t, w, http.StatusOK, map[string]any{
					"totalClicks": 3,
					"topCountries": []map[string]any{
						{"country": "DE", "clicks": 3},
					},
				})
				return
			}
			writeJSON(t, w, http.StatusOK, []map[string]any{linkBody("1", "aaa", now)})
		}))
		ctx := context.Background()

		service.Activate(ctx, domain.AsGuest("guest_abcd1234"))
		require.Eventually(t, func() bool {
			return len(service.Records()) == 1
		}, time.Second, 10*time.Millisecond)

		view, err := service.Analytics(ctx, "1")

		require.NoError(t, err)
		assert.Equal(t, 3, view.TotalClicks)
		require.NotEmpty(t, view.TopCountries)
		assert.Equal(t, "DE", view.TopCountries[0].Country)
	})

	t.Run("unknown id fails with not found", func(t *testing.T) {
		service, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, []map[string]any{})
		}))

		_, err := service.Analytics(context.Background(), "missing")

		assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	})
}
