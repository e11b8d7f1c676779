package links

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chaitanya-699/url-shortener/internal/analytics"
	"github.com/chaitanya-699/url-shortener/internal/api"
	"github.com/chaitanya-699/url-shortener/internal/domain"
	"github.com/chaitanya-699/url-shortener/internal/session"
	"github.com/chaitanya-699/url-shortener/internal/storage"
	"github.com/chaitanya-699/url-shortener/internal/validate"
)

// Service keeps the in-memory link sequence consistent with the storage
// cache and the remote API for whichever identity is active. The sequence
// is owned by exactly one identity key at a time; transitioning away clears
// it even when the previous identity's persisted cache stays behind.
type Service struct {
	mu       sync.Mutex
	records  []domain.LinkRecord
	identity domain.Identity
	cacheKey string
	epoch    uint64

	api     *api.Client
	session *session.Store
	storage *storage.Adapter
	logger  *zap.Logger
}

// New creates the link service and subscribes it to identity transitions.
func New(client *api.Client, sessionStore *session.Store, adapter *storage.Adapter, logger *zap.Logger) *Service {
	s := &Service{
		api:     client,
		session: sessionStore,
		storage: adapter,
		logger:  logger,
	}

	sessionStore.Subscribe(func(identity domain.Identity) {
		s.Activate(context.Background(), identity)
	})

	return s
}

// Records returns a copy of the current sequence, newest first.
func (s *Service) Records() []domain.LinkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]domain.LinkRecord, len(s.records))
	copy(records, s.records)
	return records
}

// Activate rebinds the sequence to the given identity: the cached sequence
// is shown immediately and a background server refresh replaces it. An
// anonymous identity has no cache, so the sequence is just cleared.
func (s *Service) Activate(ctx context.Context, identity domain.Identity) {
	s.mu.Lock()
	s.identity = identity
	s.cacheKey = identity.CacheKey()
	s.records = nil
	s.epoch++
	epoch := s.epoch
	cacheKey := s.cacheKey
	s.mu.Unlock()

	if cacheKey == "" {
		return
	}

	var cached []domain.LinkRecord
	if s.storage.Read(ctx, cacheKey, &cached) {
		domain.SortLinks(cached)
		s.mu.Lock()
		if s.epoch == epoch {
			s.records = cached
		}
		s.mu.Unlock()
	}

	go func() {
		if err := s.refresh(context.Background(), identity, epoch); err != nil {
			// Background reconciliation degrades to the cached sequence.
			s.logger.Debug("background refresh failed", zap.Error(err))
		}
	}()
}

// Refresh re-fetches the active identity's links from the server. Unlike
// the background reconciliation, failures are surfaced to the caller.
func (s *Service) Refresh(ctx context.Context) error {
	const op = "refresh links"

	s.mu.Lock()
	identity := s.identity
	epoch := s.epoch
	s.mu.Unlock()

	if err := s.refresh(ctx, identity, epoch); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}

// refresh fetches the server sequence and applies it as a full replacement.
// A result whose epoch is stale at completion time is discarded: the server
// state it carries belongs to a superseded identity or predates a mutation.
func (s *Service) refresh(ctx context.Context, identity domain.Identity, epoch uint64) error {
	fetched, err := s.api.ListLinks(ctx, identity)
	if err != nil {
		return err
	}

	domain.SortLinks(fetched)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Debug("discarding stale refresh result",
			zap.String("key", identity.CacheKey()))
		return nil
	}
	s.records = fetched
	cacheKey := s.cacheKey
	s.mu.Unlock()

	if cacheKey != "" {
		s.storage.Write(ctx, cacheKey, fetched)
	}
	return nil
}

// Create shortens a URL for the active identity. An anonymous session is
// first promoted to a fresh guest: the first shorten action is what
// manufactures a guest identity. On failure the sequence is unchanged and
// the server's reason, when present, is surfaced.
func (s *Service) Create(ctx context.Context, rawURL, description string) (domain.LinkRecord, error) {
	const op = "create link"

	originalURL := validate.NormalizeURL(rawURL)
	if err := validate.URL(originalURL); err != nil {
		return domain.LinkRecord{}, errors.Wrap(err, op)
	}

	identity := s.session.Identity()
	if identity.IsAnonymous() {
		guestID, err := s.session.CreateOrAdoptGuestSession(ctx, "")
		if err != nil {
			return domain.LinkRecord{}, errors.Wrap(err, op)
		}
		identity = domain.AsGuest(guestID)
	}

	record, mintedGuestID, err := s.api.CreateLink(ctx, identity, originalURL, description)
	if err != nil {
		return domain.LinkRecord{}, errors.Wrap(err, op)
	}

	if mintedGuestID != "" && !identity.IsAuthenticated() {
		if _, err := s.session.CreateOrAdoptGuestSession(ctx, mintedGuestID); err != nil {
			return domain.LinkRecord{}, errors.Wrap(err, op)
		}
	}

	s.apply(ctx, func(records []domain.LinkRecord) []domain.LinkRecord {
		// A refresh completing between CreateLink and here can already
		// carry the new record.
		if domain.FindLink(records, record.ID) >= 0 {
			return records
		}
		return append([]domain.LinkRecord{record}, records...)
	})
	return record, nil
}

// Delete removes the record with the given id. An id absent from the
// current sequence fails with ErrLinkNotFound and changes nothing; another
// tab may have removed it already.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	const op = "delete link"

	s.mu.Lock()
	index := domain.FindLink(s.records, id)
	var record domain.LinkRecord
	if index >= 0 {
		record = s.records[index]
	}
	s.mu.Unlock()

	if index < 0 {
		return "", errors.Wrap(domain.ErrLinkNotFound, op)
	}

	identity := s.session.Identity()
	message, err := s.api.DeleteLink(ctx, identity.OwnerRef(), record.ShortCode)
	if err != nil {
		return "", errors.Wrap(err, op)
	}

	s.apply(ctx, func(records []domain.LinkRecord) []domain.LinkRecord {
		if i := domain.FindLink(records, id); i >= 0 {
			records = append(records[:i], records[i+1:]...)
		}
		return records
	})
	return message, nil
}

// Analytics fetches and projects the click analytics for the record with
// the given id.
func (s *Service) Analytics(ctx context.Context, id string) (analytics.View, error) {
	const op = "link analytics"

	s.mu.Lock()
	index := domain.FindLink(s.records, id)
	var record domain.LinkRecord
	if index >= 0 {
		record = s.records[index]
	}
	s.mu.Unlock()

	if index < 0 {
		return analytics.View{}, errors.Wrap(domain.ErrLinkNotFound, op)
	}

	payload, err := s.api.Analytics(ctx, record.ShortCode)
	if err != nil {
		return analytics.View{}, errors.Wrap(err, op)
	}

	return analytics.Project(record, payload), nil
}

// apply mutates the sequence, resorts it, bumps the epoch so in-flight
// refreshes issued before the mutation are discarded, and persists.
func (s *Service) apply(ctx context.Context, mutate func([]domain.LinkRecord) []domain.LinkRecord) {
	s.mu.Lock()
	s.records = mutate(s.records)
	domain.SortLinks(s.records)
	s.epoch++
	records := make([]domain.LinkRecord, len(s.records))
	copy(records, s.records)
	cacheKey := s.cacheKey
	s.mu.Unlock()

	if cacheKey != "" {
		s.storage.Write(ctx, cacheKey, records)
	}
}
