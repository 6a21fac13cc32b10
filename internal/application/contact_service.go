package application

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	repo "github.com/oksasatya/go-contacts-api/internal/domain/repository"
)

const (
	BirthdayWindowDays = 7
	searchLimit        = 100
	reindexBatch       = 500
)

// ContactService is the owner-scoped contact API. When Index is set, writes
// are mirrored into it. Search is answered from the index only after Reindex
// has copied every stored contact into it and no later write to it has
// failed; otherwise the relational store answers.
type ContactService struct {
	Contacts repo.ContactRepository
	Index    ContactIndex
	Logger   *logrus.Logger
	now      func() time.Time

	indexReady    atomic.Bool
	indexFailures atomic.Uint64
}

func NewContactService(contacts repo.ContactRepository, index ContactIndex, logger *logrus.Logger) *ContactService {
	return &ContactService{Contacts: contacts, Index: index, Logger: logger, now: time.Now}
}

func (s *ContactService) List(ctx context.Context, ownerID int64) ([]entity.Contact, error) {
	return s.Contacts.List(ctx, ownerID)
}

func (s *ContactService) Get(ctx context.Context, ownerID, id int64) (*entity.Contact, error) {
	return s.Contacts.Get(ctx, ownerID, id)
}

func (s *ContactService) Create(ctx context.Context, ownerID int64, c *entity.Contact) error {
	if err := s.Contacts.Create(ctx, ownerID, c); err != nil {
		return err
	}
	s.syncIndex(ctx, c)
	return nil
}

func (s *ContactService) Update(ctx context.Context, ownerID, id int64, patch entity.ContactPatch) (*entity.Contact, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", apperror.ErrValidation)
	}
	c, err := s.Contacts.Update(ctx, ownerID, id, patch)
	if err != nil {
		return nil, err
	}
	s.syncIndex(ctx, c)
	return c, nil
}

func (s *ContactService) Delete(ctx context.Context, ownerID, id int64) (*entity.Contact, error) {
	c, err := s.Contacts.Delete(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if s.Index != nil {
		// A leftover document is harmless: ListByIDs drops ids with no row.
		if err := s.Index.Delete(ctx, c.ID); err != nil {
			s.Logger.WithError(err).WithField("contact_id", c.ID).Warn("contact unindex failed")
		}
	}
	return c, nil
}

// IndexReady reports whether Search is currently served from the index.
func (s *ContactService) IndexReady() bool {
	return s.Index != nil && s.indexReady.Load()
}

// Reindex copies every stored contact into the index in id order and, on
// success, lets Search use it. A write to the index that fails while it runs
// keeps the index unready.
func (s *ContactService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	s.indexReady.Store(false)
	failures := s.indexFailures.Load()
	var (
		after int64
		total int
	)
	for {
		batch, err := s.Contacts.Page(ctx, after, reindexBatch)
		if err != nil {
			return total, fmt.Errorf("reindex contacts: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		if err := s.Index.IndexAll(ctx, batch); err != nil {
			return total, fmt.Errorf("reindex contacts: %w", err)
		}
		total += len(batch)
		after = batch[len(batch)-1].ID
	}
	s.indexReady.Store(true)
	if s.indexFailures.Load() != failures {
		s.indexReady.Store(false)
		return total, fmt.Errorf("reindex contacts: index write failed during rebuild")
	}
	s.Logger.WithField("contacts", total).Info("contact index rebuilt")
	return total, nil
}

// KeepIndexed runs Reindex now and then every interval while the index is
// not ready, until ctx is done.
func (s *ContactService) KeepIndexed(ctx context.Context, every time.Duration) {
	if s.Index == nil {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		if !s.IndexReady() {
			if _, err := s.Reindex(ctx); err != nil && ctx.Err() == nil {
				s.Logger.WithError(err).Warn("contact reindex failed, search uses database")
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Search matches text against first name, last name and email.
func (s *ContactService) Search(ctx context.Context, ownerID int64, text string) ([]entity.Contact, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: query is required", apperror.ErrValidation)
	}
	if s.IndexReady() {
		ids, err := s.Index.Search(ctx, ownerID, text, searchLimit)
		if err == nil {
			return s.Contacts.ListByIDs(ctx, ownerID, ids)
		}
		s.Logger.WithError(err).Warn("contact index search failed, using database")
	}
	return s.Contacts.Search(ctx, ownerID, text)
}

// UpcomingBirthdays returns contacts whose birthday falls within the next
// seven days, today included.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, ownerID int64) ([]entity.Contact, error) {
	return s.Contacts.UpcomingBirthdays(ctx, ownerID, s.now(), BirthdayWindowDays)
}

func (s *ContactService) syncIndex(ctx context.Context, c *entity.Contact) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, c); err != nil {
		s.indexFailures.Add(1)
		s.indexReady.Store(false)
		s.Logger.WithError(err).WithField("contact_id", c.ID).Warn("contact index failed, search uses database until reindex")
	}
}
