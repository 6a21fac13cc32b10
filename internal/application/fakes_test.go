package application

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
	"github.com/oksasatya/go-contacts-api/internal/infrastructure/cache"
	"github.com/oksasatya/go-contacts-api/pkg/helpers"
)

func init() {
	helpers.PasswordCost = bcrypt.MinCost
}

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*entity.User
	reads  int

	// failUpdates makes the next n password updates fail with errBoom.
	failUpdates int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]*entity.User{}}
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == u.Email || x.Username == u.Username {
			return apperror.ErrConflict
		}
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) find(match func(*entity.User) bool) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	for _, u := range m.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.ID == id })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.Email == email })
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.Username == username })
}

func (m *memUsers) update(id int64, fn func(*entity.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return apperror.ErrNotFound
	}
	fn(u)
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	if m.failUpdates > 0 {
		m.failUpdates--
		m.mu.Unlock()
		return errBoom
	}
	m.mu.Unlock()
	return m.update(id, func(u *entity.User) { u.PasswordHash = hash })
}

func (m *memUsers) SetVerified(_ context.Context, id int64) error {
	return m.update(id, func(u *entity.User) { u.IsVerified = true })
}

func (m *memUsers) UpdateAvatar(_ context.Context, id int64, url string) error {
	return m.update(id, func(u *entity.User) { u.AvatarURL = url })
}

func (m *memUsers) remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

type sentMail struct {
	kind, to, token string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendVerification(_ context.Context, to, _ string, token string, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{"verify", to, token})
	return nil
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, to, _ string, token string, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{"reset", to, token})
	return nil
}

func (f *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no mail sent")
	}
	return f.sent[len(f.sent)-1]
}

type memContacts struct {
	nextID         int64
	rows           map[int64]*entity.Contact
	listByIDsCalls int
}

func newMemContacts() *memContacts {
	return &memContacts{rows: map[int64]*entity.Contact{}}
}

func (m *memContacts) owned(ownerID, id int64) (*entity.Contact, error) {
	c, ok := m.rows[id]
	if !ok || c.UserID != ownerID {
		return nil, apperror.ErrNotFound
	}
	return c, nil
}

func (m *memContacts) sorted(ownerID int64, keep func(*entity.Contact) bool) []entity.Contact {
	out := []entity.Contact{}
	for _, c := range m.rows {
		if c.UserID == ownerID && keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memContacts) List(_ context.Context, ownerID int64) ([]entity.Contact, error) {
	return m.sorted(ownerID, func(*entity.Contact) bool { return true }), nil
}

func (m *memContacts) ListByIDs(_ context.Context, ownerID int64, ids []int64) ([]entity.Contact, error) {
	m.listByIDsCalls++
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return m.sorted(ownerID, func(c *entity.Contact) bool { return want[c.ID] }), nil
}

func (m *memContacts) Get(_ context.Context, ownerID, id int64) (*entity.Contact, error) {
	c, err := m.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (m *memContacts) Create(_ context.Context, ownerID int64, c *entity.Contact) error {
	m.nextID++
	c.ID = m.nextID
	c.UserID = ownerID
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memContacts) Update(_ context.Context, ownerID, id int64, p entity.ContactPatch) (*entity.Contact, error) {
	c, err := m.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.PhoneNumber != nil {
		c.PhoneNumber = *p.PhoneNumber
	}
	if p.Birthday != nil {
		c.Birthday = p.Birthday
	}
	if p.ExtraData != nil {
		c.ExtraData = *p.ExtraData
	}
	cp := *c
	return &cp, nil
}

func (m *memContacts) Delete(_ context.Context, ownerID, id int64) (*entity.Contact, error) {
	c, err := m.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	delete(m.rows, id)
	return c, nil
}

func (m *memContacts) Search(_ context.Context, ownerID int64, text string) ([]entity.Contact, error) {
	q := strings.ToLower(text)
	return m.sorted(ownerID, func(c *entity.Contact) bool {
		return strings.Contains(strings.ToLower(c.FirstName), q) ||
			strings.Contains(strings.ToLower(c.LastName), q) ||
			strings.Contains(strings.ToLower(c.Email), q)
	}), nil
}

func (m *memContacts) Page(_ context.Context, afterID int64, limit int) ([]entity.Contact, error) {
	out := []entity.Contact{}
	for _, c := range m.rows {
		if c.ID > afterID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memContacts) UpcomingBirthdays(_ context.Context, ownerID int64, today time.Time, days int) ([]entity.Contact, error) {
	return m.sorted(ownerID, func(c *entity.Contact) bool { return c.BirthdayWithin(today, days) }), nil
}

// fakeIndex only knows what was written to it and searches those documents.
type fakeIndex struct {
	docs      map[int64]entity.Contact
	indexErr  error
	searchErr error
	searches  int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[int64]entity.Contact{}}
}

func (f *fakeIndex) Index(_ context.Context, c *entity.Contact) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	f.docs[c.ID] = *c
	return nil
}

func (f *fakeIndex) IndexAll(_ context.Context, cs []entity.Contact) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	for _, c := range cs {
		f.docs[c.ID] = c
	}
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id int64) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, ownerID int64, text string, size int) ([]int64, error) {
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	q := strings.ToLower(text)
	ids := []int64{}
	for id, c := range f.docs {
		if c.UserID != ownerID {
			continue
		}
		if strings.Contains(strings.ToLower(c.FirstName), q) ||
			strings.Contains(strings.ToLower(c.LastName), q) ||
			strings.Contains(strings.ToLower(c.Email), q) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > size {
		ids = ids[:size]
	}
	return ids, nil
}

type fakeStorage struct {
	path, contentType, body string
	err                     error
}

func (f *fakeStorage) Upload(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(r)
	f.path, f.contentType, f.body = objectPath, contentType, string(b)
	return "https://cdn.example/" + objectPath, nil
}

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	users  *memUsers
	tokens *helpers.JWTManager
	clock  *testClock
	redis  *miniredis.Miniredis
	cache  *cache.UserCache
	mail   *fakeMailer
	log    *logrus.Logger
	hook   *test.Hook
	auth   *AuthService
	gw     *Gateway
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := helpers.NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rdb.Close() })

	clk := &testClock{t: time.Now()}
	log, hook := test.NewNullLogger()
	h := &harness{
		users:  newMemUsers(),
		tokens: helpers.NewJWTManager("test-secret", 30*time.Minute, 24*time.Hour, time.Hour).WithClock(clk.Now),
		clock:  clk,
		redis:  mr,
		cache:  cache.NewUserCache(rdb, time.Hour),
		mail:   &fakeMailer{},
		log:    log,
		hook:   hook,
	}
	h.auth = NewAuthService(h.users, h.tokens, cache.NewTokenLedger(rdb), h.mail, log)
	h.gw = NewGateway(h.users, h.tokens, h.cache, log)
	return h
}

func (h *harness) register(t *testing.T, username, email, password string) *entity.User {
	t.Helper()
	u, err := h.auth.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: password})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

var errBoom = errors.New("boom")
