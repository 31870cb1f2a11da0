package users

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"notekeeper/internal/library"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[primitive.ObjectID]*User)}
}

func (m *memUserStore) Insert(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return library.Validationf("email is already registered")
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, library.NotFoundf("user %s not found", id.Hex())
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, library.NotFoundf("user with email %s not found", email)
}

func (m *memUserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, name, email, pwd string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return library.NotFoundf("user %s not found", id.Hex())
	}
	u.Name, u.Email, u.Pwd = name, email, pwd
	return nil
}

func (m *memUserStore) UpdateConfig(_ context.Context, id primitive.ObjectID, cfg Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return library.NotFoundf("user %s not found", id.Hex())
	}
	u.Config = cfg
	return nil
}

func (m *memUserStore) Delete(_ context.Context, id primitive.ObjectID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, library.NotFoundf("user %s not found", id.Hex())
	}
	delete(m.users, id)
	return u, nil
}

type captureNotifier struct {
	mu      sync.Mutex
	deleted []User
}

func (c *captureNotifier) SendAccountDeleted(u User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, u)
}

func newTestService() (*Service, *memUserStore, *captureNotifier) {
	st := newMemUserStore()
	notify := &captureNotifier{}
	svc := NewService(st, notify, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, st, notify
}

const goodPassword = "Sup3rSecret!"

func register(t *testing.T, svc *Service, email string) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Name:  "Ana",
		Email: email,
		Pwd:   goodPassword,
	})
	require.NoError(t, err)
	return u
}

func TestRegisterSeedsAccount(t *testing.T) {
	svc, _, _ := newTestService()

	u := register(t, svc, "Ana@Example.COM")
	require.Equal(t, "ana@example.com", u.Email, "email stored lowercased")
	require.Equal(t, int64(1), u.LibraryVersion)
	require.Equal(t, DefaultConfig(), u.Config)

	require.Len(t, u.Library, 1, "fresh library holds the default folder only")
	def := u.Library.Default()
	require.NotNil(t, def)
	require.Equal(t, 1, def.Order)
	require.Len(t, def.Notes, 1, "default folder starts with the sample note")

	require.NotEqual(t, goodPassword, u.Pwd, "password stored hashed")
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Pwd), []byte(goodPassword)))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	register(t, svc, "ana@example.com")

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:  "Other",
		Email: "ana@example.com",
		Pwd:   goodPassword,
	})
	require.True(t, library.IsValidation(err))
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"blank name", RegisterInput{Name: "  ", Email: "a@b.io", Pwd: goodPassword}},
		{"bad email", RegisterInput{Name: "Ana", Email: "not-an-email", Pwd: goodPassword}},
		{"email missing tld", RegisterInput{Name: "Ana", Email: "ana@host", Pwd: goodPassword}},
		{"short password", RegisterInput{Name: "Ana", Email: "a@b.io", Pwd: "Ab1!"}},
		{"no uppercase", RegisterInput{Name: "Ana", Email: "a@b.io", Pwd: "sup3rsecret!"}},
		{"no digit", RegisterInput{Name: "Ana", Email: "a@b.io", Pwd: "SuperSecret!"}},
		{"no special", RegisterInput{Name: "Ana", Email: "a@b.io", Pwd: "Sup3rSecret"}},
		{"forbidden character", RegisterInput{Name: "Ana", Email: "a@b.io", Pwd: "Sup3rSecret! "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.in)
			require.True(t, library.IsValidation(err))
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService()
	register(t, svc, "ana@example.com")
	ctx := context.Background()

	u, err := svc.Login(ctx, LoginInput{Email: "ANA@example.com", Pwd: goodPassword})
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", u.Email)

	_, err = svc.Login(ctx, LoginInput{Email: "ana@example.com", Pwd: "Wr0ngPass!"})
	require.True(t, library.IsValidation(err))
	require.Contains(t, err.Error(), "email or password is incorrect")

	// Unknown email yields the same message as a wrong password.
	_, err = svc.Login(ctx, LoginInput{Email: "ghost@example.com", Pwd: goodPassword})
	require.True(t, library.IsValidation(err))
	require.Contains(t, err.Error(), "email or password is incorrect")
}

func TestUpdatePartial(t *testing.T) {
	svc, _, _ := newTestService()
	u := register(t, svc, "ana@example.com")
	ctx := context.Background()

	name := "Ana Maria"
	updated, err := svc.Update(ctx, u.ID.Hex(), UpdateInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Ana Maria", updated.Name)
	require.Equal(t, "ana@example.com", updated.Email, "omitted email kept")

	pwd := "N3wSecret!"
	updated, err = svc.Update(ctx, u.ID.Hex(), UpdateInput{Pwd: &pwd})
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Pwd), []byte(pwd)))

	bad := "weak"
	_, err = svc.Update(ctx, u.ID.Hex(), UpdateInput{Pwd: &bad})
	require.True(t, library.IsValidation(err))
}

func TestDeleteNotifiesWithDeletedAccount(t *testing.T) {
	svc, st, notify := newTestService()
	u := register(t, svc, "ana@example.com")
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, u.ID.Hex()))

	_, err := st.FindByID(ctx, u.ID)
	require.True(t, library.IsNotFound(err))

	require.Len(t, notify.deleted, 1)
	require.Equal(t, u.ID, notify.deleted[0].ID)
	require.NotEmpty(t, notify.deleted[0].Library, "notification carries the deleted library")

	err = svc.Delete(ctx, u.ID.Hex())
	require.True(t, library.IsNotFound(err))
}

func TestConfigRoundTrip(t *testing.T) {
	svc, _, _ := newTestService()
	u := register(t, svc, "ana@example.com")
	ctx := context.Background()

	cfg, err := svc.GetConfig(ctx, u.ID.Hex())
	require.NoError(t, err)
	require.True(t, cfg.DraftNotification)
	require.False(t, cfg.DarkMode)

	cfg.DarkMode = true
	cfg.AutoBackup = true
	saved, err := svc.UpdateConfig(ctx, u.ID.Hex(), cfg)
	require.NoError(t, err)
	require.Equal(t, cfg, saved)

	back, err := svc.GetConfig(ctx, u.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, cfg, back)
}

func TestMalformedUserID(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Get(context.Background(), strings.Repeat("z", 24))
	require.True(t, library.IsValidation(err))
}
