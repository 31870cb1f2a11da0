package users

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"notekeeper/internal/library"
)

// Notifier sends account lifecycle mail. Implementations must not block and
// must swallow their own failures.
type Notifier interface {
	SendAccountDeleted(u User)
}

// NopNotifier discards account notifications.
type NopNotifier struct{}

func (NopNotifier) SendAccountDeleted(User) {}

type Service struct {
	store  Store
	notify Notifier
	log    *slog.Logger
	now    func() time.Time
}

func NewService(store Store, notify Notifier, log *slog.Logger) *Service {
	return &Service{store: store, notify: notify, log: log, now: time.Now}
}

// Register creates an account seeded with the default library: the default
// folder pinned to order 1, holding one sample note.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" {
		return nil, library.Validationf("name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Pwd); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Pwd), bcrypt.DefaultCost)
	if err != nil {
		return nil, library.Internal("hash password", err)
	}

	u := &User{
		ID:             primitive.NewObjectID(),
		Name:           name,
		Email:          email,
		Pwd:            string(hash),
		Library:        library.New(s.now()),
		LibraryVersion: 1,
		Config:         DefaultConfig(),
	}
	if err := s.store.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and returns the account.
func (s *Service) Login(ctx context.Context, in LoginInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	u, err := s.store.FindByEmail(ctx, email)
	if library.IsNotFound(err) {
		return nil, library.Validationf("email or password is incorrect")
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Pwd), []byte(in.Pwd)) != nil {
		return nil, library.Validationf("email or password is incorrect")
	}
	return u, nil
}

// Get returns the account for the given id.
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}

// Update edits name, email or password; omitted fields keep their value.
func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) (*User, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, library.Validationf("name cannot be empty")
		}
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		u.Email = email
	}
	if in.Pwd != nil {
		if err := validatePassword(*in.Pwd); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Pwd), bcrypt.DefaultCost)
		if err != nil {
			return nil, library.Internal("hash password", err)
		}
		u.Pwd = string(hash)
	}

	if err := s.store.UpdateProfile(ctx, id, u.Name, u.Email, u.Pwd); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes the account, its library included, and emails the owner a
// dump of what was deleted.
func (s *Service) Delete(ctx context.Context, userID string) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}

	u, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.notify.SendAccountDeleted(*u)
	return nil
}

// GetConfig returns the account preferences.
func (s *Service) GetConfig(ctx context.Context, userID string) (Config, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return Config{}, err
	}
	return u.Config, nil
}

// UpdateConfig replaces the account preferences.
func (s *Service) UpdateConfig(ctx context.Context, userID string, cfg Config) (Config, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return Config{}, err
	}
	if err := s.store.UpdateConfig(ctx, id, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseUserID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, library.Validationf("user_id must be a 24-character hex object id")
	}
	return id, nil
}
