package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jchevalier/auth-api/internal/user"
)

// memStore is an in-memory UserStore mirroring the repository's Postgres
// semantics: unique email, not-found sentinels, partial updates.
type memStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[uuid.UUID]*user.User)}
}

func (s *memStore) Create(_ context.Context, email, hashedPassword string, passwordLastUpdatedAt time.Time) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return nil, user.ErrDuplicateEmail
		}
	}

	u := &user.User{
		ID:                    uuid.New(),
		Email:                 email,
		HashedPassword:        hashedPassword,
		PasswordLastUpdatedAt: passwordLastUpdatedAt,
		CreatedAt:             time.Now(),
		UpdatedAt:             time.Now(),
	}
	s.users[u.ID] = u

	return copyUser(u), nil
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, user.ErrNotFound
}

func (s *memStore) GetByResetToken(_ context.Context, token string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			return copyUser(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memStore) UpdateByID(_ context.Context, id uuid.UUID, upd user.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	applyUpdate(u, upd)
	return nil
}

func (s *memStore) UpdateByEmail(_ context.Context, email string, upd user.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			applyUpdate(u, upd)
			return nil
		}
	}
	return user.ErrNotFound
}

func (s *memStore) UpdateByResetToken(_ context.Context, token string, upd user.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			applyUpdate(u, upd)
			return nil
		}
	}
	return user.ErrNotFound
}

// mustGet returns the live stored record for assertions.
func (s *memStore) mustGet(id uuid.UUID) *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.users[id])
}

func applyUpdate(u *user.User, upd user.Update) {
	if upd.HashedPassword != nil {
		u.HashedPassword = *upd.HashedPassword
	}
	if upd.HashedRefreshToken != nil {
		v := *upd.HashedRefreshToken
		u.HashedRefreshToken = &v
	}
	if upd.ClearHashedRefreshToken {
		u.HashedRefreshToken = nil
	}
	if upd.PasswordLastUpdatedAt != nil {
		u.PasswordLastUpdatedAt = *upd.PasswordLastUpdatedAt
	}
	if upd.ResetToken != nil {
		v := *upd.ResetToken
		u.ResetToken = &v
	}
	if upd.ResetTokenExpiresAt != nil {
		v := *upd.ResetTokenExpiresAt
		u.ResetTokenExpiresAt = &v
	}
	if upd.ClearResetToken {
		u.ResetToken = nil
		u.ResetTokenExpiresAt = nil
	}
	u.UpdatedAt = time.Now()
}

func copyUser(u *user.User) *user.User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.HashedRefreshToken != nil {
		v := *u.HashedRefreshToken
		cp.HashedRefreshToken = &v
	}
	if u.ResetToken != nil {
		v := *u.ResetToken
		cp.ResetToken = &v
	}
	if u.ResetTokenExpiresAt != nil {
		v := *u.ResetTokenExpiresAt
		cp.ResetTokenExpiresAt = &v
	}
	return &cp
}

// sentMail records one delivered mail.
type sentMail struct {
	To      string
	Subject string
	HTML    string
}

// capturingMailer records mail instead of sending it.
type capturingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *capturingMailer) SendMail(_ context.Context, to, subject, html string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, HTML: html})
	return []string{to}, nil
}

func (m *capturingMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// fakeLimiter lets handler tests turn rate limiting on and off.
type fakeLimiter struct {
	limited bool
}

func (f *fakeLimiter) CheckIPRateLimit(context.Context, string, string) (bool, error) {
	return f.limited, nil
}

func (f *fakeLimiter) RecordIPRequest(context.Context, string, string) error {
	return nil
}
