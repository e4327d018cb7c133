package oauth_test

import (
	"context"
	"time"

	"github.com/glosshub/gloss/internal/credential"
	"github.com/glosshub/gloss/internal/user"
)

// nopScope satisfies txcache.Scope for tests that never end a transaction.
type nopScope struct {
	hooks []func()
}

func (s *nopScope) OnOuterEnd(f func()) {
	s.hooks = append(s.hooks, f)
}

func (s *nopScope) endOuter() {
	for _, f := range s.hooks {
		f()
	}
}

// fakeStore is an in-memory credential.Store.
type fakeStore struct {
	clients map[string]*credential.AuthClient
	codes   map[string]*credential.AuthzCode
	tokens  map[string]*credential.Token

	clientLookups int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients: map[string]*credential.AuthClient{},
		codes:   map[string]*credential.AuthzCode{},
		tokens:  map[string]*credential.Token{},
	}
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*credential.AuthClient, error) {
	s.clientLookups++
	if c, ok := s.clients[id]; ok {
		return c, nil
	}
	return nil, credential.ErrClientNotFound
}

func (s *fakeStore) CreateCode(ctx context.Context, code *credential.AuthzCode) error {
	s.codes[code.Code] = code
	return nil
}

func (s *fakeStore) GetByCode(ctx context.Context, code string) (*credential.AuthzCode, error) {
	if c, ok := s.codes[code]; ok {
		return c, nil
	}
	return nil, credential.ErrCodeNotFound
}

func (s *fakeStore) DeleteCode(ctx context.Context, code string) error {
	if _, ok := s.codes[code]; !ok {
		return credential.ErrCodeNotFound
	}
	delete(s.codes, code)
	return nil
}

func (s *fakeStore) CreateToken(ctx context.Context, token *credential.Token) error {
	s.tokens[token.Value] = token
	return nil
}

func (s *fakeStore) GetByValue(ctx context.Context, value string) (*credential.Token, error) {
	if t, ok := s.tokens[value]; ok {
		return t, nil
	}
	return nil, credential.ErrTokenNotFound
}

func (s *fakeStore) GetByRefreshToken(ctx context.Context, refreshToken string) (*credential.Token, error) {
	for _, t := range s.tokens {
		if t.RefreshToken != nil && *t.RefreshToken == refreshToken {
			return t, nil
		}
	}
	return nil, credential.ErrTokenNotFound
}

func (s *fakeStore) DeleteByValue(ctx context.Context, value string) error {
	if _, ok := s.tokens[value]; !ok {
		return credential.ErrTokenNotFound
	}
	delete(s.tokens, value)
	return nil
}

func (s *fakeStore) DeleteByRefreshToken(ctx context.Context, refreshToken string) error {
	for v, t := range s.tokens {
		if t.RefreshToken != nil && *t.RefreshToken == refreshToken {
			delete(s.tokens, v)
			return nil
		}
	}
	return credential.ErrTokenNotFound
}

func (s *fakeStore) SetRefreshTokenExpires(ctx context.Context, refreshToken string, expires time.Time) error {
	for _, t := range s.tokens {
		if t.RefreshToken != nil && *t.RefreshToken == refreshToken {
			e := expires
			t.RefreshTokenExpires = &e
			return nil
		}
	}
	return credential.ErrTokenNotFound
}

// fakeDirectory is an in-memory user.Directory.
type fakeDirectory struct {
	users map[string]*user.User
}

func newFakeDirectory(users ...*user.User) *fakeDirectory {
	d := &fakeDirectory{users: map[string]*user.User{}}
	for _, u := range users {
		d.users[u.Userid] = u
	}
	return d
}

func (d *fakeDirectory) GetByUserid(ctx context.Context, userid string) (*user.User, error) {
	if u, ok := d.users[userid]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func (d *fakeDirectory) GetByUsername(ctx context.Context, username, authority string) (*user.User, error) {
	for _, u := range d.users {
		if u.Username == username && u.Authority == authority {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func strptr(s string) *string { return &s }
