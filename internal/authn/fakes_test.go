package authn_test

import (
	"context"
	"time"

	"github.com/glosshub/gloss/internal/credential"
	"github.com/glosshub/gloss/internal/user"
)

type fakeTokens struct {
	tokens map[string]*credential.Token
}

func newFakeTokens(tokens ...*credential.Token) *fakeTokens {
	f := &fakeTokens{tokens: map[string]*credential.Token{}}
	for _, t := range tokens {
		f.tokens[t.Value] = t
	}
	return f
}

func (f *fakeTokens) CreateToken(ctx context.Context, t *credential.Token) error {
	f.tokens[t.Value] = t
	return nil
}

func (f *fakeTokens) GetByValue(ctx context.Context, value string) (*credential.Token, error) {
	if t, ok := f.tokens[value]; ok {
		return t, nil
	}
	return nil, credential.ErrTokenNotFound
}

func (f *fakeTokens) GetByRefreshToken(ctx context.Context, refreshToken string) (*credential.Token, error) {
	for _, t := range f.tokens {
		if t.RefreshToken != nil && *t.RefreshToken == refreshToken {
			return t, nil
		}
	}
	return nil, credential.ErrTokenNotFound
}

func (f *fakeTokens) DeleteByValue(ctx context.Context, value string) error {
	delete(f.tokens, value)
	return nil
}

func (f *fakeTokens) DeleteByRefreshToken(ctx context.Context, refreshToken string) error {
	for v, t := range f.tokens {
		if t.RefreshToken != nil && *t.RefreshToken == refreshToken {
			delete(f.tokens, v)
		}
	}
	return nil
}

func (f *fakeTokens) SetRefreshTokenExpires(ctx context.Context, refreshToken string, expires time.Time) error {
	for _, t := range f.tokens {
		if t.RefreshToken != nil && *t.RefreshToken == refreshToken {
			e := expires
			t.RefreshTokenExpires = &e
		}
	}
	return nil
}

type fakeClients struct {
	clients map[string]*credential.AuthClient
}

func newFakeClients(clients ...*credential.AuthClient) *fakeClients {
	f := &fakeClients{clients: map[string]*credential.AuthClient{}}
	for _, c := range clients {
		f.clients[c.ID] = c
	}
	return f
}

func (f *fakeClients) GetByID(ctx context.Context, id string) (*credential.AuthClient, error) {
	if c, ok := f.clients[id]; ok {
		return c, nil
	}
	return nil, credential.ErrClientNotFound
}

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

func activeUser(username, authority string) *user.User {
	return &user.User{
		Userid:    user.FormatUserid(username, authority),
		Username:  username,
		Authority: authority,
		Activated: true,
	}
}

func strptr(s string) *string { return &s }
