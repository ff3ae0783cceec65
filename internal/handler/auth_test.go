package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/experiencias-arroyo/sierra-explora/internal/config"
	"github.com/experiencias-arroyo/sierra-explora/internal/middleware"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
	"github.com/experiencias-arroyo/sierra-explora/internal/repository"
	"github.com/experiencias-arroyo/sierra-explora/internal/utils"
)

type fakeUsers struct {
	mu   sync.Mutex
	byID map[uint64]model.User
}

func (f *fakeUsers) Create(_ context.Context, email, displayName, password, role string, cost int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	id := uint64(len(f.byID) + 1)
	f.byID[id] = model.User{ID: id, Email: email, DisplayName: displayName, PasswordHash: hash, Role: role, IsActive: true}
	return id, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type storedToken struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type fakeTokens struct {
	mu     sync.Mutex
	byHash map[string]*storedToken
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHash[hash] = &storedToken{userID: userID, exp: exp}
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string, now time.Time) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byHash[hash]
	if !ok || t.revoked || !t.exp.After(now) {
		return 0, repository.ErrNotFound
	}
	return t.userID, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byHash[hash]; ok {
		t.revoked = true
	}
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byHash {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

func (f *fakeTokens) live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.byHash {
		if !t.revoked {
			n++
		}
	}
	return n
}

type authEnv struct {
	e      *echo.Echo
	users  *fakeUsers
	tokens *fakeTokens
}

func newAuthEnv() authEnv {
	cfg := config.Config{
		JWTSecret:      testSecret,
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
		AdminEmails:    "ops@sierra-explora.mx, Jefa@Sierra-Explora.mx",
	}
	users := &fakeUsers{byID: map[uint64]model.User{}}
	tokens := &fakeTokens{byHash: map[string]*storedToken{}}
	h := NewAuthHandler(cfg, users, tokens)

	e := echo.New()
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
	e.POST("/auth/logout", h.Logout, middleware.JWTAuth(testSecret))
	e.GET("/me", h.Me, middleware.JWTAuth(testSecret))
	return authEnv{e: e, users: users, tokens: tokens}
}

func (env authEnv) register(t *testing.T, email string) authResp {
	t.Helper()
	rec := do(env.e, http.MethodPost, "/auth/register", "",
		`{"email":"`+email+`","password":"senderismo","displayName":"Ana"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp authResp
	decodeBody(t, rec.Body.Bytes(), &resp)
	return resp
}

func TestRegisterAssignsRoles(t *testing.T) {
	env := newAuthEnv()

	user := env.register(t, "ana@example.com")
	assert.Equal(t, model.RoleUser, user.User.Role)
	assert.Equal(t, "Ana", user.User.DisplayName)
	assert.NotEmpty(t, user.Refresh.Token)

	claims, err := utils.ParseAccessToken(testSecret, user.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, claims.Role)
	assert.Equal(t, "Ana", claims.Name)

	admin := env.register(t, " JEFA@sierra-explora.mx ")
	assert.Equal(t, model.RoleAdmin, admin.User.Role)
	assert.Equal(t, "jefa@sierra-explora.mx", admin.User.Email)
}

func TestRegisterRejects(t *testing.T) {
	env := newAuthEnv()
	env.register(t, "ana@example.com")

	cases := []struct {
		name string
		body string
		want int
	}{
		{"duplicate", `{"email":"ana@example.com","password":"senderismo"}`, http.StatusConflict},
		{"short password", `{"email":"luis@example.com","password":"corta"}`, http.StatusBadRequest},
		{"missing email", `{"password":"senderismo"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, do(env.e, http.MethodPost, "/auth/register", "", tc.body).Code)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newAuthEnv()
	env.register(t, "ana@example.com")

	rec := do(env.e, http.MethodPost, "/auth/login", "", `{"email":"ANA@example.com","password":"senderismo"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(env.e, http.MethodPost, "/auth/login", "", `{"email":"ana@example.com","password":"equivocada"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(env.e, http.MethodPost, "/auth/login", "", `{"email":"nadie@example.com","password":"senderismo"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	u := env.users.byID[1]
	u.IsActive = false
	env.users.byID[1] = u
	rec = do(env.e, http.MethodPost, "/auth/login", "", `{"email":"ana@example.com","password":"senderismo"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRotates(t *testing.T) {
	env := newAuthEnv()
	first := env.register(t, "ana@example.com")

	body := `{"refresh_token":"` + first.Refresh.Token + `"}`
	rec := do(env.e, http.MethodPost, "/auth/refresh", "", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var second authResp
	decodeBody(t, rec.Body.Bytes(), &second)
	assert.NotEqual(t, first.Refresh.Token, second.Refresh.Token)
	assert.Equal(t, 1, env.tokens.live())

	assert.Equal(t, http.StatusUnauthorized, do(env.e, http.MethodPost, "/auth/refresh", "", body).Code, "reuse")
	assert.Equal(t, http.StatusBadRequest, do(env.e, http.MethodPost, "/auth/refresh", "", `{}`).Code)
}

func TestLogoutAndMe(t *testing.T) {
	env := newAuthEnv()
	a := env.register(t, "ana@example.com")
	env.register(t, "luis@example.com")
	auth := "Bearer " + a.Access.Token

	rec := do(env.e, http.MethodGet, "/me", auth, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var me userPart
	decodeBody(t, rec.Body.Bytes(), &me)
	assert.Equal(t, "ana@example.com", me.Email)

	assert.Equal(t, http.StatusUnauthorized, do(env.e, http.MethodPost, "/auth/logout", "", "").Code)
	assert.Equal(t, http.StatusNoContent, do(env.e, http.MethodPost, "/auth/logout", auth, "").Code)
	assert.Equal(t, 1, env.tokens.live(), "only the caller's tokens are revoked")
}

type pingFunc func(context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/ok", Health(pingFunc(func(context.Context) error { return nil })))
	e.GET("/down", Health(pingFunc(func(context.Context) error { return errors.New("gone") })))

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ok", "", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/down", "", "").Code)
}
