package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/squares-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/squares-api/internal/api/middleware"
	"github.com/vietanh2810/squares-api/internal/config"
	"github.com/vietanh2810/squares-api/internal/domain"
	"github.com/vietanh2810/squares-api/internal/metrics"
	"github.com/vietanh2810/squares-api/internal/repository"
	"github.com/vietanh2810/squares-api/internal/service"
)

type memUsers struct {
	users []domain.User
}

func (m *memUsers) Create(_ context.Context, user domain.User) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.User{}, repository.ErrUserEmailExists
		}
	}
	user.ID = uint(len(m.users) + 1)
	m.users = append(m.users, user)
	return user, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id uint) (domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrUserNotFound
}

func (m *memUsers) RecordLogin(_ context.Context, id uint, at time.Time) error {
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].LastLoginAt = &at
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func TestAuthHandler_Passcode(t *testing.T) {
	env := newTestEnv(t)

	me := decode[response.MeResponse](t, env.do(t, http.MethodGet, "/api/v1/auth/me", "", nil))
	assert.True(t, me.Admin, "an open board treats everyone as admin")
	assert.False(t, me.GateEnabled)
	assert.Equal(t, config.AuthModePasscode, me.Mode)

	token := env.signIn(t, "1234")

	w := env.do(t, http.MethodPost, "/api/v1/auth/passcode", "", map[string]string{"passcode": "0000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	me = decode[response.MeResponse](t, env.do(t, http.MethodGet, "/api/v1/auth/me", "", nil))
	assert.False(t, me.Admin)
	assert.True(t, me.GateEnabled)

	me = decode[response.MeResponse](t, env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil))
	assert.True(t, me.Admin)
	assert.Equal(t, domain.MethodPasscode, me.Identity.Method)

	w = env.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Accounts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	policy := service.NewAccountsPolicy(func() []string { return []string{"coach@example.com"} })
	board := service.NewFundraiserService(&memStore{}, policy, metrics.New(nil))
	board.Start(context.Background())
	users := &memUsers{}
	conf := &config.APIConfig{JWTSigningKey: testSigningKey, JWTTTL: time.Hour}
	h := NewAuthHandler(conf, service.NewAuthService(users, board, policy), board, service.NewUserService(users))

	r := gin.New()
	api := r.Group("/api/v1", middleware.NewAuthenticator(testSigningKey).ParseJWT())
	api.POST("/auth/signup", h.HandleSignup)
	api.POST("/auth/login", h.HandleLogin)
	api.POST("/auth/passcode", h.HandlePasscode)
	api.GET("/auth/me", h.HandleMe)

	post := func(path, body string, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", testUserAgent)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("/api/v1/auth/signup", `{"email":"coach@example.com","password":"squares25","confirm_password":"squares25","name":"Coach"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decode[response.SignupResponse](t, w).Admin)
	assert.NotContains(t, w.Body.String(), "squares25")

	w = post("/api/v1/auth/signup", `{"email":"coach@example.com","password":"squares25","confirm_password":"squares25","name":"Again"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post("/api/v1/auth/signup", `{"email":"fan@example.com","password":"squares25","confirm_password":"squares25","name":"Fan"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, decode[response.SignupResponse](t, w).Admin)

	w = post("/api/v1/auth/login", `{"email":"fan@example.com","password":"squares25"}`, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = post("/api/v1/auth/login", `{"email":"coach@example.com","password":"wrong-pass1"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post("/api/v1/auth/passcode", `{"passcode":"1234"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post("/api/v1/auth/login", `{"email":"coach@example.com","password":"squares25"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[response.LoginResponse](t, w).Token

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("User-Agent", testUserAgent)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	me := decode[response.MeResponse](t, w)
	assert.True(t, me.Admin)
	assert.Equal(t, config.AuthModeAccounts, me.Mode)
	require.NotNil(t, me.User)
	assert.Equal(t, "Coach", me.User.DisplayName)
	assert.NotNil(t, me.User.LastLoginAt)
}
