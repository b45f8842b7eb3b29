package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/squares-api/internal/api/middleware"
	"github.com/vietanh2810/squares-api/internal/config"
	"github.com/vietanh2810/squares-api/internal/metrics"
	"github.com/vietanh2810/squares-api/internal/service"
)

const (
	testSigningKey = "0123456789abcdef0123456789abcdef"
	testUserAgent  = "handler-test"
)

type memStore struct {
	mu  sync.Mutex
	doc []byte
	err error
}

func (m *memStore) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc, nil
}

func (m *memStore) Save(_ context.Context, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.doc = doc
	return nil
}

type testEnv struct {
	router *gin.Engine
	store  *memStore
	board  *service.FundraiserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memStore{}
	policy := service.NewPasscodePolicy()
	board := service.NewFundraiserService(store, policy, metrics.New(nil))
	board.Start(context.Background())

	conf := &config.APIConfig{JWTSigningKey: testSigningKey, JWTTTL: time.Hour}
	authHandler := NewAuthHandler(conf, service.NewAuthService(nil, board, policy), board, nil)
	boardHandler := NewBoardHandler(board)

	r := gin.New()
	authn := middleware.NewAuthenticator(testSigningKey)
	public := r.Group("/api/v1", authn.ParseJWTOptional())
	public.GET("/board", boardHandler.HandleGetBoard)
	public.GET("/rules", boardHandler.HandleGetRules)
	public.GET("/intro", boardHandler.HandleGetIntro)

	api := r.Group("/api/v1", authn.ParseJWT())
	api.POST("/auth/passcode", authHandler.HandlePasscode)
	api.POST("/auth/logout", authHandler.HandleLogout)
	api.GET("/auth/me", authHandler.HandleMe)
	api.GET("/admin/board", boardHandler.HandleGetAdminBoard)
	api.PUT("/admin/board", boardHandler.HandleReplaceBoard)
	api.PUT("/admin/cells/:row/:col", boardHandler.HandleSetCell)
	api.DELETE("/admin/cells/:row/:col", boardHandler.HandleClearCell)
	api.DELETE("/admin/cells", boardHandler.HandleClearCells)
	api.PUT("/admin/scoreboard/:checkpoint", boardHandler.HandleSetScore)
	api.PUT("/admin/reveals/:checkpoint", boardHandler.HandleSetReveal)
	api.POST("/admin/numbers/draw", boardHandler.HandleDrawNumbers)
	api.POST("/admin/numbers/reset", boardHandler.HandleResetNumbers)
	api.PUT("/admin/settings", boardHandler.HandleUpdateSettings)
	api.PUT("/admin/lock", boardHandler.HandleSetLock)
	api.PUT("/admin/gate", boardHandler.HandleSetGate)
	api.GET("/admin/export", boardHandler.HandleExport)
	api.POST("/admin/import", boardHandler.HandleImport)
	api.POST("/admin/reset", boardHandler.HandleReset)

	return &testEnv{router: r, store: store, board: board}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", testUserAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signIn enables the gate with passcode and returns an admin token.
func (e *testEnv) signIn(t *testing.T, passcode string) string {
	t.Helper()

	w := e.do(t, http.MethodPut, "/api/v1/admin/gate", "", map[string]any{"enabled": true, "passcode": passcode})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/api/v1/auth/passcode", "", map[string]string{"passcode": passcode})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
