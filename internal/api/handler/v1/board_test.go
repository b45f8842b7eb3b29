package v1

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/squares-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/squares-api/internal/domain"
)

func TestBoardHandler_PublicRoutes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/board", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[domain.PublicView](t, w)
	assert.Len(t, view.Cells, 100)
	assert.Equal(t, domain.AxisPlaceholder, view.Axis.Top[0])
	assert.Equal(t, 500, view.Stats.Goal)

	w = env.do(t, http.MethodGet, "/api/v1/rules", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rules := decode[response.RulesResponse](t, w)
	assert.Equal(t, 5, rules.Fundraising.PerSquare)
	assert.NotEmpty(t, rules.Rules.Bullets)

	w = env.do(t, http.MethodGet, "/api/v1/intro", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.DefaultFundraiser().Meta.IntroHeadline, decode[response.IntroResponse](t, w).IntroHeadline)
}

func TestBoardHandler_OpenBoardEdits(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/v1/admin/cells/4/7", "", map[string]string{"name": "Jordan"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 5, decode[domain.AdminView](t, w).Stats.AmountRaised)

	w = env.do(t, http.MethodPut, "/api/v1/admin/scoreboard/q1", "", map[string]any{"teamA": "7", "teamB": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	admin := decode[domain.AdminView](t, w)
	require.NotNil(t, admin.Winners[0].Square)
	assert.Equal(t, "Jordan", admin.Winners[0].Square.Name)

	public := decode[domain.PublicView](t, env.do(t, http.MethodGet, "/api/v1/board", "", nil))
	assert.Equal(t, domain.WinnerHidden, public.Winners[0].Status)
	assert.Nil(t, public.Winners[0].TeamADigit)

	w = env.do(t, http.MethodPut, "/api/v1/admin/reveals/q1", "", map[string]bool{"revealed": true})
	require.Equal(t, http.StatusOK, w.Code)
	public = decode[domain.PublicView](t, env.do(t, http.MethodGet, "/api/v1/board", "", nil))
	assert.Equal(t, domain.WinnerRevealed, public.Winners[0].Status)
	assert.Equal(t, "Q1", public.Cells[47].Winner)

	w = env.do(t, http.MethodDelete, "/api/v1/admin/cells/4/7", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[domain.AdminView](t, w).Stats.FilledCount)
}

func TestBoardHandler_BadInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{name: "non-numeric row", method: http.MethodPut, path: "/api/v1/admin/cells/a/1", body: map[string]string{"name": "x"}, wantStatus: http.StatusBadRequest},
		{name: "row out of range", method: http.MethodPut, path: "/api/v1/admin/cells/10/1", body: map[string]string{"name": "x"}, wantStatus: http.StatusNotFound},
		{name: "unknown checkpoint", method: http.MethodPut, path: "/api/v1/admin/scoreboard/q5", body: map[string]int{"teamA": 1}, wantStatus: http.StatusBadRequest},
		{name: "object score", method: http.MethodPut, path: "/api/v1/admin/scoreboard/q1", body: map[string]any{"teamA": map[string]int{"x": 1}}, wantStatus: http.StatusBadRequest},
		{name: "missing reveal flag", method: http.MethodPut, path: "/api/v1/admin/reveals/final", body: map[string]any{}, wantStatus: http.StatusBadRequest},
		{name: "gate without passcode", method: http.MethodPut, path: "/api/v1/admin/gate", body: map[string]bool{"enabled": true}, wantStatus: http.StatusBadRequest},
		{name: "empty settings", method: http.MethodPut, path: "/api/v1/admin/settings", body: map[string]any{}, wantStatus: http.StatusBadRequest},
		{name: "malformed replace", method: http.MethodPut, path: "/api/v1/admin/board", body: "{nope", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestBoardHandler_GateAndLock(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t, "1234")

	w := env.do(t, http.MethodPut, "/api/v1/admin/cells/0/0", "", map[string]string{"name": "Sneaky"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/admin/board", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/admin/cells/0/0", token, map[string]string{"name": "Pat"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPut, "/api/v1/admin/lock", token, map[string]bool{"locked": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/admin/cells/0/1", token, map[string]string{"name": "Late"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/admin/numbers/draw", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/admin/settings", token, map[string]any{"teams": map[string]string{"top": "Chiefs", "left": "Eagles"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Chiefs", decode[domain.AdminView](t, w).Fundraiser.Teams.Top)

	w = env.do(t, http.MethodPut, "/api/v1/admin/lock", token, map[string]bool{"locked": false})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/admin/numbers/draw", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[domain.AdminView](t, w).Fundraiser.Numbers.Randomized)

	w = env.do(t, http.MethodPost, "/api/v1/admin/numbers/reset", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[domain.AdminView](t, w).Fundraiser.Numbers.Randomized)

	// A new passcode signs the old token out.
	w = env.do(t, http.MethodPut, "/api/v1/admin/gate", token, map[string]any{"enabled": true, "passcode": "9999"})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/admin/board", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBoardHandler_ExportImport(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/v1/admin/cells/2/2", "", map[string]string{"name": "Exported"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/admin/export", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="super-bowl-squares.json"`, w.Header().Get("Content-Disposition"))
	exported := w.Body.String()

	w = env.do(t, http.MethodPost, "/api/v1/admin/reset", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[domain.AdminView](t, w).Stats.FilledCount)

	w = env.do(t, http.MethodPost, "/api/v1/admin/import", "", "][")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "import failed", decode[response.Err](t, w).Message)

	w = env.do(t, http.MethodPost, "/api/v1/admin/import", "", exported)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Exported", decode[domain.AdminView](t, w).Fundraiser.Grid.Cell(domain.Coord{Row: 2, Col: 2}).Name)

	w = env.do(t, http.MethodDelete, "/api/v1/admin/cells", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[domain.AdminView](t, w).Stats.FilledCount)
}

func TestBoardHandler_PersistenceFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.err = errors.New("disk full")

	w := env.do(t, http.MethodPut, "/api/v1/admin/cells/1/1", "", map[string]string{"name": "Unsaved"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "board changed locally but could not be saved", decode[response.Err](t, w).Message)

	public := decode[domain.PublicView](t, env.do(t, http.MethodGet, "/api/v1/board", "", nil))
	assert.Equal(t, "Unsaved", public.Cells[11].Name)
}
