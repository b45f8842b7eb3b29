package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderErr(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        *Err
		wantStatus int
		wantMsg    string
	}{
		{name: "bad request", err: ErrBadRequest(errors.New("name: cannot be blank")), wantStatus: http.StatusBadRequest, wantMsg: "bad request"},
		{name: "import", err: ErrImportFailed(errors.New("unexpected EOF")), wantStatus: http.StatusBadRequest, wantMsg: "import failed"},
		{name: "locked", err: ErrConflict(errors.New("board is locked")), wantStatus: http.StatusConflict, wantMsg: "board is locked"},
		{name: "persistence", err: ErrPersistence(errors.New("disk full")), wantStatus: http.StatusBadGateway, wantMsg: "board changed locally but could not be saved"},
		{name: "not found", err: ErrNotFound("cell", "coord", "10-3"), wantStatus: http.StatusNotFound, wantMsg: "resource not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RenderErr(ctx, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, ctx.IsAborted())

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestErrPersistenceHidesCause(t *testing.T) {
	e := ErrPersistence(errors.New("pq: password authentication failed"))
	assert.Empty(t, e.ErrorText)
}
