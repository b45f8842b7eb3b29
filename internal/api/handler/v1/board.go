package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/squares-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/squares-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/squares-api/internal/api/middleware"
	"github.com/vietanh2810/squares-api/internal/domain"
	"github.com/vietanh2810/squares-api/internal/service"
)

const (
	exportFilename = "super-bowl-squares.json"
	maxImportBytes = 1 << 20
)

type FundraiserService interface {
	Snapshot() domain.Fundraiser
	PublicView() domain.PublicView
	AdminView(id domain.Identity) (domain.AdminView, error)

	SetCell(ctx context.Context, id domain.Identity, c domain.Coord, name string) (domain.Fundraiser, error)
	ClearCell(ctx context.Context, id domain.Identity, c domain.Coord) (domain.Fundraiser, error)
	ClearCells(ctx context.Context, id domain.Identity) (domain.Fundraiser, error)
	SetScore(ctx context.Context, id domain.Identity, c domain.Checkpoint, teamA, teamB any) (domain.Fundraiser, error)
	SetReveal(ctx context.Context, id domain.Identity, c domain.Checkpoint, revealed bool) (domain.Fundraiser, error)
	DrawNumbers(ctx context.Context, id domain.Identity) (domain.Fundraiser, error)
	ResetNumbers(ctx context.Context, id domain.Identity) (domain.Fundraiser, error)
	UpdateSettings(ctx context.Context, id domain.Identity, patch service.Settings) (domain.Fundraiser, error)
	SetLock(ctx context.Context, id domain.Identity, locked bool) (domain.Fundraiser, error)
	SetGate(ctx context.Context, id domain.Identity, enabled bool, passcode string) (domain.Fundraiser, error)
	Replace(ctx context.Context, id domain.Identity, raw []byte) (domain.Fundraiser, error)
	Export(id domain.Identity) ([]byte, error)
	Reset(ctx context.Context, id domain.Identity) (domain.Fundraiser, error)
}

type BoardHandler struct {
	svc FundraiserService
}

func NewBoardHandler(svc FundraiserService) *BoardHandler {
	return &BoardHandler{
		svc: svc,
	}
}

// HandleGetBoard godoc
// @Summary      Public board
// @Description  Cells, axis digits, revealed winners and fundraising progress. Unrevealed winners are hidden.
// @Tags         board
// @Produce      json
// @Success      200  {object}  domain.PublicView
// @Router       /board [get]
func (h *BoardHandler) HandleGetBoard(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.svc.PublicView())
}

// HandleGetRules godoc
// @Summary      Rules and prizes
// @Tags         board
// @Produce      json
// @Success      200  {object}  response.RulesResponse
// @Router       /rules [get]
func (h *BoardHandler) HandleGetRules(ctx *gin.Context) {
	f := h.svc.Snapshot()

	ctx.JSON(http.StatusOK, response.RulesResponse{
		Rules:       f.Rules,
		Payouts:     f.Payouts,
		Fundraising: f.Fundraising,
	})
}

// HandleGetIntro godoc
// @Summary      Intro copy
// @Tags         board
// @Produce      json
// @Success      200  {object}  response.IntroResponse
// @Router       /intro [get]
func (h *BoardHandler) HandleGetIntro(ctx *gin.Context) {
	m := h.svc.Snapshot().Meta

	ctx.JSON(http.StatusOK, response.IntroResponse{
		Title:         m.Title,
		Subtitle:      m.Subtitle,
		IntroHeadline: m.IntroHeadline,
		IntroBody:     m.IntroBody,
	})
}

// HandleGetAdminBoard godoc
// @Summary      Admin board
// @Description  The whole aggregate plus every resolution, revealed or not.
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.AdminView
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /admin/board [get]
// @Security BearerAuth
func (h *BoardHandler) HandleGetAdminBoard(ctx *gin.Context) {
	id := middleware.IdentityFrom(ctx)

	view, err := h.svc.AdminView(id)
	if err != nil {
		renderBoardErr(ctx, id, "h.svc.AdminView", err)

		return
	}

	ctx.JSON(http.StatusOK, view)
}

// HandleReplaceBoard godoc
// @Summary      Replace the whole board
// @Description  The body is merged onto the defaults. On a locked board only non-board fields may differ.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      domain.Fundraiser  true  "whole document"
// @Success      200      {object}  domain.AdminView
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      502      {object}  response.Err
// @Router       /admin/board [put]
// @Security BearerAuth
func (h *BoardHandler) HandleReplaceBoard(ctx *gin.Context) {
	h.replace(ctx, "h.svc.Replace", response.ErrBadRequest)
}

// HandleImport godoc
// @Summary      Import an exported board
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      domain.Fundraiser  true  "exported document"
// @Success      200      {object}  domain.AdminView
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      502      {object}  response.Err
// @Router       /admin/import [post]
// @Security BearerAuth
func (h *BoardHandler) HandleImport(ctx *gin.Context) {
	h.replace(ctx, "h.svc.Replace(import)", response.ErrImportFailed)
}

func (h *BoardHandler) replace(ctx *gin.Context, op string, invalid func(error) *response.Err) {
	id := middleware.IdentityFrom(ctx)

	raw, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxImportBytes))
	if err != nil {
		response.RenderErr(ctx, invalid(err))

		return
	}

	f, err := h.svc.Replace(ctx.Request.Context(), id, raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidImport) {
			response.RenderErr(ctx, invalid(err))

			return
		}

		renderBoardErr(ctx, id, op, err)

		return
	}

	ctx.JSON(http.StatusOK, domain.NewAdminView(f))
}

// HandleExport godoc
// @Summary      Export the board
// @Description  Downloads the whole document as super-bowl-squares.json.
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.Fundraiser
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Router       /admin/export [get]
// @Security BearerAuth
func (h *BoardHandler) HandleExport(ctx *gin.Context) {
	id := middleware.IdentityFrom(ctx)

	doc, err := h.svc.Export(id)
	if err != nil {
		renderBoardErr(ctx, id, "h.svc.Export", err)

		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename))
	ctx.Data(http.StatusOK, "application/json", doc)
}

// HandleSetCell godoc
// @Summary      Set a square's name
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        row      path      int                  true  "row 0-9"
// @Param        col      path      int                  true  "column 0-9"
// @Param        request  body      request.CellRequest  true  "request body"
// @Success      200      {object}  domain.AdminView
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      502      {object}  response.Err
// @Router       /admin/cells/{row}/{col} [put]
// @Security BearerAuth
func (h *BoardHandler) HandleSetCell(ctx *gin.Context) {
	c, respErr := coordFromPath(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	req := request.CellRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	h.mutate(ctx, "h.svc.SetCell", func(id domain.Identity) (domain.Fundraiser, error) {
		return h.svc.SetCell(ctx.Request.Context(), id, c, req.Name)
	})
}

// HandleClearCell godoc
// @Summary      Clear one square
// @Tags         admin
// @Produce      json
// @Param        row  path      int  true  "row 0-9"
// @Param        col  path      int  true  "column 0-9"
// @Success      200  {object}  domain.AdminView
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      502  {object}  response.Err
// @Router       /admin/cells/{row}/{col} [delete]
// @Security BearerAuth
func (h *BoardHandler) HandleClearCell(ctx *gin.Context) {
	c, respErr := coordFromPath(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	h.mutate(ctx, "h.svc.ClearCell", func(id domain.Identity) (domain.Fundraiser, error) {
		return h.svc.ClearCell(ctx.Request.Context(), id, c)
	})
}

// HandleClearCells godoc
// @Summary      Clear every square
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.AdminView
// @Failure      401  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      502  {object}  response.Err
// @Router       /admin/cells [delete]
// @Security BearerAuth
func (h *BoardHandler) HandleClearCells(ctx *gin.Context) {
	h.mutate(ctx, "h.svc.ClearCells", func(id domain.Identity) (domain.Fundraiser, error) {
		return h.svc.ClearCells(ctx.Request.Context(), id)
	})
}

// HandleSetScore godoc
// @Summary      Set a checkpoint score
// @Description  Send the last digit of each team's score. The first decimal character of each value is kept.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        checkpoint  path      string                true  "q1, halftime, q3 or final"
// @Param        request     body      request.ScoreRequest  true  "request body"
// @Success      200         {object}  domain.AdminView
// @Failure      400         {object}  response.Err
// @Failure      401         {object}  response.Err
// @Failure      409         {object}  response.Err
// @Failure      502         {object}  response.Err
// @Router       /admin/scoreboard/{checkpoint} [put]
// @Security BearerAuth
func (h *BoardHandler) HandleSetScore(ctx *gin.Context) {
	c, err := domain.ParseCheckpoint(ctx.Param("checkpoint"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	req := request.ScoreRequest{}
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	h.mutate(ctx, "h.svc.SetScore", func(id domain.Identity) (domain.Fundraiser, error) {
		return h.svc.SetScore(ctx.Request.Context(), id, c, req.TeamA, req.TeamB)
	})
}

// HandleSetReveal godoc
// @Summary      Reveal or hide a checkpoint winner
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        checkpoint  path      string                 true  "q1, halftime, q3 or final"
// @Param        request     body      request.RevealRequest  true  "request body"
// @Success      200         {object}  domain.AdminView
// @Failure      400         {object}  response.Err
// @Failure      401         {object}  response.Err
// @Failure      409         {object}  response.Err
// @Failure      502         {object}  response.Err
// @Router       /admin/reveals/{checkpoint} [put]
// @Security BearerAuth
func (h *BoardHandler) HandleSetReveal(ctx *gin.Context) {
	c, err := domain.ParseCheckpoint(ctx.Param("checkpoint"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	req := request.RevealRequest{}
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	h.mutate(ctx, "h.svc.SetReveal", func(id domain.Identity) (domain.Fundraiser, error) {
		return h.svc.SetReveal(ctx.Request.Context(), id, c, *req.Revealed)
	})
}

// HandleDrawNumbers godoc
// @Summary      Randomize the axis digits
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.AdminView
// @Failure      401  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      502  {object}  response.Err
// @Router       /admin/numbers/draw [post]
// @Security BearerAuth
func (h *BoardHandler) HandleDrawNumbers(ctx *gin.Context) {
	h.mutate(ctx, "h.svc.DrawNumbers", func(id domain.Identity) (domain.Fundraiser, error) {
		return h.svc.DrawNumbers(ctx.Request.Context(), id)
	})
}

// HandleResetNumbers godoc
// @Summary      Restore 0-9 axis digits
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.AdminView
// @Failure      401  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      502  {object}  response.Err
// @Router       /admin/numbers/reset [post]
// @Security BearerAuth
func (h *BoardHandler) HandleResetNumbers(ctx *gin.Context) {
	h.mutate(ctx, "h.svc.ResetNumbers", func(id domain.Identity) (domain.Fundraiser, error) {
		return h.svc.ResetNumbers(ctx.Request.Context(), id)
	})
}

// HandleUpdateSettings godoc
// @Summary      Update settings
// @Description  Replaces each settings group present in the body. Allowed on a locked board.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.SettingsRequest  true  "request body"
// @Success      200      {object}  domain.AdminView
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      502      {object}  response.Err
// @Router       /admin/settings [put]
// @Security BearerAuth
func (h *BoardHandler) HandleUpdateSettings(ctx *gin.Context) {
	req := request.SettingsRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	h.mutate(ctx, "h.svc.UpdateSettings", func(id domain.Identity) (domain.Fundraiser, error) {
		return h.svc.UpdateSettings(ctx.Request.Context(), id, req.ToSettings())
	})
}

// HandleSetLock godoc
// @Summary      Lock or unlock the board
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.LockRequest  true  "request body"
// @Success      200      {object}  domain.AdminView
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      502      {object}  response.Err
// @Router       /admin/lock [put]
// @Security BearerAuth
func (h *BoardHandler) HandleSetLock(ctx *gin.Context) {
	req := request.LockRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	h.mutate(ctx, "h.svc.SetLock", func(id domain.Identity) (domain.Fundraiser, error) {
		return h.svc.SetLock(ctx.Request.Context(), id, *req.Locked)
	})
}

// HandleSetGate godoc
// @Summary      Configure the passcode gate
// @Description  Any change signs out every passcode session, the caller's included.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      request.GateRequest  true  "request body"
// @Success      200      {object}  domain.AdminView
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      502      {object}  response.Err
// @Router       /admin/gate [put]
// @Security BearerAuth
func (h *BoardHandler) HandleSetGate(ctx *gin.Context) {
	req := request.GateRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	h.mutate(ctx, "h.svc.SetGate", func(id domain.Identity) (domain.Fundraiser, error) {
		return h.svc.SetGate(ctx.Request.Context(), id, *req.Enabled, req.Passcode)
	})
}

// HandleReset godoc
// @Summary      Reset to defaults
// @Description  Restores the default board. The passcode gate is kept.
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.AdminView
// @Failure      401  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      502  {object}  response.Err
// @Router       /admin/reset [post]
// @Security BearerAuth
func (h *BoardHandler) HandleReset(ctx *gin.Context) {
	h.mutate(ctx, "h.svc.Reset", func(id domain.Identity) (domain.Fundraiser, error) {
		return h.svc.Reset(ctx.Request.Context(), id)
	})
}

func (h *BoardHandler) mutate(ctx *gin.Context, op string, fn func(domain.Identity) (domain.Fundraiser, error)) {
	id := middleware.IdentityFrom(ctx)

	f, err := fn(id)
	if err != nil {
		renderBoardErr(ctx, id, op, err)

		return
	}

	ctx.JSON(http.StatusOK, domain.NewAdminView(f))
}

func coordFromPath(ctx *gin.Context) (domain.Coord, *response.Err) {
	row, err := strconv.Atoi(ctx.Param("row"))
	if err != nil {
		return domain.Coord{}, response.ErrBadRequest(fmt.Errorf("row: %w", err))
	}

	col, err := strconv.Atoi(ctx.Param("col"))
	if err != nil {
		return domain.Coord{}, response.ErrBadRequest(fmt.Errorf("col: %w", err))
	}

	c, err := domain.NewCoord(row, col)
	if err != nil {
		return domain.Coord{}, response.ErrNotFound("cell", "coord", fmt.Sprintf("%d-%d", row, col))
	}

	return c, nil
}

func renderBoardErr(ctx *gin.Context, id domain.Identity, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotAdmin):
		if id.Anonymous() {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
		} else {
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		}
	case errors.Is(err, service.ErrBoardLocked):
		response.RenderErr(ctx, response.ErrConflict(err))
	case errors.Is(err, service.ErrInvalidCoord):
		response.RenderErr(ctx, response.ErrNotFound("cell", "coord", "out of range"))
	case errors.Is(err, service.ErrUnknownCheckpoint),
		errors.Is(err, service.ErrPasscodeRequired),
		errors.Is(err, service.ErrGateUnavailable):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	case errors.Is(err, service.ErrPersistence):
		err = fmt.Errorf("v1.BoardHandler -> %s -> %w", op, err)
		response.RenderErr(ctx, response.ErrPersistence(err))
	default:
		err = fmt.Errorf("v1.BoardHandler -> %s -> %w", op, err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}
