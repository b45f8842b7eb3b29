package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vietanh2810/squares-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/squares-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/squares-api/internal/api/middleware"
	"github.com/vietanh2810/squares-api/internal/config"
	"github.com/vietanh2810/squares-api/internal/domain"
	"github.com/vietanh2810/squares-api/internal/pkg/jwthelper"
	"github.com/vietanh2810/squares-api/internal/service"
)

type AuthService interface {
	PasscodeLogin(passcode string) (domain.Identity, error)
	Signup(ctx context.Context, reg service.Registration) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.Identity, error)
	Policy() *service.AdminPolicy
}

type UserService interface {
	Profile(ctx context.Context, id domain.Identity) (domain.User, error)
}

type AccessReader interface {
	Access(id domain.Identity) domain.Access
	Snapshot() domain.Fundraiser
}

type AuthHandler struct {
	conf  *config.APIConfig
	svc   AuthService
	board AccessReader
	users UserService
}

// NewAuthHandler wires sign-in. users may be nil in passcode mode.
func NewAuthHandler(conf *config.APIConfig, svc AuthService, board AccessReader, users UserService) *AuthHandler {
	return &AuthHandler{
		conf:  conf,
		svc:   svc,
		board: board,
		users: users,
	}
}

// HandlePasscode godoc
// @Summary      Sign in with the admin passcode
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      request.PasscodeRequest  true  "request body"
// @Success      200      {object}  response.LoginResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /auth/passcode [post]
func (h *AuthHandler) HandlePasscode(ctx *gin.Context) {
	req := request.PasscodeRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	id, err := h.svc.PasscodeLogin(req.Passcode)
	if err != nil {
		if errors.Is(err, service.ErrWrongPasscode) {
			response.RenderErr(ctx, response.ErrWrongCredentials(err))

			return
		}
		if errors.Is(err, service.ErrPasscodeDisabled) {
			response.RenderErr(ctx, response.ErrBadRequest(err))

			return
		}

		err = fmt.Errorf("v1.HandlePasscode -> h.svc.PasscodeLogin -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	h.renderToken(ctx, id)
}

// HandleSignup godoc
// @Summary      Create an account
// @Description  Anyone may sign up. Only emails on the admin allow-list can manage the board.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      request.SignupRequest  true  "request body"
// @Success      201      {object}  response.SignupResponse
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /auth/signup [post]
func (h *AuthHandler) HandleSignup(ctx *gin.Context) {
	req := request.SignupRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	user, err := h.svc.Signup(ctx.Request.Context(), service.Registration{
		Email:       req.Email,
		DisplayName: req.Name,
		Password:    req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserEmailExists) || errors.Is(err, service.ErrAccountsDisabled) {
			response.RenderErr(ctx, response.ErrBadRequest(err))

			return
		}

		err = fmt.Errorf("v1.HandleSignup -> h.svc.Signup -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusCreated, response.SignupResponse{
		User:  user,
		Admin: h.svc.Policy().IsAllowListed(user.Email),
	})
}

// HandleLogin godoc
// @Summary      Sign in with an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      request.LoginRequest  true  "request body"
// @Success      200      {object}  response.LoginResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	id, err := h.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrWrongPassword):
			response.RenderErr(ctx, response.ErrWrongCredentials(err))
		case errors.Is(err, service.ErrNotAllowListed):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrAccountsDisabled):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleLogin -> h.svc.Login -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	h.renderToken(ctx, id)
}

// HandleLogout godoc
// @Summary      Sign out
// @Description  Tokens are stateless; the client drops its token.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.MessageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) HandleLogout(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, response.MessageResponse{Message: "signed out"})
}

// HandleMe godoc
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.MeResponse
// @Failure      401  {object}  response.Err
// @Router       /auth/me [get]
// @Security BearerAuth
func (h *AuthHandler) HandleMe(ctx *gin.Context) {
	id := middleware.IdentityFrom(ctx)
	policy := h.svc.Policy()

	mode := config.AuthModePasscode
	if policy.AccountsMode() {
		mode = config.AuthModeAccounts
	}

	resp := response.MeResponse{
		Identity:    id,
		Admin:       h.board.Access(id).IsAdmin(),
		Mode:        mode,
		GateEnabled: policy.GateRequired(h.board.Snapshot()),
	}

	if id.Method == domain.MethodAccount && h.users != nil {
		user, err := h.users.Profile(ctx.Request.Context(), id)
		if err != nil {
			zap.L().Warn("looking up signed-in user failed", zap.Uint("user_id", id.UserID), zap.Error(err))
		} else {
			resp.User = &user
		}
	}

	ctx.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) renderToken(ctx *gin.Context, id domain.Identity) {
	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), id, ctx.Request.UserAgent(), h.conf.JWTTTL)
	if err != nil {
		err = fmt.Errorf("v1.renderToken -> jwthelper.GenerateToken() -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token:    token,
		Identity: id,
	})
}
