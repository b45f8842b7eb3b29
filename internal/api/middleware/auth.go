package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vietanh2810/squares-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/squares-api/internal/domain"
	"github.com/vietanh2810/squares-api/internal/pkg/jwthelper"
)

const identityKey = "identity"

var errMalformedHeader = errors.New("authorization header must be a bearer token")

type Authenticator struct {
	key []byte
}

func NewAuthenticator(key string) *Authenticator {
	return &Authenticator{
		key: []byte(key),
	}
}

// ParseJWT attaches the caller identity to the context. A request without
// an Authorization header continues as anonymous; a bad token is rejected.
// Whether the identity is an admin is decided later against the board.
func (a *Authenticator) ParseJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, err := a.identify(ctx)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))

			return
		}

		ctx.Set(identityKey, id)
		ctx.Next()
	}
}

// ParseJWTOptional is ParseJWT for read-only routes: a malformed or stale
// token continues as anonymous instead of failing the request.
func (a *Authenticator) ParseJWTOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, err := a.identify(ctx)
		if err != nil {
			zap.L().Debug("ignoring bearer token", zap.String("path", ctx.FullPath()), zap.Error(err))
			id = domain.Identity{}
		}

		ctx.Set(identityKey, id)
		ctx.Next()
	}
}

func (a *Authenticator) identify(ctx *gin.Context) (domain.Identity, error) {
	header := ctx.GetHeader("Authorization")
	if header == "" {
		return domain.Identity{}, nil
	}

	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return domain.Identity{}, errMalformedHeader
	}

	claims, err := jwthelper.ParseToken(a.key, tokenStr, ctx.Request.UserAgent())
	if err != nil {
		return domain.Identity{}, err
	}

	return claims.Identity(), nil
}

// IdentityFrom returns the identity set by either parser, or anonymous.
func IdentityFrom(ctx *gin.Context) domain.Identity {
	v, ok := ctx.Get(identityKey)
	if !ok {
		return domain.Identity{}
	}

	id, _ := v.(domain.Identity)
	return id
}
