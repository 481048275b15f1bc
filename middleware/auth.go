package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUserKey stores the resolved *models.User.
	ContextUserKey = "user"
	// ContextTokenKey stores the raw bearer token, needed by logout.
	ContextTokenKey = "token"
)

// TokenVerifier turns a bearer token into a user id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// UserResolver loads the account behind a verified user id.
type UserResolver interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// AuthRequired ensures the request carries a valid bearer token for an
// existing account.
func AuthRequired(tokens TokenVerifier, users UserResolver) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			abort(ctx, utils.CodeMissingAuth, "authorization header missing")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(ctx, utils.CodeBadAuthFormat, "invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abort(ctx, utils.CodeEmptyToken, "empty bearer token")
			return
		}

		userID, err := tokens.Verify(ctx.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, services.ErrTokenRevoked) {
				abort(ctx, utils.CodeTokenRevoked, "token revoked")
				return
			}
			abort(ctx, utils.CodeInvalidToken, "invalid token")
			return
		}

		user, err := users.Get(ctx.Request.Context(), userID)
		if err != nil {
			if services.IsKind(err, services.KindNotFound) {
				abort(ctx, utils.CodeUnknownUser, "user no longer exists")
				return
			}
			_ = ctx.Error(err)
			utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "internal server error", "")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, user.ID)
		ctx.Set(ContextUserKey, user)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func abort(ctx *gin.Context, code int, message string) {
	utils.Error(ctx, http.StatusUnauthorized, code, "Authorization failed", message)
	ctx.Abort()
}
