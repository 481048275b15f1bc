package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

// respondError maps a service error onto the envelope. Internal causes
// are logged and never sent to the client.
func respondError(ctx *gin.Context, logger *zap.Logger, err error) {
	var se *services.Error
	if !errors.As(err, &se) || se.Kind == services.KindInternal {
		logger.Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Error(err),
		)
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "internal server error", "")
		return
	}

	switch se.Kind {
	case services.KindValidation:
		utils.Error(ctx, http.StatusBadRequest, utils.CodeValidation, se.Message, services.ValidationDetails(se))
	case services.KindInvalidCredential:
		utils.Error(ctx, http.StatusBadRequest, utils.CodeInvalidCredential, se.Message, "")
	case services.KindUnauthenticated:
		utils.Error(ctx, http.StatusUnauthorized, utils.CodeInvalidToken, "Authorization failed", se.Message)
	case services.KindForbidden:
		utils.Error(ctx, http.StatusForbidden, utils.CodeForbidden, se.Message, "")
	case services.KindNotFound:
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, se.Message, "")
	case services.KindConflict:
		utils.Error(ctx, http.StatusConflict, utils.CodeConflict, se.Message, "")
	}
}

func invalidPayload(ctx *gin.Context, err error) {
	utils.Error(ctx, http.StatusBadRequest, utils.CodeValidation, "invalid request payload", err.Error())
}
