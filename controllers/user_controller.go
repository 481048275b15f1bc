package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

// UserController handles signup, login, logout and profile lookups.
type UserController struct {
	accounts *services.Accounts
	creds    *services.Credentials
	logger   *zap.Logger
}

// NewUserController creates a new UserController instance.
func NewUserController(accounts *services.Accounts, creds *services.Credentials, logger *zap.Logger) *UserController {
	return &UserController{accounts: accounts, creds: creds, logger: logger}
}

// Signup registers a new account and returns it with a bearer token.
func (u *UserController) Signup(ctx *gin.Context) {
	var req services.SignupInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidPayload(ctx, err)
		return
	}

	res, err := u.accounts.Register(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, u.logger, err)
		return
	}
	utils.Created(ctx, "User created successfully", res)
}

// Login authenticates by email and password.
func (u *UserController) Login(ctx *gin.Context) {
	var req services.LoginInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidPayload(ctx, err)
		return
	}

	res, err := u.accounts.Authenticate(ctx.Request.Context(), req)
	if err != nil {
		// unknown email is a bad request on this route, not a 404
		if services.IsKind(err, services.KindNotFound) {
			utils.Error(ctx, http.StatusBadRequest, utils.CodeInvalidCredential, "User not found", "")
			return
		}
		respondError(ctx, u.logger, err)
		return
	}
	utils.Success(ctx, "Login successful", res)
}

// Logout revokes the bearer token used for this request.
func (u *UserController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	if err := u.creds.Revoke(ctx.Request.Context(), token); err != nil {
		respondError(ctx, u.logger, err)
		return
	}
	utils.Success(ctx, "Logged out successfully", nil)
}

// Me returns the authenticated user.
func (u *UserController) Me(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, utils.CodeMissingAuth, "Authorization failed", "")
		return
	}
	utils.Success(ctx, "User retrieved successfully", gin.H{"user": user})
}
