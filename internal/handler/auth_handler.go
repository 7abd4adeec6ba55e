package handler

import (
	"chatdesk-go/internal/middleware"
	"chatdesk-go/internal/service"
	"chatdesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责处理注册、登录、登出与找回密码的请求。
type AuthHandler struct {
	userService  service.UserService
	cookieSecure bool
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(userService service.UserService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{userService: userService, cookieSecure: cookieSecure}
}

// SignupRequest 定义了注册 API 的请求体结构。
type SignupRequest struct {
	Name            string `json:"name" binding:"max=100"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

// SigninRequest 定义了登录 API 的请求体结构。
type SigninRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest 定义了找回密码 API 的请求体结构。
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest 定义了重设密码 API 的请求体结构。
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Signup(c.Request.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err, "")
		return
	}
	envelope(c, "User registered successfully", user)
}

// Signin 校验凭据并写入 token cookie。
func (h *AuthHandler) Signin(c *gin.Context) {
	var req SigninRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.userService.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err, "")
		return
	}
	middleware.SetTokenCookie(c, res.Token, res.TTL, h.cookieSecure)
	log.Infof("User %s signed in", res.User.ID)
	envelope(c, "Signed in successfully", res.User)
}

// Signout 清除 cookie 并把 token 加入黑名单。
func (h *AuthHandler) Signout(c *gin.Context) {
	if raw, err := c.Cookie(middleware.CookieName); err == nil {
		if err := h.userService.Signout(c.Request.Context(), raw); err != nil {
			log.Error("Signout: failed to revoke token", err)
		}
	}
	middleware.ClearTokenCookie(c, h.cookieSecure)
	envelope(c, "Signed out successfully", nil)
}

// ForgotPassword 无论邮箱是否注册都返回成功，避免枚举用户。
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.userService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeError(c, err, "")
		return
	}
	envelope(c, "If the email is registered, a reset link has been sent", nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		writeError(c, err, "")
		return
	}
	envelope(c, "Password has been reset", nil)
}
