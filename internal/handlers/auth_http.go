package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivan2214/ecommerce/internal/model"
	"github.com/ivan2214/ecommerce/internal/service"
)

// oauthSecretHeader carries the secret shared with the sign-in frontend
// that performs the provider exchange.
const oauthSecretHeader = "X-OAuth-Callback-Secret"

type AuthHTTP struct {
	Svc          service.AuthService
	CookieMaxAge int
	CookieSecure bool
	OAuthSecret  string
}

func NewAuthHTTP(svc service.AuthService, cookieMaxAge int, cookieSecure bool, oauthSecret string) *AuthHTTP {
	if cookieMaxAge == 0 {
		cookieMaxAge = 7 * 24 * 3600
	}
	return &AuthHTTP{Svc: svc, CookieMaxAge: cookieMaxAge, CookieSecure: cookieSecure, OAuthSecret: oauthSecret}
}

type registerReq struct {
	Name            string `json:"name" binding:"required,min=2"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

func (h *AuthHTTP) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid registration data")
		return
	}
	if err := h.Svc.Register(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Code     string `json:"code"`
}

func (h *AuthHTTP) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid email or password")
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password, req.Code)
	if err != nil {
		failFrom(c, err)
		return
	}
	if res.TwoFactor {
		c.JSON(http.StatusOK, gin.H{"success": true, "twoFactor": true})
		return
	}
	h.setSession(c, res.Token)
	c.JSON(http.StatusOK, gin.H{"success": true, "token": res.Token, "user": userView(res.User)})
}

type oauthReq struct {
	Provider string `json:"provider" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
}

// OAuth is called server-to-server by the sign-in frontend after it has
// completed the provider's code exchange. The shared secret is what makes
// the identity pre-verified; without the gate anyone could mint a session
// for an arbitrary email. Fails closed when no secret is configured.
func (h *AuthHTTP) OAuth(c *gin.Context) {
	if h.OAuthSecret == "" ||
		subtle.ConstantTimeCompare([]byte(c.GetHeader(oauthSecretHeader)), []byte(h.OAuthSecret)) != 1 {
		fail(c, http.StatusForbidden, "forbidden")
		return
	}
	var req oauthReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid sign-in data")
		return
	}
	res, err := h.Svc.LoginOAuth(c.Request.Context(), req.Provider, req.Email, req.Name)
	if err != nil {
		failFrom(c, err)
		return
	}
	h.setSession(c, res.Token)
	c.JSON(http.StatusOK, gin.H{"success": true, "token": res.Token, "user": userView(res.User)})
}

// Verify handles the link from the verification email, so it redirects on
// success instead of answering JSON.
func (h *AuthHTTP) Verify(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		fail(c, http.StatusBadRequest, "missing token")
		return
	}
	if err := h.Svc.VerifyEmail(c.Request.Context(), token); err != nil {
		failFrom(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

type emailReq struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *AuthHTTP) Resend(c *gin.Context) {
	var req emailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid email")
		return
	}
	if err := h.Svc.ResendVerification(c.Request.Context(), req.Email); err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHTTP) RequestPasswordReset(c *gin.Context) {
	var req emailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid email")
		return
	}
	if err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type resetReq struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

func (h *AuthHTTP) ResetPassword(c *gin.Context) {
	var req resetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid reset data")
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHTTP) Logout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", h.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHTTP) Me(c *gin.Context) {
	u, err := h.Svc.CurrentUser(c.Request.Context(), userID(c))
	if err != nil {
		failFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userView(u)})
}

func (h *AuthHTTP) setSession(c *gin.Context, token string) {
	c.SetCookie(sessionCookie, token, h.CookieMaxAge, "/", "", h.CookieSecure, true)
}

func userView(u *model.User) gin.H {
	return gin.H{
		"id":               u.ID,
		"name":             u.Name,
		"email":            u.Email,
		"role":             u.Role,
		"emailVerified":    u.EmailVerifiedAt != nil,
		"twoFactorEnabled": u.TwoFactorEnabled,
	}
}
