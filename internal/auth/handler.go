// File: internal/auth/handler.go
package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"clinic_backend/internal/common"
	"clinic_backend/internal/identity"
)

// User-facing response copy. The frontend matches on these strings, so they
// are returned verbatim.
const (
	msgMissingFields       = "Faltan datos obligatorios."
	msgMissingLoginFields  = "Correo y contraseña son obligatorios"
	msgRegisterSuccess     = "Usuario creado exitosamente. Por favor verifica tu correo electrónico."
	msgRegisterFallback    = "Ocurrió un error inesperado al registrar el usuario."
	msgLoginSuccess        = "Usuario logueado exitosamente."
	msgLoginFallback       = "Credenciales inválidas."
	msgEmailNotVerified    = "Por favor verifica tu correo electrónico antes de iniciar sesión."
	msgLogoutSuccess       = "Sesión cerrada exitosamente."
	msgLogoutFallback      = "No se pudo cerrar la sesión. Intenta nuevamente."
	msgRecoverSuccess      = "Se ha enviado un enlace de recuperación a tu correo electrónico."
	msgRecoverFallback     = "No se pudo enviar el correo de recuperación."
	msgEmailRequired       = "El correo es obligatorio"
	msgNotAuthenticated    = "No está autenticado"
	msgEmailVerified       = "Correo verificado exitosamente."
	msgVerifyTokenRejected = "El enlace de verificación no es válido o ha expirado."
)

// Handler handles HTTP requests for authentication operations.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("AuthHandler"),
	}
}

// RegisterRoutes sets up the authentication routes under the given group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/logout", h.logout)
		authGroup.POST("/recover-password", h.recoverPassword)
		authGroup.GET("/check-auth", h.checkAuth)
		authGroup.GET("/verify-email", h.verifyEmail)
	}
}

func (h *Handler) register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingFields})
		return
	}

	// Presence of credentials is checked before the schema so the legacy
	// missing-fields message wins over per-field validation copy.
	if form.Email == "" || form.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingFields})
		return
	}

	req, verr := ParseRegister(form)
	if verr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		return
	}

	if err := h.service.Register(c.Request.Context(), req); err != nil {
		h.logger.Error("Registration failed", zap.String("email", form.Email), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": identity.MessageOrFallback(err, msgRegisterFallback)})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msgRegisterSuccess})
}

func (h *Handler) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingLoginFields})
		return
	}
	if form.Email == "" || form.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingLoginFields})
		return
	}

	req, verr := ParseLogin(form)
	if verr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		return
	}

	ident, token, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailNotVerified) {
			c.JSON(http.StatusForbidden, gin.H{"message": msgEmailNotVerified})
			return
		}
		h.logger.Warn("Login failed", zap.String("email", form.Email), zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"message": identity.MessageOrFallback(err, msgLoginFallback)})
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"message": msgLoginSuccess,
		"user": gin.H{
			"uid":         ident.UID,
			"email":       ident.Email,
			"displayName": ident.DisplayName,
		},
		"token": token,
	})
}

func (h *Handler) logout(c *gin.Context) {
	token := common.GetTokenFromContext(c)

	if err := h.service.Logout(c.Request.Context(), token); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": identity.MessageOrFallback(err, msgLogoutFallback),
			"error":   identity.RawCode(err),
		})
		return
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": msgLogoutSuccess})
}

func (h *Handler) recoverPassword(c *gin.Context) {
	var form RecoverForm
	if err := c.ShouldBindJSON(&form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			h.logger.Debug("Recover password payload rejected",
				zap.Any("fields", common.FormatValidationErrors(verrs)))
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": msgEmailRequired})
		return
	}

	if err := h.service.RecoverPassword(c.Request.Context(), form.Email); err != nil {
		h.logger.Warn("Password recovery failed", zap.String("email", form.Email), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": identity.MessageOrFallback(err, msgRecoverFallback)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgRecoverSuccess})
}

func (h *Handler) checkAuth(c *gin.Context) {
	token := common.GetTokenFromContext(c)

	ident, prof, err := h.service.CheckAuth(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": msgNotAuthenticated})
		return
	}

	if prof == nil {
		c.JSON(http.StatusOK, gin.H{"uid": ident.UID})
		return
	}
	c.JSON(http.StatusOK, prof.ToMap())
}

func (h *Handler) verifyEmail(c *gin.Context) {
	token := c.Query("token")

	if err := h.service.VerifyEmail(c.Request.Context(), token); err != nil {
		h.logger.Warn("Email verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": msgVerifyTokenRejected})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgEmailVerified})
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, token, 0, "/", "", false, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, "", -1, "/", "", false, true)
}
