package middleware

import (
	"net/http"
	"strings"
	"time"

	"opsportal/internal/apperror"
	"opsportal/internal/auth"
	"opsportal/internal/session"
	"opsportal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by Auth
const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
	CtxClaims   = "claims"
)

const (
	msgMissingToken = "Vui lòng đăng nhập / Authorization is missing"
	msgBadFormat    = "Định dạng xác thực không hợp lệ / Invalid authorization format. Expected 'Bearer <token>'"
	msgBadToken     = "Phiên đăng nhập không hợp lệ / Invalid or expired token"
	msgRevoked      = "Phiên đăng nhập đã kết thúc / Token has been revoked"
	msgDenied       = "Bạn không có quyền truy cập / Access denied: insufficient permissions"
)

// Auth validates access tokens and enforces role allow-lists
type Auth struct {
	tokens       *auth.TokenManager
	sessions     session.Store
	logger       *zap.Logger
	secureCookie bool
}

// NewAuth builds the middleware. secureCookie marks the token cookie Secure.
func NewAuth(tokens *auth.TokenManager, sessions session.Store, logger *zap.Logger, secureCookie bool) *Auth {
	if sessions == nil {
		sessions = session.NoopStore{}
	}
	return &Auth{tokens: tokens, sessions: sessions, logger: logger, secureCookie: secureCookie}
}

// RequireAuth admits any authenticated user
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return a.RequireRole()
}

// RequireRole validates the JWT token and checks the role claim against allowedRoles.
// An empty allowedRoles admits every authenticated user.
func (a *Auth) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, kind, msg := a.authenticate(c, allowedRoles)
		if claims == nil {
			abort(c, kind, msg)
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// RequirePage guards HTML pages: anonymous visitors are sent to /login and
// role denials are answered with an inline text message.
func (a *Auth) RequirePage(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, kind, msg := a.authenticate(c, allowedRoles)
		if claims == nil {
			switch kind {
			case apperror.KindUnauthorized:
				c.Redirect(http.StatusFound, "/login")
				c.Abort()
			default:
				c.String(apperror.StatusCode(kind), msg)
				c.Abort()
			}
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

func (a *Auth) authenticate(c *gin.Context, allowedRoles []string) (*auth.Claims, apperror.Kind, string) {
	tokenString, errMsg := tokenFromRequest(c)
	if errMsg != "" {
		return nil, apperror.KindUnauthorized, errMsg
	}

	claims, err := a.tokens.Parse(tokenString)
	if err != nil {
		return nil, apperror.KindUnauthorized, msgBadToken
	}

	revoked, err := a.sessions.IsRevoked(c.Request.Context(), claims.ID)
	if err != nil {
		a.logger.Error("Failed to check token revocation", zap.Error(err))
		return nil, apperror.KindInternal, "failed to verify session"
	}
	if revoked {
		return nil, apperror.KindUnauthorized, msgRevoked
	}

	if len(allowedRoles) > 0 && !hasRole(claims.Role, allowedRoles) {
		return nil, apperror.KindForbidden, msgDenied
	}
	return claims, "", ""
}

func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(CtxUserID, claims.UserID())
	c.Set(CtxUserRole, claims.Role)
	c.Set(CtxClaims, claims)
}

// Peek returns the claims of a valid, unrevoked token on the request without
// enforcing anything. Public routes such as /logout use it.
func (a *Auth) Peek(c *gin.Context) *auth.Claims {
	claims, _, _ := a.authenticate(c, nil)
	return claims
}

// TokenTTL is the lifetime of issued tokens, used as the cookie max-age
func (a *Auth) TokenTTL() time.Duration {
	return a.tokens.TTL()
}

// SetTokenCookie stores the access token as an HttpOnly SameSite=Lax cookie.
// Cross-site form posts never carry it.
func (a *Auth) SetTokenCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(ttl.Seconds()), "/", "", a.secureCookie, true)
}

// ClearTokenCookie removes the access token cookie
func (a *Auth) ClearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", a.secureCookie, true)
}

// UserID returns the authenticated user id set by RequireRole
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}

// Claims returns the parsed token set by RequireRole, nil on public routes
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// Try cookie first, fallback to Authorization header
func tokenFromRequest(c *gin.Context) (string, string) {
	if tokenString, err := c.Cookie(auth.CookieName); err == nil && tokenString != "" {
		return tokenString, ""
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", msgMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", msgBadFormat
	}
	return parts[1], ""
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

func abort(c *gin.Context, kind apperror.Kind, msg string) {
	status := apperror.StatusCode(kind)
	c.AbortWithStatusJSON(status, response.Error(status, string(kind), msg))
}
