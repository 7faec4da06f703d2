package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"opsportal/internal/auth"
	"opsportal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSessions struct {
	revoked map[string]bool
	err     error
}

func (s stubSessions) Revoke(context.Context, string, time.Duration) error { return nil }

func (s stubSessions) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(a *Auth, guard gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/guarded", guard, func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return r
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	userID := uuid.New()
	directorToken, directorClaims, err := tokens.Issue(userID, "director")
	require.NoError(t, err)
	staffToken, _, err := tokens.Issue(userID, "staff")
	require.NoError(t, err)
	foreignToken, _, err := auth.NewTokenManager("other", time.Hour).Issue(userID, "director")
	require.NoError(t, err)

	tests := []struct {
		name       string
		sessions   stubSessions
		header     string
		cookie     string
		wantStatus int
		wantKind   string
	}{
		{name: "missing token", wantStatus: http.StatusUnauthorized, wantKind: "unauthorized"},
		{name: "malformed header", header: "Token " + directorToken, wantStatus: http.StatusUnauthorized, wantKind: "unauthorized"},
		{name: "foreign signature", header: "Bearer " + foreignToken, wantStatus: http.StatusUnauthorized, wantKind: "unauthorized"},
		{name: "role not allowed", header: "Bearer " + staffToken, wantStatus: http.StatusForbidden, wantKind: "forbidden"},
		{
			name:       "revoked",
			sessions:   stubSessions{revoked: map[string]bool{directorClaims.ID: true}},
			header:     "Bearer " + directorToken,
			wantStatus: http.StatusUnauthorized,
			wantKind:   "unauthorized",
		},
		{
			name:       "revocation store down",
			sessions:   stubSessions{err: errors.New("redis down")},
			header:     "Bearer " + directorToken,
			wantStatus: http.StatusInternalServerError,
			wantKind:   "internal",
		},
		{name: "bearer header", header: "Bearer " + directorToken, wantStatus: http.StatusOK},
		{name: "cookie", cookie: directorToken, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAuth(tokens, tt.sessions, zap.NewNop(), false)
			router := newTestRouter(a, a.RequireRole("superAdmin", "director"))

			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID.String(), w.Body.String())
				return
			}
			var body response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "error", body.Status)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantKind, body.Error.Kind)
		})
	}
}

func TestRequirePage(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	a := NewAuth(tokens, nil, zap.NewNop(), false)
	router := newTestRouter(a, a.RequirePage("director"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	staffToken, _, err := tokens.Issue(uuid.New(), "staff")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: staffToken})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Access denied")
}

func TestTokenCookie(t *testing.T) {
	a := NewAuth(auth.NewTokenManager("secret", time.Hour), nil, zap.NewNop(), true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/login", nil)
	a.SetTokenCookie(c, "tok", a.TokenTTL())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}
