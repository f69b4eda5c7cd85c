package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/doctors-portal/internal/authz"
	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/metrics"
	"github.com/harentsoaR/doctors-portal/internal/models"
	"github.com/harentsoaR/doctors-portal/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type users map[string]string

func (u users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	role, ok := u[email]
	if !ok {
		return nil, errs.NotFound("user", nil)
	}
	return &models.User{Email: email, Role: role}, nil
}

func serve(r *gin.Engine, method, target, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthorize(t *testing.T) {
	tokens := utils.NewTokenManager("secret")
	m := metrics.New("test", prometheus.NewRegistry())
	dir := users{"admin@example.com": models.RoleAdmin, "p@example.com": models.RolePatient}

	r := gin.New()
	token := Authorize(m, authz.RequireToken(tokens))
	r.GET("/bookings", token, Authorize(m, authz.RequireQueryOwner("email")), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": IdentityFrom(c).Email})
	})
	r.GET("/admin", token, Authorize(m, authz.RequireAdmin(dir)), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	sign := func(email string) string {
		s, err := tokens.GenerateJWT(email)
		require.NoError(t, err)
		return "Bearer " + s
	}

	tests := []struct {
		name   string
		target string
		auth   string
		want   int
	}{
		{"no header", "/bookings?email=p@example.com", "", http.StatusUnauthorized},
		{"garbage token", "/bookings?email=p@example.com", "Bearer nope", http.StatusForbidden},
		{"other owner", "/bookings?email=admin@example.com", sign("p@example.com"), http.StatusForbidden},
		{"owner", "/bookings?email=p@example.com", sign("p@example.com"), http.StatusOK},
		{"patient on admin route", "/admin", sign("p@example.com"), http.StatusForbidden},
		{"admin", "/admin", sign("admin@example.com"), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodGet, tt.target, tt.auth)
			assert.Equal(t, tt.want, w.Code)
			if tt.want >= 400 {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthDenied.WithLabelValues("401")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AuthDenied.WithLabelValues("403")))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := serve(r, http.MethodGet, "/", "")
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
	assert.Equal(t, w.Header().Get(HeaderXRequestID), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(HeaderXRequestID))
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(RateLimiterConfig{Rate: 0.0001, Burst: 2}).RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/", "").Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestMetricsAndLogger(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New("test", reg)
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.Nop()), Metrics(m))
	r.GET("/bookings/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/bookings/1", "")
	serve(r, http.MethodGet, "/missing", "")

	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}
