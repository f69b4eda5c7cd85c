package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler() *Handler {
	return NewHandler(Services{}, metrics.New("test", prometheus.NewRegistry()), zerolog.Nop())
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"not found", errs.NotFound("booking", nil), http.StatusNotFound, `{"error":"booking not found"}`},
		{"conflict", errs.Conflict("booking is already paid"), http.StatusConflict, `{"error":"booking is already paid"}`},
		{"store failure is hidden", errs.Unavailable(errors.New("dial tcp 10.0.0.1:27017")), http.StatusInternalServerError, `{"error":"internal server error"}`},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}
	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.respondError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestCreateBookingRejectsMalformedBody(t *testing.T) {
	h := newTestHandler()
	r := gin.New()
	r.POST("/bookings", h.CreateBooking)

	for _, body := range []string{`{`, `{"treatment":"Braces"}`, `{"appointmentDate":"2024-01-05","treatment":"Braces","slot":"9am","email":"not-an-email"}`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}
