package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/doctors-portal/internal/errs"
	"github.com/harentsoaR/doctors-portal/internal/services"
)

type paymentIntentRequest struct {
	Price float64 `json:"price" binding:"required"`
}

func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	secret, err := h.Payments.CreatePayable(c.Request.Context(), req.Price)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": secret})
}

// CreatePayment records a completed payment against its booking.
func (h *Handler) CreatePayment(c *gin.Context) {
	var req services.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.Payments.Reconcile(c.Request.Context(), req)
	switch {
	case errors.Is(err, errs.ErrConflict):
		h.Metrics.PaymentsReconciled.WithLabelValues("conflict").Inc()
		h.respondError(c, err)
		return
	case err != nil:
		h.Metrics.PaymentsReconciled.WithLabelValues("error").Inc()
		h.respondError(c, err)
		return
	}

	outcome := "recorded"
	if rec.Replayed {
		outcome = "replayed"
	}
	h.Metrics.PaymentsReconciled.WithLabelValues(outcome).Inc()
	c.JSON(http.StatusOK, gin.H{
		"acknowledged": true,
		"insertedId":   rec.Payment.ID.Hex(),
		"replayed":     rec.Replayed,
	})
}
