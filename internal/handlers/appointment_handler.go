package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAppointmentOptions lists every treatment with the slots still free on
// ?date=.
func (h *Handler) GetAppointmentOptions(c *gin.Context) {
	options, err := h.Availability.Available(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

func (h *Handler) GetAppointmentSpecialty(c *gin.Context) {
	names, err := h.Availability.Specialties(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	specialties := make([]gin.H, 0, len(names))
	for _, n := range names {
		specialties = append(specialties, gin.H{"name": n})
	}
	c.JSON(http.StatusOK, specialties)
}
