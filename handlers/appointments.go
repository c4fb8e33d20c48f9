package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListAppointments returns booked appointments for the admin panel,
// optionally filtered by doctor and date.
func (hb *HandlerBundle) ListAppointments(c *gin.Context) {
	appts, err := hb.Appointments.List(c.Request.Context(), c.Query("doctorId"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// GetAppointment returns one appointment record.
func (hb *HandlerBundle) GetAppointment(c *gin.Context) {
	a, err := hb.Appointments.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown appointment"})
		return
	}
	c.JSON(http.StatusOK, a)
}
