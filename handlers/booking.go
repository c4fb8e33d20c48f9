package handlers

import (
	"net/http"

	"mediq/models"

	"github.com/gin-gonic/gin"
)

type holdInput struct {
	DoctorID string `json:"doctorId" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
}

// RequestHold reserves a slot for the session ahead of confirmation.
func (hb *HandlerBundle) RequestHold(c *gin.Context) {
	sessionID := c.Param("sessionID")
	var input holdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	result, err := hb.Engine.RequestHold(c.Request.Context(), sessionID, input.DoctorID, input.Date, input.Time)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ConfirmAppointment finalizes the session's held slot into a booking.
func (hb *HandlerBundle) ConfirmAppointment(c *gin.Context) {
	sessionID := c.Param("sessionID")
	var info models.PatientInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := hb.Engine.ConfirmAppointment(c.Request.Context(), sessionID, info)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "BOOKED", "appointmentId": appt.ID, "appointment": appt})
}
