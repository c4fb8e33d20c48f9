package handlers

import (
	"net/http"
	"strconv"
	"time"

	"mediq/models"

	"github.com/gin-gonic/gin"
)

// ListDoctors returns the doctor directory, optionally filtered by
// specialty.
func (hb *HandlerBundle) ListDoctors(c *gin.Context) {
	ctx := c.Request.Context()
	if specialty := c.Query("specialty"); specialty != "" {
		doctors, err := hb.Doctors.ListBySpecialty(ctx, models.Specialty(specialty))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"doctors": doctors})
		return
	}

	doctors, err := hb.Doctors.ListAll(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": doctors})
}

// GetDoctorSlots lists a doctor's free slots over the coming days.
func (hb *HandlerBundle) GetDoctorSlots(c *gin.Context) {
	ctx := c.Request.Context()
	doctorID := c.Param("id")

	doctor, err := hb.Doctors.GetByID(ctx, doctorID)
	if err != nil {
		respondError(c, err)
		return
	}
	if doctor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown doctor"})
		return
	}

	days := 7
	if q := c.Query("days"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 30 {
			days = n
		}
	}

	slots, err := hb.Coordinator.Availability(ctx, doctor, time.Now(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctorId": doctorID, "slots": slots})
}
