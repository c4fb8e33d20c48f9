package handlers

import (
	"net/http"

	"mediq/database/repository"
	"mediq/services/booking"
	"mediq/services/intake"
	"mediq/utils"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the dependencies the route handlers need.
type HandlerBundle struct {
	Engine       intake.Engine
	Coordinator  booking.Coordinator
	Doctors      repository.DoctorRepository
	Appointments repository.AppointmentRepository
}

// respondError maps typed booking errors to transport statuses. Untyped
// errors are storage failures and surface as service-unavailable; the
// details stay in the logs.
func respondError(c *gin.Context, err error) {
	switch booking.KindOf(err) {
	case booking.KindValidation:
		utils.JSONError(c, http.StatusBadRequest, "invalid request", err.Error())
	case booking.KindNotFound:
		utils.JSONError(c, http.StatusNotFound, "not found", err.Error())
	case booking.KindConflict:
		utils.JSONError(c, http.StatusConflict, "conflict", err.Error())
	case booking.KindExpired:
		utils.JSONError(c, http.StatusGone, "expired", err.Error())
	case booking.KindState:
		utils.JSONError(c, http.StatusUnprocessableEntity, "invalid state", err.Error())
	default:
		utils.GetLogger().Error("storage failure: " + err.Error())
		utils.JSONError(c, http.StatusServiceUnavailable, "service unavailable", "Please try again shortly.")
	}
}
