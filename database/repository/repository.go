package repository

import (
	appointmentRepo "mediq/database/repository/appointment"
	doctorRepo "mediq/database/repository/doctor"
	sessionRepo "mediq/database/repository/session"
	slotRepo "mediq/database/repository/slot"
)

// Re-export the SlotRepository interface and constructors.
type SlotRepository = slotRepo.SlotRepository

var NewMongoSlotRepo = slotRepo.NewMongoSlotRepo
var NewMemorySlotRepo = slotRepo.NewMemorySlotRepo

// Re-export the SessionRepository interface and constructor.
type SessionRepository = sessionRepo.SessionRepository

var NewMongoSessionRepo = sessionRepo.NewMongoSessionRepo

// Re-export the DoctorRepository interface and constructor.
type DoctorRepository = doctorRepo.DoctorRepository

var NewMongoDoctorRepo = doctorRepo.NewMongoDoctorRepo

// Re-export the AppointmentRepository interface and constructor.
type AppointmentRepository = appointmentRepo.AppointmentRepository

var NewMongoAppointmentRepo = appointmentRepo.NewMongoAppointmentRepo
