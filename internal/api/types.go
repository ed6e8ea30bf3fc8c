package api

import (
	"github.com/google/uuid"

	"github.com/medbook/doctor-booking-platform/internal/appointment"
	"github.com/medbook/doctor-booking-platform/internal/directory"
	"github.com/medbook/doctor-booking-platform/internal/schedule"
)

type AddSlotsRequest struct {
	Date  string `json:"date"`
	Slots []struct {
		Time string `json:"time"`
	} `json:"slots"`
}

type DeleteSlotRequest struct {
	Date     string `json:"date"`
	SlotTime string `json:"slotTime"`
}

type BookAppointmentRequest struct {
	PatientID       string `json:"patient_id"`
	DoctorID        string `json:"doctor_id"`
	DoctorName      string `json:"doctor_name"`
	PatientName     string `json:"patient_name"`
	Specialization  string `json:"specialization"`
	AppointmentDate string `json:"appointment_date"`
	TimeSlot        string `json:"time_slot"`
	// Status is accepted for wire compatibility and ignored; bookings are
	// always created Confirmed.
	Status string `json:"status,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignupPatientRequest struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	Phone          string   `json:"phone"`
	Age            int      `json:"age"`
	Address        string   `json:"address"`
	MedicalHistory []string `json:"medical_history"`
}

type CreateDoctorRequest struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	PatientName     string    `json:"patient_name"`
	Specialization  string    `json:"specialization"`
	AppointmentDate string    `json:"appointment_date"`
	TimeSlot        string    `json:"time_slot"`
	Status          string    `json:"status"`
}

type DoctorResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
}

type PatientResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Age            int       `json:"age"`
	Address        string    `json:"address"`
	MedicalHistory []string  `json:"medical_history"`
}

type CalendarResponse struct {
	TimeSlots []schedule.DateSlots `json:"time_slots"`
}

type DaySlotsResponse struct {
	Date  string          `json:"date"`
	Slots []schedule.Slot `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		DoctorName:      a.DoctorName,
		PatientName:     a.PatientName,
		Specialization:  a.Specialization,
		AppointmentDate: a.Day.String(),
		TimeSlot:        a.TimeSlot,
		Status:          string(a.Status),
	}
}

func toAppointmentResponses(appts []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i]))
	}
	return out
}

func toDoctorResponse(d *directory.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:             d.ID,
		Name:           d.Name,
		Specialization: d.Specialization,
		Email:          d.Email,
		Phone:          d.Phone,
	}
}

func toPatientResponse(p *directory.Patient) PatientResponse {
	return PatientResponse{
		ID:             p.ID,
		Name:           p.Name,
		Email:          p.Email,
		Phone:          p.Phone,
		Age:            p.Age,
		Address:        p.Address,
		MedicalHistory: p.MedicalHistory,
	}
}
