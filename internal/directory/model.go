package directory

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID             uuid.UUID
	Name           string
	Specialization string
	Email          string
	Phone          string
	PasswordHash   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Patient struct {
	ID             uuid.UUID
	Name           string
	Email          string
	Phone          string
	Age            int
	Address        string
	MedicalHistory []string
	PasswordHash   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Specializations is the vocabulary offered to admins when creating doctors
// and to patients when browsing.
var Specializations = []string{
	"Cardiology",
	"Dermatology",
	"ENT",
	"Endocrinology",
	"General Practice",
	"Neurology",
	"Ophthalmology",
	"Orthopedics",
	"Pediatrics",
	"Psychiatry",
}

func ValidSpecialization(s string) bool {
	for _, v := range Specializations {
		if v == s {
			return true
		}
	}
	return false
}
