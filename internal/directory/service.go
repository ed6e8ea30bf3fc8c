package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingFields         = errors.New("all fields are required")
	ErrBadCredentials        = errors.New("invalid email or password")
	ErrUnknownSpecialization = errors.New("unknown specialization")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type NewDoctor struct {
	Name           string
	Specialization string
	Email          string
	Phone          string
	Password       string
}

func (s *Service) RegisterDoctor(ctx context.Context, in NewDoctor) (*Doctor, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" || in.Specialization == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if !ValidSpecialization(in.Specialization) {
		return nil, ErrUnknownSpecialization
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.InsertDoctor(ctx, Doctor{
		ID:             uuid.New(),
		Name:           in.Name,
		Specialization: in.Specialization,
		Email:          in.Email,
		Phone:          in.Phone,
		PasswordHash:   string(hash),
	})
}

func (s *Service) AuthenticateDoctor(ctx context.Context, email, password string) (*Doctor, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	doctor, err := s.repo.GetDoctorByEmail(ctx, email)
	if errors.Is(err, ErrDoctorNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(doctor.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return doctor, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctorByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return s.repo.ListDoctors(ctx)
}

type NewPatient struct {
	Name           string
	Email          string
	Phone          string
	Age            int
	Address        string
	MedicalHistory []string
	Password       string
}

func (s *Service) RegisterPatient(ctx context.Context, in NewPatient) (*Patient, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Address == "" ||
		in.Password == "" || in.Age <= 0 {
		return nil, ErrMissingFields
	}

	// Drop whitespace-only history entries rather than rejecting the signup.
	history := make([]string, 0, len(in.MedicalHistory))
	for _, h := range in.MedicalHistory {
		if t := strings.TrimSpace(h); t != "" {
			history = append(history, t)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.InsertPatient(ctx, Patient{
		ID:             uuid.New(),
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		Age:            in.Age,
		Address:        in.Address,
		MedicalHistory: history,
		PasswordHash:   string(hash),
	})
}

func (s *Service) AuthenticatePatient(ctx context.Context, email, password string) (*Patient, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	patient, err := s.repo.GetPatientByEmail(ctx, email)
	if errors.Is(err, ErrPatientNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(patient.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}
