package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound = errors.New("slot not found")
)

// Repository contains all DB interactions needed by the calendar service.
type Repository interface {
	// InsertSlots adds free slots for a day, ignoring labels already present.
	InsertSlots(ctx context.Context, doctorID uuid.UUID, day Day, times []string) error

	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]SlotRecord, error)
	ListByDoctorDay(ctx context.Context, doctorID uuid.UUID, day Day) ([]SlotRecord, error)

	// DeleteSlot removes one slot row. ErrSlotNotFound when no row matches.
	DeleteSlot(ctx context.Context, doctorID uuid.UUID, day Day, slotTime string) error

	// SetStatus flips one slot's cached status. ErrSlotNotFound when no row matches.
	SetStatus(ctx context.Context, doctorID uuid.UUID, day Day, slotTime string, status SlotStatus) error

	// ResetDay marks every slot of the day free.
	ResetDay(ctx context.Context, doctorID uuid.UUID, day Day) error
}

// Ledger is the slice of the appointment store the calendar needs: which slot
// labels on a day are held by a non-cancelled appointment. The calendar never
// trusts its own cached slot status for decisions; it asks the ledger.
type Ledger interface {
	ActiveSlotTimes(ctx context.Context, doctorID uuid.UUID, day Day) ([]string, error)
}
