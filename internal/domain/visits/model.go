package visits

import (
	"time"

	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/validation"
)

type VisitType string

const (
	VisitTypeCheckup     VisitType = "checkup"
	VisitTypeVaccination VisitType = "vaccination"
	VisitTypeEmergency   VisitType = "emergency"
	VisitTypeSurgery     VisitType = "surgery"
	VisitTypeDental      VisitType = "dental"
	VisitTypeGrooming    VisitType = "grooming"
	VisitTypeOther       VisitType = "other"
)

var AllVisitTypes = []VisitType{
	VisitTypeCheckup, VisitTypeVaccination, VisitTypeEmergency, VisitTypeSurgery,
	VisitTypeDental, VisitTypeGrooming, VisitTypeOther,
}

func init() {
	vals := make([]string, 0, len(AllVisitTypes))
	for _, t := range AllVisitTypes {
		vals = append(vals, string(t))
	}
	validation.RegisterEnum("visittype", vals...)
}

func ParseVisitType(s string) (VisitType, bool) {
	for _, t := range AllVisitTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Vitals son los signos vitales opcionales de la consulta.
type Vitals struct {
	WeightKg        *float64
	TemperatureC    *float64
	HeartRate       *int // lpm
	RespiratoryRate *int // rpm
}

type Visit struct {
	ID       string
	ClinicID string
	PetID    string

	VisitDate time.Time
	VisitType VisitType
	Notes     string
	Price     *float64
	Vitals    Vitals

	// Par de recordatorio: se valida junto (ver reminders.ValidateVisitReminder).
	IsReminderEnabled bool
	NextReminderDate  *time.Time
	ReminderSent      bool

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListFilter struct {
	Page      pagination.Query
	Search    string // notas
	ClinicID  string
	PetID     string
	VisitType VisitType
	From      *time.Time // visitDate >= From
	To        *time.Time // visitDate < To (exclusivo)
}
