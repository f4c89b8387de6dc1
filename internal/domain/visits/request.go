package visits

import (
	"time"

	"vet-clinic/internal/domain/reminders"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/patch"
	"vet-clinic/internal/platform/validation"
)

// VitalsPayload es la forma JSON de los signos vitales.
type VitalsPayload struct {
	WeightKg        *float64 `json:"weightKg,omitempty" validate:"omitempty,gt=0,lte=1000"`
	TemperatureC    *float64 `json:"temperatureC,omitempty" validate:"omitempty,gte=25,lte=45"`
	HeartRate       *int     `json:"heartRate,omitempty" validate:"omitempty,gt=0,lte=400"`
	RespiratoryRate *int     `json:"respiratoryRate,omitempty" validate:"omitempty,gt=0,lte=200"`
}

// CreateRequest es el body de alta. Lo usan el handler y el cliente, que
// valida antes de mandar nada a la red.
type CreateRequest struct {
	PetID     string        `json:"petId" validate:"required"`
	VisitDate time.Time     `json:"visitDate" validate:"required"`
	VisitType string        `json:"visitType" validate:"required,visittype"`
	Notes     string        `json:"notes,omitempty" validate:"max=5000"`
	Price     *float64      `json:"price,omitempty" validate:"omitempty,gte=0"`
	Vitals    VitalsPayload `json:"vitals"`

	IsReminderEnabled bool        `json:"isReminderEnabled"`
	NextReminderDate  *patch.Date `json:"nextReminderDate,omitempty" validate:"required_if=IsReminderEnabled true"`
}

// Validate corre tags + la regla del par de recordatorio.
func (r CreateRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if err := reminders.ValidateVisitReminder(r.IsReminderEnabled, r.NextReminderDate.Ptr()); err != nil {
		return apperr.NewValidation("nextReminderDate", err.Error())
	}
	return nil
}

// UpdateRequest: Optional distingue "no enviado" de null. El par de
// recordatorio se valida sobre el estado mergeado en el service.
type UpdateRequest struct {
	VisitDate *time.Time `json:"visitDate,omitempty"`
	VisitType *string    `json:"visitType,omitempty" validate:"omitempty,visittype"`
	Notes     *string    `json:"notes,omitempty" validate:"omitempty,max=5000"`

	Price           patch.Optional[float64] `json:"price,omitzero"`
	WeightKg        patch.Optional[float64] `json:"weightKg,omitzero"`
	TemperatureC    patch.Optional[float64] `json:"temperatureC,omitzero"`
	HeartRate       patch.Optional[int]     `json:"heartRate,omitzero"`
	RespiratoryRate patch.Optional[int]     `json:"respiratoryRate,omitzero"`

	IsReminderEnabled *bool                      `json:"isReminderEnabled,omitempty"`
	NextReminderDate  patch.Optional[patch.Date] `json:"nextReminderDate,omitzero"`
}

func (p VitalsPayload) toVitals() Vitals {
	return Vitals{
		WeightKg:        p.WeightKg,
		TemperatureC:    p.TemperatureC,
		HeartRate:       p.HeartRate,
		RespiratoryRate: p.RespiratoryRate,
	}
}

func vitalsPayload(v Vitals) VitalsPayload {
	return VitalsPayload{
		WeightKg:        v.WeightKg,
		TemperatureC:    v.TemperatureC,
		HeartRate:       v.HeartRate,
		RespiratoryRate: v.RespiratoryRate,
	}
}
