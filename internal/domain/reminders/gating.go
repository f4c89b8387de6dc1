package reminders

import (
	"errors"
	"time"
)

var (
	ErrReminderDateRequired = errors.New("nextReminderDate is required when reminders are enabled")
	ErrInvalidLimit         = errors.New("reminderMonthlyLimit must be -1 (unlimited), 0 (disabled) or positive")
)

// OwnerEffective: el opt-in del dueño solo vale si la clínica puede enviar.
// El flag del dueño se guarda aparte y no se pisa cuando la clínica apaga el envío.
func OwnerEffective(clinicCanSend, ownerAllows bool) bool {
	return clinicCanSend && ownerAllows
}

// ValidateVisitReminder valida el par (flag, fecha) junto.
// Una fecha con el flag apagado es válida (recuerda un agendado previo).
func ValidateVisitReminder(enabled bool, next *time.Time) error {
	if enabled && (next == nil || next.IsZero()) {
		return ErrReminderDateRequired
	}
	return nil
}

// Candidate reúne todo lo necesario para decidir un envío puntual.
type Candidate struct {
	Quota Quota

	OwnerAllows bool

	VisitEnabled bool
	NextDate     *time.Time
	AlreadySent  bool
}

type Reason string

const (
	DecisionAllowed      Reason = "allowed"
	DecisionClinicOff    Reason = "clinic_disabled"
	DecisionLimitOff     Reason = "limit_disabled"
	DecisionQuotaReached Reason = "quota_exhausted"
	DecisionOwnerOptOut  Reason = "owner_opted_out"
	DecisionVisitOff     Reason = "visit_disabled"
	DecisionNotDue       Reason = "not_due"
	DecisionAlreadySent  Reason = "already_sent"
)

type Decision struct {
	Send   bool
	Reason Reason
}

// Evaluate combina clínica, dueño y visita. Los chequeos de la visita van
// primero: son los más baratos de explicar y no dependen del ciclo.
func Evaluate(c Candidate, now time.Time) Decision {
	switch {
	case !c.VisitEnabled || c.NextDate == nil:
		return Decision{Reason: DecisionVisitOff}
	case c.AlreadySent:
		return Decision{Reason: DecisionAlreadySent}
	case c.NextDate.After(now):
		return Decision{Reason: DecisionNotDue}
	case !c.Quota.CanSendReminders:
		return Decision{Reason: DecisionClinicOff}
	case c.Quota.MonthlyLimit == Disabled || c.Quota.MonthlyLimit < Unlimited:
		return Decision{Reason: DecisionLimitOff}
	case !OwnerEffective(c.Quota.CanSendReminders, c.OwnerAllows):
		return Decision{Reason: DecisionOwnerOptOut}
	case !CanSend(c.Quota):
		return Decision{Reason: DecisionQuotaReached}
	}
	return Decision{Send: true, Reason: DecisionAllowed}
}
