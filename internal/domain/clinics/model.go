package clinics

import (
	"time"

	"vet-clinic/internal/domain/reminders"
	"vet-clinic/internal/platform/pagination"
)

// Clinic es el tenant. Los campos reminder* alimentan el motor de cuotas.
type Clinic struct {
	ID string

	Name    string
	Email   string
	Phone   string
	Address string

	IsActive bool

	// CanSendReminders es el kill switch a nivel sistema (solo ADMIN).
	CanSendReminders      bool
	ReminderMonthlyLimit  int // -1 ilimitado, 0 deshabilitado, >0 tope
	ReminderSentThisCycle int
	CurrentCycleStartDate time.Time

	SubscriptionStartDate *time.Time
	SubscriptionEndDate   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Quota proyecta la clínica al input del motor de recordatorios.
func (c Clinic) Quota() reminders.Quota {
	return reminders.Quota{
		CanSendReminders: c.CanSendReminders,
		MonthlyLimit:     c.ReminderMonthlyLimit,
		SentThisCycle:    c.ReminderSentThisCycle,
		CycleStart:       c.CurrentCycleStartDate,
	}
}

// ListFilter: page/limit/search del contrato + filtros tipados.
type ListFilter struct {
	Page   pagination.Query
	Search string
	Active *bool
	IDs    []string // restringe a estas clínicas (no-ADMIN)
}
