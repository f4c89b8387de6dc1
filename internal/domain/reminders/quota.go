// Package reminders contiene la contabilidad de cuotas de recordatorios
// automáticos por clínica. Todo es puro: sin I/O y sin errores en el cálculo.
package reminders

import "time"

const (
	// Unlimited como límite mensual: sin tope.
	Unlimited = -1
	// Disabled como límite mensual: recordatorios apagados por límite.
	Disabled = 0
)

// Quota es el estado de la clínica que importa para decidir envíos.
type Quota struct {
	CanSendReminders bool // kill switch a nivel sistema
	MonthlyLimit     int  // -1 ilimitado, 0 deshabilitado, >0 tope
	SentThisCycle    int
	CycleStart       time.Time
}

type Severity string

const (
	SeverityNormal    Severity = "normal"
	SeverityWarning   Severity = "warning"
	SeverityCritical  Severity = "critical"
	SeverityDisabled  Severity = "disabled"
	SeverityUnlimited Severity = "unlimited"
)

// DisabledReason explica por qué severity es disabled.
type DisabledReason string

const (
	ReasonNone   DisabledReason = ""
	ReasonSystem DisabledReason = "system" // canSendReminders=false
	ReasonLimit  DisabledReason = "limit"  // reminderMonthlyLimit=0
)

const (
	WarningThreshold  = 75.0
	CriticalThreshold = 90.0
)

// Usage es el resumen para mostrar.
type Usage struct {
	Count          int            `json:"count"`
	Limit          int            `json:"limit"`
	Percent        *float64       `json:"percent,omitempty"`
	Severity       Severity       `json:"severity"`
	DisabledReason DisabledReason `json:"disabledReason,omitempty"`
}

// CanSend decide si la clínica puede mandar un recordatorio más en el ciclo.
func CanSend(q Quota) bool {
	if !q.CanSendReminders {
		return false
	}
	switch {
	case q.MonthlyLimit == Disabled:
		return false
	case q.MonthlyLimit == Unlimited:
		return true
	case q.MonthlyLimit < Unlimited:
		// límite corrupto: no enviamos
		return false
	default:
		return q.SentThisCycle < q.MonthlyLimit
	}
}

// Summarize arma el resumen de uso.
func Summarize(q Quota) Usage {
	u := Usage{Count: q.SentThisCycle, Limit: q.MonthlyLimit}

	switch {
	case !q.CanSendReminders:
		u.Severity = SeverityDisabled
		u.DisabledReason = ReasonSystem
		return u
	case q.MonthlyLimit == Disabled, q.MonthlyLimit < Unlimited:
		u.Severity = SeverityDisabled
		u.DisabledReason = ReasonLimit
		return u
	case q.MonthlyLimit == Unlimited:
		u.Severity = SeverityUnlimited
		return u
	}

	p := float64(q.SentThisCycle) * 100 / float64(q.MonthlyLimit)
	p = clamp(p, 0, 100)
	u.Percent = &p
	u.Severity = SeverityFor(p)
	return u
}

// SeverityFor clasifica un porcentaje de uso.
func SeverityFor(percent float64) Severity {
	switch {
	case percent >= CriticalThreshold:
		return SeverityCritical
	case percent >= WarningThreshold:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}

// Remaining devuelve cuántos quedan en el ciclo; -1 si es ilimitado.
func Remaining(q Quota) int {
	switch {
	case !q.CanSendReminders:
		return 0
	case q.MonthlyLimit == Unlimited:
		return Unlimited
	case q.MonthlyLimit <= Disabled:
		return 0
	}
	if r := q.MonthlyLimit - q.SentThisCycle; r > 0 {
		return r
	}
	return 0
}

// NormalizeLimit resuelve un límite no informado: se trata como ilimitado.
func NormalizeLimit(limit *int) int {
	if limit == nil {
		return Unlimited
	}
	return *limit
}

// ValidateLimit rechaza valores menores a -1.
func ValidateLimit(limit int) error {
	if limit < Unlimited {
		return ErrInvalidLimit
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
