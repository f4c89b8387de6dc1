package reminders

import "time"

// CycleEnd es el fin (exclusivo) del ciclo que empieza en start: un mes calendario,
// con clamp a fin de mes (31 ene -> 28/29 feb).
func CycleEnd(start time.Time) time.Time {
	return addMonthsClamped(start, 1)
}

// NeedsRollover indica si now ya cruzó el fin del ciclo actual.
// Un start cero (clínica sin ciclo inicializado) siempre necesita rollover.
func NeedsRollover(start, now time.Time) bool {
	if start.IsZero() {
		return true
	}
	return !now.Before(CycleEnd(start))
}

// NextCycleStart devuelve el inicio del ciclo que contiene now, avanzando de a
// meses calendario desde start. Si start es cero, el ciclo arranca en now.
func NextCycleStart(start, now time.Time) time.Time {
	if start.IsZero() {
		return now
	}
	if now.Before(start) {
		return start
	}

	// estimación por diferencia de meses y ajuste fino
	months := (now.Year()-start.Year())*12 + int(now.Month()-start.Month())
	if months < 0 {
		months = 0
	}
	candidate := addMonthsClamped(start, months)
	for candidate.After(now) && months > 0 {
		months--
		candidate = addMonthsClamped(start, months)
	}
	for {
		next := addMonthsClamped(start, months+1)
		if next.After(now) {
			return candidate
		}
		months++
		candidate = next
	}
}

// Rollover devuelve la cuota con contador en 0 y ciclo avanzado, si corresponde.
// El bool informa si hubo cambio.
func Rollover(q Quota, now time.Time) (Quota, bool) {
	if !NeedsRollover(q.CycleStart, now) {
		return q, false
	}
	q.CycleStart = NextCycleStart(q.CycleStart, now)
	q.SentThisCycle = 0
	return q, true
}

// addMonthsClamped suma meses sin desbordar al mes siguiente (31 ene + 1 = 28/29 feb).
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := time.Date(target.Year(), target.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
