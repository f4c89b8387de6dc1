package notify

import (
	"context"
	"time"
)

// Reminder es lo que se le avisa al dueño por una visita con recordatorio vencido.
type Reminder struct {
	ClinicID   string
	ClinicName string
	VisitID    string
	VisitType  string
	DueDate    time.Time

	PetName    string
	OwnerName  string
	OwnerPhone string
	OwnerEmail string
}

// Notifier entrega un recordatorio. Un error significa "no enviado": no se
// consume cuota ni se marca la visita.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}
