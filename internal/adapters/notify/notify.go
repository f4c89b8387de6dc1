// Package notify tiene los sinks de recordatorios: log (dev) y webhook.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vet-clinic/internal/platform/httpclient"
	"vet-clinic/internal/platform/logger"
	port "vet-clinic/internal/ports/notify"
)

// LogNotifier solo deja registro; sirve en dev cuando no hay canal real.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, r port.Reminder) error {
	n.log.Info("reminder", map[string]any{
		"clinic_id":  r.ClinicID,
		"visit_id":   r.VisitID,
		"visit_type": r.VisitType,
		"due_date":   r.DueDate.Format("2006-01-02"),
		"pet":        r.PetName,
		"owner":      r.OwnerName,
		"phone":      r.OwnerPhone,
	})
	return nil
}

// Webhook hace POST del recordatorio a una URL externa (gateway de SMS/email).
type Webhook struct {
	client *httpclient.Client
	url    string
}

func NewWebhook(url string, timeout time.Duration) (*Webhook, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("notify: webhook url required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("notify: invalid webhook url %q", url)
	}
	return &Webhook{client: httpclient.New(timeout), url: url}, nil
}

type webhookPayload struct {
	ClinicID   string `json:"clinicId"`
	ClinicName string `json:"clinicName"`
	VisitID    string `json:"visitId"`
	VisitType  string `json:"visitType"`
	DueDate    string `json:"dueDate"`
	PetName    string `json:"petName"`
	OwnerName  string `json:"ownerName"`
	OwnerPhone string `json:"ownerPhone"`
	OwnerEmail string `json:"ownerEmail,omitempty"`
}

func (w *Webhook) Notify(ctx context.Context, r port.Reminder) error {
	err := w.client.DoJSON(ctx, http.MethodPost, w.url, nil, webhookPayload{
		ClinicID:   r.ClinicID,
		ClinicName: r.ClinicName,
		VisitID:    r.VisitID,
		VisitType:  r.VisitType,
		DueDate:    r.DueDate.Format("2006-01-02"),
		PetName:    r.PetName,
		OwnerName:  r.OwnerName,
		OwnerPhone: r.OwnerPhone,
		OwnerEmail: r.OwnerEmail,
	}, nil)
	if err != nil {
		return fmt.Errorf("notify webhook: %w", err)
	}
	return nil
}
