// Package client consume la API HTTP: normaliza listas, valida antes de mandar
// y expone el mensaje de error del servidor.
package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/middleware"
	"vet-clinic/internal/platform/httpclient"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/patch"
)

// GenericError es el mensaje cuando el servidor no manda "message".
const GenericError = "Something went wrong"

type Client struct {
	http *httpclient.Client
}

type Option func(*httpclient.Client)

// WithToken manda Authorization: Bearer.
func WithToken(token string) Option {
	return func(c *httpclient.Client) {
		if token = strings.TrimSpace(token); token != "" {
			c.Headers["Authorization"] = "Bearer " + token
		}
	}
}

// WithDebugUser usa los headers X-Debug-* del modo dev.
func WithDebugUser(userID, role, clinicID string) Option {
	return func(c *httpclient.Client) {
		c.Headers[middleware.HeaderDebugUserID] = userID
		if role != "" {
			c.Headers[middleware.HeaderDebugRole] = role
		}
		if clinicID != "" {
			c.Headers[middleware.HeaderDebugClinicID] = clinicID
		}
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	hc.Headers = map[string]string{}
	for _, o := range opts {
		o(hc)
	}
	return &Client{http: hc}, nil
}

// List pide una página de cualquier recurso y normaliza el envelope.
func List[T any](ctx context.Context, c *Client, path string, q pagination.Query) (ListResult[T], error) {
	raw, err := c.http.Do(ctx, http.MethodGet, path, q.Values(), nil)
	if err != nil {
		return ListResult[T]{}, err
	}
	return DecodeList[T](raw)
}

type Owner struct {
	ID                      string `json:"id"`
	ClinicID                string `json:"clinicId"`
	FullName                string `json:"fullName"`
	Phone                   string `json:"phone"`
	Email                   string `json:"email"`
	AllowAutomatedReminders bool   `json:"allowAutomatedReminders"`
	RemindersEffective      bool   `json:"remindersEffective"`
}

type Pet struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Name    string `json:"name"`
	Species string `json:"species"`
	Breed   string `json:"breed"`
}

type Visit struct {
	ID                string      `json:"id"`
	PetID             string      `json:"petId"`
	VisitDate         time.Time   `json:"visitDate"`
	VisitType         string      `json:"visitType"`
	IsReminderEnabled bool        `json:"isReminderEnabled"`
	NextReminderDate  *patch.Date `json:"nextReminderDate"`
	ReminderSent      bool        `json:"reminderSent"`
}

type Clinic struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	IsActive              bool   `json:"isActive"`
	CanSendReminders      bool   `json:"canSendReminders"`
	ReminderMonthlyLimit  int    `json:"reminderMonthlyLimit"`
	ReminderSentThisCycle int    `json:"reminderSentThisCycle"`
}

type User struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	IsActive bool    `json:"isActive"`
	ClinicID *string `json:"clinicId"`
}

type ReminderUsage struct {
	Count          int       `json:"count"`
	Limit          int       `json:"limit"`
	Percent        *float64  `json:"percent"`
	Severity       string    `json:"severity"`
	DisabledReason string    `json:"disabledReason"`
	CanSend        bool      `json:"canSend"`
	Remaining      int       `json:"remaining"`
	CycleStart     time.Time `json:"cycleStart"`
	CycleEnd       time.Time `json:"cycleEnd"`
}

type Stats struct {
	Owners           int            `json:"owners"`
	Pets             int            `json:"pets"`
	Visits           int            `json:"visits"`
	VisitsThisMonth  int            `json:"visitsThisMonth"`
	PendingReminders int            `json:"pendingReminders"`
	ReminderUsage    *ReminderUsage `json:"reminderUsage"`
}

func (c *Client) Owners(ctx context.Context, q pagination.Query) (ListResult[Owner], error) {
	return List[Owner](ctx, c, "/owners", q)
}

func (c *Client) Pets(ctx context.Context, q pagination.Query) (ListResult[Pet], error) {
	return List[Pet](ctx, c, "/pets", q)
}

func (c *Client) Visits(ctx context.Context, q pagination.Query) (ListResult[Visit], error) {
	return List[Visit](ctx, c, "/visits", q)
}

func (c *Client) Clinics(ctx context.Context, q pagination.Query) (ListResult[Clinic], error) {
	return List[Clinic](ctx, c, "/clinics", q)
}

func (c *Client) Users(ctx context.Context, q pagination.Query) (ListResult[User], error) {
	return List[User](ctx, c, "/users", q)
}

func (c *Client) ReminderUsage(ctx context.Context, clinicID string) (ReminderUsage, error) {
	var out ReminderUsage
	err := c.http.DoJSON(ctx, http.MethodGet, "/clinics/"+url.PathEscape(clinicID)+"/reminder-usage", nil, nil, &out)
	return out, err
}

func (c *Client) DashboardStats(ctx context.Context, clinicID string) (Stats, error) {
	var q url.Values
	if clinicID = strings.TrimSpace(clinicID); clinicID != "" {
		q = url.Values{"clinicId": {clinicID}}
	}
	var out Stats
	err := c.http.DoJSON(ctx, http.MethodGet, "/dashboard/stats", q, nil, &out)
	return out, err
}

// CreateVisit valida localmente; un request inválido nunca sale a la red.
func (c *Client) CreateVisit(ctx context.Context, req visits.CreateRequest) (Visit, error) {
	if err := req.Validate(); err != nil {
		return Visit{}, err
	}
	var out Visit
	err := c.http.DoJSON(ctx, http.MethodPost, "/visits", nil, req, &out)
	return out, err
}

// ErrorMessage es lo que se muestra al usuario ante un error de request.
func ErrorMessage(err error) string {
	return httpclient.MessageOf(err, GenericError)
}
