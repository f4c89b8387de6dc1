package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vet-clinic/internal/router"
)

type actor struct {
	userID   string
	role     string
	clinicID string
}

var admin = actor{userID: "admin-1", role: "ADMIN"}

func TestHTTP_ClinicOwnerPetVisitFlow(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	// 1) Admin crea dos clínicas
	clinicA := createID(t, ts.URL, "/clinics", admin, map[string]any{
		"name":                 "Vet Norte",
		"canSendReminders":     true,
		"reminderMonthlyLimit": 10,
	})
	clinicB := createID(t, ts.URL, "/clinics", admin, map[string]any{"name": "Vet Sur"})

	staffA := actor{userID: "staff-a", role: "STAFF", clinicID: clinicA}
	staffB := actor{userID: "staff-b", role: "STAFF", clinicID: clinicB}

	// 2) Staff de A crea owner -> pet -> visit
	ownerID := createID(t, ts.URL, "/owners", staffA, map[string]any{
		"firstName":               "Ana",
		"lastName":                "Paz",
		"phone":                   "+54 11 5555 0000",
		"allowAutomatedReminders": true,
	})
	petID := createID(t, ts.URL, "/pets", staffA, map[string]any{
		"ownerId": ownerID,
		"name":    "Milo",
		"species": "dog",
	})
	visitID := createID(t, ts.URL, "/visits", staffA, map[string]any{
		"petId":             petID,
		"visitDate":         time.Now().UTC().Format(time.RFC3339),
		"visitType":         "vaccination",
		"isReminderEnabled": true,
		"nextReminderDate":  time.Now().UTC().AddDate(0, 6, 0).Format("2006-01-02"),
	})

	// 3) Sub-rutas
	{
		st, body := doReq(t, ts.URL, "GET", "/owners/"+ownerID+"/pets", staffA, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 owner pets, got %d body=%s", st, string(body))
		}
		page := decodeMetaPage(t, body)
		if page.Meta.TotalCount != 1 || len(page.Data) != 1 {
			t.Fatalf("expected 1 pet for owner, got %+v", page.Meta)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID+"/visits", staffA, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 pet visits, got %d body=%s", st, string(body))
		}
		page := decodeMetaPage(t, body)
		if len(page.Data) != 1 || page.Data[0]["id"] != visitID {
			t.Fatalf("expected visit %s in pet visits, got %s", visitID, string(body))
		}
	}

	// 4) Otra clínica no ve nada: 404, no 403
	for _, path := range []string{"/owners/" + ownerID, "/pets/" + petID, "/visits/" + visitID} {
		st, _ := doReq(t, ts.URL, "GET", path, staffB, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 cross-tenant GET %s, got %d", path, st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/owners", staffB, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list owners B, got %d", st)
		}
		page := decodeMetaPage(t, body)
		if len(page.Data) != 0 || page.Meta.TotalCount != 0 {
			t.Fatalf("clinic B must not see A's owners: %s", string(body))
		}
	}

	// 5) Dashboard de A
	{
		st, body := doReq(t, ts.URL, "GET", "/dashboard/stats", staffA, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 stats, got %d body=%s", st, string(body))
		}
		var stats struct {
			Owners           int `json:"owners"`
			Pets             int `json:"pets"`
			Visits           int `json:"visits"`
			PendingReminders int `json:"pendingReminders"`
		}
		_ = json.Unmarshal(body, &stats)
		if stats.Owners != 1 || stats.Pets != 1 || stats.Visits != 1 || stats.PendingReminders != 1 {
			t.Fatalf("unexpected stats %+v", stats)
		}
	}

	// 6) Borrar owner arrastra pets y visitas
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/owners/"+ownerID, staffA, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 owner delete by STAFF, got %d", st)
		}
		clinicAdmin := actor{userID: "ca-a", role: "CLINIC_ADMIN", clinicID: clinicA}
		st, body := doReq(t, ts.URL, "DELETE", "/owners/"+ownerID, clinicAdmin, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 owner delete, got %d body=%s", st, string(body))
		}
		st, _ = doReq(t, ts.URL, "GET", "/visits/"+visitID, staffA, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 visit after owner delete, got %d", st)
		}
	}
}

func TestHTTP_ClinicDeleteRemovesData(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	clinicID := createID(t, ts.URL, "/clinics", admin, map[string]any{"name": "Vet Centro"})
	staff := actor{userID: "staff-c", role: "STAFF", clinicID: clinicID}

	createID(t, ts.URL, "/users", admin, map[string]any{
		"email": "staff@centro.vet", "password": "12345678", "role": "STAFF", "clinicId": clinicID,
	})
	ownerID := createID(t, ts.URL, "/owners", staff, map[string]any{"firstName": "Ana", "phone": "123"})
	petID := createID(t, ts.URL, "/pets", staff, map[string]any{"ownerId": ownerID, "name": "Milo", "species": "dog"})

	st, body := doReq(t, ts.URL, "DELETE", "/clinics/"+clinicID, admin, nil)
	if st != http.StatusNoContent {
		t.Fatalf("expected 204 clinic delete, got %d body=%s", st, string(body))
	}

	// nada queda colgando de la clínica borrada
	{
		st, body := doReq(t, ts.URL, "GET", "/owners", admin, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list owners, got %d", st)
		}
		if page := decodeMetaPage(t, body); page.Meta.TotalCount != 0 {
			t.Fatalf("owners must be gone with the clinic: %s", string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/users", admin, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list users, got %d", st)
		}
		var resp struct {
			Pagination struct {
				TotalCount int `json:"totalCount"`
			} `json:"pagination"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Pagination.TotalCount != 0 {
			t.Fatalf("users must be gone with the clinic: %s", string(body))
		}
	}
	if st, _ := doReq(t, ts.URL, "GET", "/pets/"+petID, admin, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 pet after clinic delete, got %d", st)
	}

	// un token viejo de esa clínica no puede crear dueños huérfanos
	if st, _ := doReq(t, ts.URL, "POST", "/owners", staff, map[string]any{"firstName": "Bea", "phone": "456"}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 owner under deleted clinic, got %d", st)
	}
}

func TestHTTP_ListEnvelopes(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	for i := 0; i < 12; i++ {
		createID(t, ts.URL, "/clinics", admin, map[string]any{"name": fmt.Sprintf("Clinic %02d", i)})
	}

	// limit fuera de {10,20,50,100} => 400
	{
		st, _ := doReq(t, ts.URL, "GET", "/clinics?limit=2", admin, nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for limit=2, got %d", st)
		}
	}

	// clínicas usan {data, pagination}
	{
		st, body := doReq(t, ts.URL, "GET", "/clinics?page=2&limit=10", admin, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list clinics, got %d body=%s", st, string(body))
		}
		var resp struct {
			Data       []map[string]any `json:"data"`
			Pagination struct {
				Page       int `json:"page"`
				Limit      int `json:"limit"`
				TotalPages int `json:"totalPages"`
				TotalCount int `json:"totalCount"`
			} `json:"pagination"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Pagination.Page != 2 || resp.Pagination.Limit != 10 || resp.Pagination.TotalPages != 2 || resp.Pagination.TotalCount != 12 {
			t.Fatalf("unexpected pagination %+v", resp.Pagination)
		}
		if len(resp.Data) != 2 {
			t.Fatalf("expected 2 clinics on page 2, got %d", len(resp.Data))
		}
	}

	// owners usan {data, meta}; lista vacía => totalPages 0
	{
		clinicID := createID(t, ts.URL, "/clinics", admin, map[string]any{"name": "Empty"})
		st, body := doReq(t, ts.URL, "GET", "/owners", actor{userID: "s", role: "STAFF", clinicID: clinicID}, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list owners, got %d", st)
		}
		page := decodeMetaPage(t, body)
		if page.Data == nil {
			t.Fatalf("data must be [] not null: %s", string(body))
		}
		if page.Meta.CurrentPage != 1 || page.Meta.TotalPages != 0 || page.Meta.TotalCount != 0 {
			t.Fatalf("unexpected meta %+v", page.Meta)
		}
	}
}

func TestHTTP_ValidationAndAuth(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	clinicID := createID(t, ts.URL, "/clinics", admin, map[string]any{"name": "Vet"})
	staff := actor{userID: "staff-1", role: "STAFF", clinicID: clinicID}

	// sin identidad => 401
	{
		st, _ := doReq(t, ts.URL, "GET", "/owners", actor{}, nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 anonymous, got %d", st)
		}
	}

	// owner sin teléfono => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/owners", staff, map[string]any{"firstName": "Ana"})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 owner without phone, got %d", st)
		}
	}

	// recordatorio habilitado sin fecha => 400
	{
		ownerID := createID(t, ts.URL, "/owners", staff, map[string]any{"firstName": "Ana", "phone": "123"})
		petID := createID(t, ts.URL, "/pets", staff, map[string]any{"ownerId": ownerID, "name": "Milo", "species": "cat"})
		st, _ := doReq(t, ts.URL, "POST", "/visits", staff, map[string]any{
			"petId":             petID,
			"visitDate":         time.Now().UTC().Format(time.RFC3339),
			"visitType":         "checkup",
			"isReminderEnabled": true,
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 reminder without date, got %d", st)
		}
	}

	// campo desconocido => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/owners", staff, map[string]any{"firstName": "Ana", "phone": "1", "bogus": true})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 unknown field, got %d", st)
		}
	}

	// kill switch y límite: solo ADMIN
	{
		ca := actor{userID: "ca-1", role: "CLINIC_ADMIN", clinicID: clinicID}
		for _, who := range []actor{staff, ca} {
			st, _ := doReq(t, ts.URL, "PATCH", "/clinics/"+clinicID+"/reminders", who, map[string]any{"canSendReminders": true})
			if st != http.StatusForbidden {
				t.Fatalf("expected 403 reminder settings by %s, got %d", who.role, st)
			}
		}
		st, body := doReq(t, ts.URL, "PATCH", "/clinics/"+clinicID+"/reminders", admin, map[string]any{
			"canSendReminders":     true,
			"reminderMonthlyLimit": 50,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 reminder settings by admin, got %d body=%s", st, string(body))
		}

		st, body = doReq(t, ts.URL, "GET", "/clinics/"+clinicID+"/reminder-usage", staff, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 usage, got %d body=%s", st, string(body))
		}
		var usage struct {
			Count   int  `json:"count"`
			Limit   int  `json:"limit"`
			CanSend bool `json:"canSend"`
		}
		_ = json.Unmarshal(body, &usage)
		if usage.Limit != 50 || usage.Count != 0 || !usage.CanSend {
			t.Fatalf("unexpected usage %+v", usage)
		}
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	st, body := doReq(t, ts.URL, "GET", "/health", actor{}, nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", st, string(body))
	}
}

type metaPage struct {
	Data []map[string]any `json:"data"`
	Meta struct {
		CurrentPage  int `json:"currentPage"`
		TotalPages   int `json:"totalPages"`
		TotalCount   int `json:"totalCount"`
		ItemsPerPage int `json:"itemsPerPage"`
	} `json:"meta"`
}

func decodeMetaPage(t *testing.T, body []byte) metaPage {
	t.Helper()

	var p metaPage
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("decode page: %v body=%s", err, string(body))
	}
	return p
}

func createID(t *testing.T, baseURL, path string, who actor, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", path, who, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 POST %s, got %d body=%s", path, st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("POST %s: missing id body=%s", path, string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path string, who actor, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who.userID != "" {
		req.Header.Set("X-Debug-User-ID", who.userID)
	}
	if who.role != "" {
		req.Header.Set("X-Debug-Role", who.role)
	}
	if who.clinicID != "" {
		req.Header.Set("X-Debug-Clinic-ID", who.clinicID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
