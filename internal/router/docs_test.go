package router_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/swaggo/swag"

	"vet-clinic/internal/router"
)

func TestDocs_CoverEveryRoute(t *testing.T) {
	raw, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("decode doc: %v", err)
	}

	routes, ok := router.NewRouter(router.Options{}).(chi.Routes)
	if !ok {
		t.Fatalf("router must expose chi.Routes")
	}

	seen := 0
	err = chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = strings.TrimSuffix(route, "/")
		if route == "/health" || strings.HasPrefix(route, "/swagger") {
			return nil
		}
		seen++
		ops, ok := doc.Paths[route]
		if !ok {
			t.Errorf("route %s %s missing from docs", method, route)
			return nil
		}
		if _, ok := ops[strings.ToLower(method)]; !ok {
			t.Errorf("method %s missing from docs for %s", method, route)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if seen == 0 {
		t.Fatalf("no routes walked")
	}
}

func TestDocs_ClinicListFilterIsStatus(t *testing.T) {
	raw, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	var doc struct {
		Paths map[string]map[string]struct {
			Parameters []struct {
				Name string `json:"name"`
			} `json:"parameters"`
		} `json:"paths"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("decode doc: %v", err)
	}

	names := map[string]bool{}
	for _, p := range doc.Paths["/clinics"]["get"].Parameters {
		names[p.Name] = true
	}
	if !names["status"] || names["isActive"] {
		t.Fatalf("clinic list must document status, got %v", names)
	}
}
