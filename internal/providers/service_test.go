package providers

import (
	"context"
	"errors"
	"testing"
)

func newProviderFixture(t *testing.T) (*Service, *Directory) {
	t.Helper()
	svc := NewService(NewMemoryRepo())
	return svc, NewDirectory(svc)
}

func seedProvider(t *testing.T, svc *Service, companyID, serviceID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.UpsertProvider(ctx, Provider{CompanyID: companyID, Name: companyID + " LLC"}); err != nil {
		t.Fatalf("upsert provider: %v", err)
	}
	if _, err := svc.AddOffering(ctx, companyID, serviceID); err != nil {
		t.Fatalf("add offering: %v", err)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Plumbing", "plumbing"},
		{"Water Heater Repair", "water-heater-repair"},
		{"  HVAC & Ducts  ", "hvac-ducts"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateCatalogService_SlugConflict(t *testing.T) {
	svc, _ := newProviderFixture(t)
	ctx := context.Background()

	if _, err := svc.CreateCatalogService(ctx, "", "Plumbing"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.CreateCatalogService(ctx, "", "plumbing")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAddOffering_RejectsDuplicateAndInactiveService(t *testing.T) {
	svc, _ := newProviderFixture(t)
	ctx := context.Background()

	cs, err := svc.CreateCatalogService(ctx, "", "Roofing")
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	seedProvider(t, svc, "company-1", cs.ID)

	if _, err := svc.AddOffering(ctx, "company-1", cs.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate offering, got %v", err)
	}

	if _, err := svc.SetCatalogServiceActive(ctx, cs.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.UpsertProvider(ctx, Provider{CompanyID: "company-2", Name: "Two LLC"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := svc.AddOffering(ctx, "company-2", cs.ID); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument on inactive service, got %v", err)
	}
}

func TestGetPreferences_DefaultsWhenUnset(t *testing.T) {
	svc, _ := newProviderFixture(t)

	p, err := svc.GetPreferences(context.Background(), "company-1")
	if err != nil {
		t.Fatalf("get prefs: %v", err)
	}
	if !p.PauseWhenBalanceZero {
		t.Fatalf("default should pause on zero balance")
	}
	if p.MinBudgetMinor != 0 {
		t.Fatalf("default min budget should be 0, got %d", p.MinBudgetMinor)
	}
}

func TestDirectory_ListCandidates(t *testing.T) {
	svc, dir := newProviderFixture(t)
	ctx := context.Background()

	cs, err := svc.CreateCatalogService(ctx, "", "Plumbing")
	if err != nil {
		t.Fatalf("create service: %v", err)
	}

	seedProvider(t, svc, "active-geo", cs.ID)
	if _, err := svc.ReplaceServiceAreas(ctx, "active-geo", []ServiceArea{
		{Lat: 37.77, Lng: -122.42, RadiusKm: 25},
		{Lat: 37.80, Lng: -122.27, RadiusKm: 60},
	}); err != nil {
		t.Fatalf("areas: %v", err)
	}
	if _, err := svc.UpdatePreferences(ctx, Preferences{
		CompanyID:      "active-geo",
		MinBudgetMinor: 10000,
	}); err != nil {
		t.Fatalf("prefs: %v", err)
	}

	seedProvider(t, svc, "active-nogeo", cs.ID)

	seedProvider(t, svc, "suspended", cs.ID)
	if _, err := svc.SetProviderStatus(ctx, "suspended", ProviderSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	cands, err := dir.ListCandidates(ctx, cs.ID)
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}

	byID := map[string]int{}
	for i, c := range cands {
		byID[c.CompanyID] = i
	}
	if _, ok := byID["suspended"]; ok {
		t.Fatalf("suspended provider should not be a candidate")
	}

	geo := cands[byID["active-geo"]]
	if geo.Lat == nil || geo.ServiceRadiusKm != 60 {
		t.Fatalf("widest area not used: %+v", geo)
	}
	if geo.MinBudgetMinor != 10000 {
		t.Fatalf("preferences not carried: %+v", geo)
	}

	nogeo := cands[byID["active-nogeo"]]
	if nogeo.Lat != nil || nogeo.ServiceRadiusKm != 0 {
		t.Fatalf("provider without areas should carry no geo: %+v", nogeo)
	}
	if !nogeo.PauseWhenBalanceZero {
		t.Fatalf("default preferences should pause on zero balance")
	}
}
