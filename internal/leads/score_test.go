package leads

import "testing"

func TestScoreQuality(t *testing.T) {
	tests := []struct {
		name string
		lead LeadRequest
		want int
	}{
		{
			name: "full contact and detail",
			lead: LeadRequest{
				ContactName:    "Maria Lopez",
				ContactEmail:   "maria@example.com",
				ContactPhone:   "+15551234567",
				PostalCode:     "94110",
				Title:          "Kitchen remodel",
				Description:    "Full kitchen remodel, cabinets and countertops included.",
				BudgetMinMinor: i64ptr(500000),
			},
			want: 100,
		},
		{
			name: "phone only",
			lead: LeadRequest{ContactPhone: "+15551234567"},
			want: 30,
		},
		{
			name: "spam keyword tanks the score",
			lead: LeadRequest{
				ContactEmail: "seo@example.com",
				ContactName:  "Link Builder",
				Description:  "We offer the best SEO service and backlink packages for your site.",
			},
			want: 10,
		},
		{
			name: "two urls penalized",
			lead: LeadRequest{
				ContactPhone: "+15551234567",
				ContactEmail: "a@example.com",
				Description:  "see https://a.example.com and https://b.example.com for details",
			},
			want: 45,
		},
		{
			name: "test name penalized",
			lead: LeadRequest{
				ContactPhone: "+15551234567",
				ContactName:  "John Doe",
			},
			want: 20,
		},
		{
			name: "empty lead floors at zero",
			lead: LeadRequest{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreQuality(tt.lead); got != tt.want {
				t.Fatalf("ScoreQuality() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsSpamScore(t *testing.T) {
	if !IsSpamScore(19) {
		t.Fatalf("19 should be spam")
	}
	if IsSpamScore(20) {
		t.Fatalf("20 should not be spam")
	}
}

func TestHaversineKm(t *testing.T) {
	// San Francisco to Oakland, roughly 13 km.
	d := HaversineKm(37.7749, -122.4194, 37.8044, -122.2712)
	if d < 12 || d > 14 {
		t.Fatalf("SF-Oakland distance out of range: %.2f km", d)
	}
	if z := HaversineKm(37.7749, -122.4194, 37.7749, -122.4194); z != 0 {
		t.Fatalf("same point should be 0, got %f", z)
	}
}

func i64ptr(v int64) *int64 { return &v }
