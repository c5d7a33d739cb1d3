package calls

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ParseInboundCallForm maps a tracking-provider webhook onto an IngestRequest.
// Providers post application/x-www-form-urlencoded with the field names below;
// adapters for other payload shapes should normalize to these keys upstream.
//
// Business logic (qualification, pricing) is not made here.
func ParseInboundCallForm(r *http.Request) (IngestRequest, error) {
	if err := r.ParseForm(); err != nil {
		return IngestRequest{}, err
	}

	duration, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("duration_seconds")))

	var occurred time.Time
	if raw := strings.TrimSpace(r.PostFormValue("occurred_at")); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			occurred = t.UTC()
		}
	}

	return IngestRequest{
		CompanyID:       strings.TrimSpace(r.PostFormValue("company_id")),
		ServiceID:       strings.TrimSpace(r.PostFormValue("service_id")),
		CampaignID:      strings.TrimSpace(r.PostFormValue("campaign_id")),
		CallerNumber:    normalizePhone(r.PostFormValue("caller_number")),
		TrackingNumber:  normalizePhone(r.PostFormValue("tracking_number")),
		DurationSeconds: duration,
		Region:          strings.TrimSpace(r.PostFormValue("region")),
		City:            strings.TrimSpace(r.PostFormValue("city")),
		PostalCode:      strings.TrimSpace(r.PostFormValue("postal_code")),
		ProviderCallID:  strings.TrimSpace(r.PostFormValue("provider_call_id")),
		OccurredAt:      occurred,
	}, nil
}

func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	// Some providers send "anonymous" or empty; keep as-is.
	return s
}
