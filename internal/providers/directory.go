package providers

import (
	"context"

	"leadmarket-platform/internal/leads"
)

// Directory adapts the provider catalog into routing candidates. Implements
// leads.Directory.
type Directory struct {
	svc *Service
}

func NewDirectory(svc *Service) *Directory {
	return &Directory{svc: svc}
}

// ListCandidates returns one candidate per active provider with an active
// offering for the service. Providers with multiple service areas contribute
// their widest area; providers without areas carry no geo constraint.
func (d *Directory) ListCandidates(ctx context.Context, serviceID string) ([]leads.Candidate, error) {
	offerings, err := d.svc.repo.ListOfferingsByService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	var out []leads.Candidate
	for _, o := range offerings {
		if !o.IsActive {
			continue
		}
		p, err := d.svc.repo.GetProvider(ctx, o.CompanyID)
		if err != nil || p.Status != ProviderActive {
			continue
		}
		prefs, err := d.svc.GetPreferences(ctx, o.CompanyID)
		if err != nil {
			return nil, err
		}
		areas, err := d.svc.repo.ListServiceAreas(ctx, o.CompanyID)
		if err != nil {
			return nil, err
		}

		c := leads.Candidate{
			CompanyID:            o.CompanyID,
			MinBudgetMinor:       prefs.MinBudgetMinor,
			PauseWhenBalanceZero: prefs.PauseWhenBalanceZero,
		}
		if a, ok := widestArea(areas); ok {
			lat, lng := a.Lat, a.Lng
			c.Lat, c.Lng = &lat, &lng
			c.ServiceRadiusKm = a.RadiusKm
		}
		out = append(out, c)
	}
	return out, nil
}

func widestArea(areas []ServiceArea) (ServiceArea, bool) {
	if len(areas) == 0 {
		return ServiceArea{}, false
	}
	best := areas[0]
	for _, a := range areas[1:] {
		if a.RadiusKm > best.RadiusKm {
			best = a
		}
	}
	return best, true
}
