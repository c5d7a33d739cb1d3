package payments

import (
	"errors"
	"time"
)

var (
	ErrPromoInactive    = errors.New("promo code is not active")
	ErrPromoExpired     = errors.New("promo code is outside its validity window")
	ErrPromoExhausted   = errors.New("promo code has no uses left")
	ErrPromoMinPurchase = errors.New("purchase is below the promo minimum")
)

// PromoOutcome is the effect of a promo on one purchase.
type PromoOutcome struct {
	DiscountMinor     int64
	BonusCreditsMinor int64
}

// ApplyPromo computes the promo effect for a package purchase at a point in
// time. Pure; the caller persists usage counters.
func ApplyPromo(promo PromoCode, priceMinor int64, now time.Time) (PromoOutcome, error) {
	if !promo.IsActive {
		return PromoOutcome{}, ErrPromoInactive
	}
	if now.Before(promo.ValidFrom) || (!promo.ValidUntil.IsZero() && now.After(promo.ValidUntil)) {
		return PromoOutcome{}, ErrPromoExpired
	}
	if promo.MaxUses > 0 && promo.UsedCount >= promo.MaxUses {
		return PromoOutcome{}, ErrPromoExhausted
	}
	if priceMinor < promo.MinPurchaseMinor {
		return PromoOutcome{}, ErrPromoMinPurchase
	}

	switch promo.Type {
	case PromoPercent:
		discount := priceMinor * promo.Value / 100
		if discount > priceMinor {
			discount = priceMinor
		}
		return PromoOutcome{DiscountMinor: discount}, nil
	case PromoFixed:
		discount := promo.Value
		if discount > priceMinor {
			discount = priceMinor
		}
		return PromoOutcome{DiscountMinor: discount}, nil
	case PromoCredits:
		return PromoOutcome{BonusCreditsMinor: promo.Value}, nil
	default:
		return PromoOutcome{}, ErrPromoInactive
	}
}
