package payments

import "context"

// Repository abstracts payment persistence.
type Repository interface {
	CreatePackage(ctx context.Context, p CreditPackage) error
	GetPackage(ctx context.Context, id string) (CreditPackage, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]CreditPackage, error)
	UpdatePackage(ctx context.Context, p CreditPackage) error

	CreatePromo(ctx context.Context, p PromoCode) error
	GetPromoByCode(ctx context.Context, code string) (PromoCode, error)
	// IncrementPromoUse bumps used_count, failing when the cap is reached.
	IncrementPromoUse(ctx context.Context, id string) error

	CreatePayment(ctx context.Context, p Payment) error
	GetPayment(ctx context.Context, id string) (Payment, error)
	UpdatePayment(ctx context.Context, p Payment) error
	ListPayments(ctx context.Context, companyID string, limit, offset int) ([]Payment, error)
}
