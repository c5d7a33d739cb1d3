package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// PlatformCompanyID is the reserved tenant id on platform staff tokens.
// Every other token is scoped to one provider company.
const PlatformCompanyID = "platform"

// Identity is the marketplace principal a verified token encodes: a user
// acting for a provider company, or platform staff under PlatformCompanyID.
type Identity struct {
	UserID    string
	CompanyID string
	Role      string
}

// IsPlatformStaff reports whether the principal operates across tenants
// rather than inside a single provider company.
func (id Identity) IsPlatformStaff() bool { return id.CompanyID == PlatformCompanyID }

// Claims is the only supported JWT claims shape for this service.
// Multi-tenant invariant: company_id must be present on every token, so a
// leaked access token can never widen into cross-tenant reads.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	CompanyID string    `json:"company_id"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}

// Identity extracts the principal from verified claims.
func (c Claims) Identity() Identity {
	return Identity{UserID: c.UserID, CompanyID: c.CompanyID, Role: c.Role}
}
