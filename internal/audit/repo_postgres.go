package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo persists audit events. Table: audit_events, INSERT-only
// (enforce with a trigger blocking UPDATE/DELETE).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, company_id, type, actor_user_id, actor_role, ip_address,
  lead_id, match_id, call_id, dispute_id, transaction_id,
  message, metadata, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.CompanyID,
		e.Type,
		nullIfEmpty(e.ActorUserID),
		nullIfEmpty(e.ActorRole),
		nullIfEmpty(e.IPAddress),
		nullIfEmpty(e.LeadID),
		nullIfEmpty(e.MatchID),
		nullIfEmpty(e.CallID),
		nullIfEmpty(e.DisputeID),
		nullIfEmpty(e.TransactionID),
		nullIfEmpty(e.Message),
		nullIfEmpty(e.Metadata),
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, companyID string, limit int) ([]Event, error) {
	const q = `
SELECT id, company_id, type,
       COALESCE(actor_user_id, ''), COALESCE(actor_role, ''), COALESCE(ip_address, ''),
       COALESCE(lead_id, ''), COALESCE(match_id, ''), COALESCE(call_id, ''),
       COALESCE(dispute_id, ''), COALESCE(transaction_id, ''),
       COALESCE(message, ''), COALESCE(metadata, ''), created_at
FROM audit_events
WHERE company_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.CompanyID, &e.Type,
			&e.ActorUserID, &e.ActorRole, &e.IPAddress,
			&e.LeadID, &e.MatchID, &e.CallID,
			&e.DisputeID, &e.TransactionID,
			&e.Message, &e.Metadata, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
