package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// CompanyDomains returns every remembered business id → domain override.
func CompanyDomains(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT business_id, domain FROM company_domains;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var id, domain string
		if err := rows.Scan(&id, &domain); err != nil {
			return nil, err
		}
		out[id] = domain
	}
	return out, rows.Err()
}

// GetCompanyDomain returns the remembered domain or "" if missing.
func GetCompanyDomain(ctx context.Context, db *sql.DB, businessID string) (string, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return "", nil
	}

	var domain string
	err := db.QueryRowContext(ctx,
		`SELECT domain FROM company_domains WHERE business_id = ? LIMIT 1;`,
		businessID,
	).Scan(&domain)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(domain), nil
}

func UpsertCompanyDomain(ctx context.Context, db *sql.DB, businessID, domain string) error {
	businessID = strings.TrimSpace(businessID)
	domain = strings.ToLower(strings.TrimSpace(domain))

	if businessID == "" || domain == "" {
		return nil
	}

	_, err := db.ExecContext(ctx, `
INSERT INTO company_domains(business_id, domain, updated_at)
VALUES(?,?,?)
ON CONFLICT(business_id) DO UPDATE SET
  domain = excluded.domain,
  updated_at = excluded.updated_at;
`, businessID, domain, time.Now().UTC().Format(time.RFC3339))

	return err
}
