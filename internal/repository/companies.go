package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatesweb/emlak-directory/internal/dto"
	"github.com/gatesweb/emlak-directory/internal/entity"
)

// CompaniesRepository describes persistence operations for company records.
type CompaniesRepository interface {
	BulkUpsert(ctx context.Context, records []entity.Company) (BulkUpsertResult, error)
	List(ctx context.Context, filter dto.ListFilter) ([]entity.Company, error)
	ListAll(ctx context.Context) ([]entity.Company, error)
	ListMissingEmail(ctx context.Context, limit int) ([]entity.Company, error)
	ListUnverified(ctx context.Context, limit int) ([]entity.Company, error)
	SetEmail(ctx context.Context, id uuid.UUID, email, emailSource string) error
	SetVerification(ctx context.Context, id uuid.UUID, status string) error
	VerifiedCount(ctx context.Context) (int, error)
	Stats(ctx context.Context) (dto.DatasetStats, error)
}

// BulkUpsertResult summarises the number of rows inserted or updated.
type BulkUpsertResult struct {
	Inserted int
	Updated  int
	Total    int
}

// pgxPool is the subset of pgxpool.Pool the repository needs, kept narrow
// so tests can stub it.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var _ pgxPool = (*pgxpool.Pool)(nil)

// PGXCompaniesRepository implements CompaniesRepository using pgx.
type PGXCompaniesRepository struct {
	pool pgxPool
}

// NewPGXCompaniesRepository wires a pgx backed repository.
func NewPGXCompaniesRepository(pool *pgxpool.Pool) *PGXCompaniesRepository {
	return &PGXCompaniesRepository{pool: pool}
}

const upsertSQL = `
        INSERT INTO companies (name, phone, website, email, email_verification, founder, district, source, email_source, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
        ON CONFLICT (lower(name), phone) DO UPDATE SET
            website = COALESCE(EXCLUDED.website, companies.website),
            email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE companies.email END,
            email_verification = COALESCE(EXCLUDED.email_verification, companies.email_verification),
            founder = COALESCE(EXCLUDED.founder, companies.founder),
            district = EXCLUDED.district,
            source = EXCLUDED.source,
            email_source = CASE WHEN EXCLUDED.email_source <> '' THEN EXCLUDED.email_source ELSE companies.email_source END,
            updated_at = NOW()
        RETURNING xmax = 0;
    `

// BulkUpsert persists a batch of records with idempotent semantics keyed on
// the (name, phone) uniqueness invariant.
func (r *PGXCompaniesRepository) BulkUpsert(ctx context.Context, records []entity.Company) (BulkUpsertResult, error) {
	var result BulkUpsertResult
	if len(records) == 0 {
		return result, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, fmt.Errorf("start bulk upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, record := range records {
		rows, err := tx.Query(ctx, upsertSQL,
			record.Name,
			record.Phone,
			record.Website,
			record.Email,
			record.EmailVerification,
			record.Founder,
			record.District,
			record.Source,
			record.EmailSource,
		)
		if err != nil {
			return result, fmt.Errorf("upsert company %q: %w", record.Name, err)
		}

		var inserted bool
		if rows.Next() {
			if scanErr := rows.Scan(&inserted); scanErr != nil {
				rows.Close()
				return result, fmt.Errorf("scan upsert result: %w", scanErr)
			}
		} else {
			err := rows.Err()
			rows.Close()
			if err != nil {
				return result, fmt.Errorf("upsert company %q: %w", record.Name, err)
			}
			return result, fmt.Errorf("upsert company %q: no result returned", record.Name)
		}
		rows.Close()

		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
		result.Total++
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit bulk upsert tx: %w", err)
	}

	return result, nil
}

const selectColumns = `
        SELECT id, name, phone, website, email, email_verification, founder, district, source, email_source, created_at, updated_at
        FROM companies
    `

// List retrieves companies matching the provided filter, newest first.
func (r *PGXCompaniesRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.Company, error) {
	query := strings.Builder{}
	query.WriteString(selectColumns)

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Q != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Q)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", idx, idx+1))
		args = append(args, pattern, pattern)
		idx += 2
	}
	if filter.District != "" {
		clauses = append(clauses, fmt.Sprintf("district = $%d", idx))
		args = append(args, filter.District)
		idx++
	}
	if filter.Source != "" {
		clauses = append(clauses, fmt.Sprintf("source = $%d", idx))
		args = append(args, filter.Source)
		idx++
	}
	if filter.EmailSource != "" {
		clauses = append(clauses, fmt.Sprintf("email_source = $%d", idx))
		args = append(args, filter.EmailSource)
		idx++
	}
	switch filter.Verification {
	case entity.VerificationDeliverable, entity.VerificationBad:
		clauses = append(clauses, fmt.Sprintf("email_verification = $%d", idx))
		args = append(args, filter.Verification)
		idx++
	case "none":
		clauses = append(clauses, "email_verification IS NULL")
	}

	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}

	query.WriteString(" ORDER BY created_at DESC, name ASC")
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	return r.queryCompanies(ctx, query.String(), args...)
}

// ListAll streams the entire dataset ordered by district then name, the
// order the exported CSV is documented in.
func (r *PGXCompaniesRepository) ListAll(ctx context.Context) ([]entity.Company, error) {
	return r.queryCompanies(ctx, selectColumns+" ORDER BY district ASC, name ASC")
}

// ListMissingEmail returns records awaiting enrichment.
func (r *PGXCompaniesRepository) ListMissingEmail(ctx context.Context, limit int) ([]entity.Company, error) {
	return r.queryCompanies(ctx, selectColumns+" WHERE email = '' ORDER BY created_at ASC LIMIT $1", limit)
}

// ListUnverified returns records with an email but no verification label.
func (r *PGXCompaniesRepository) ListUnverified(ctx context.Context, limit int) ([]entity.Company, error) {
	return r.queryCompanies(ctx, selectColumns+" WHERE email <> '' AND email_verification IS NULL ORDER BY created_at ASC LIMIT $1", limit)
}

// SetEmail stores the enriched address and its origin tag.
func (r *PGXCompaniesRepository) SetEmail(ctx context.Context, id uuid.UUID, email, emailSource string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE companies SET email = $2, email_source = $3, email_verification = NULL, updated_at = NOW() WHERE id = $1`, id, email, emailSource)
	if err != nil {
		return fmt.Errorf("set email for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set email: company %s not found", id)
	}
	return nil
}

// SetVerification stores the verification label for a record.
func (r *PGXCompaniesRepository) SetVerification(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE companies SET email_verification = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set verification for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set verification: company %s not found", id)
	}
	return nil
}

// VerifiedCount returns the number of records labelled deliverable.
func (r *PGXCompaniesRepository) VerifiedCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies WHERE email_verification = $1`, entity.VerificationDeliverable).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count verified companies: %w", err)
	}
	return count, nil
}

// Stats aggregates the dataset counters used by the reporting endpoint.
func (r *PGXCompaniesRepository) Stats(ctx context.Context) (dto.DatasetStats, error) {
	stats := dto.DatasetStats{
		ByDistrict:    make(map[string]int),
		BySource:      make(map[string]int),
		ByEmailSource: make(map[string]int),
	}

	err := r.pool.QueryRow(ctx, `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE email_verification = '200'),
            COUNT(*) FILTER (WHERE email_verification = 'BAD'),
            COUNT(*) FILTER (WHERE email_verification IS NULL),
            COUNT(*) FILTER (WHERE website IS NOT NULL AND website <> ''),
            COUNT(*) FILTER (WHERE founder IS NOT NULL AND founder <> '')
        FROM companies
    `).Scan(&stats.Total, &stats.Verified, &stats.Bad, &stats.Unverified, &stats.WithWebsite, &stats.WithFounder)
	if err != nil {
		return stats, fmt.Errorf("aggregate dataset stats: %w", err)
	}

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Verified) / float64(stats.Total) * 100
	}

	for _, group := range []struct {
		column string
		into   map[string]int
	}{
		{"district", stats.ByDistrict},
		{"source", stats.BySource},
		{"email_source", stats.ByEmailSource},
	} {
		if err := r.groupCount(ctx, group.column, group.into); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

func (r *PGXCompaniesRepository) groupCount(ctx context.Context, column string, into map[string]int) error {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM companies GROUP BY %s`, column, column))
	if err != nil {
		return fmt.Errorf("group companies by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("scan %s group row: %w", column, err)
		}
		into[key] = count
	}
	return rows.Err()
}

func (r *PGXCompaniesRepository) queryCompanies(ctx context.Context, query string, args ...any) ([]entity.Company, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []entity.Company
	for rows.Next() {
		var c entity.Company
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Phone,
			&c.Website,
			&c.Email,
			&c.EmailVerification,
			&c.Founder,
			&c.District,
			&c.Source,
			&c.EmailSource,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan company row: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}
