package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharmateja03/GoodTurkey/internal/database"
	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// SiteRepository stores blocked sites. Every query is scoped to the owning
// user; a row belonging to someone else reads as models.ErrNotFound.
type SiteRepository struct {
	pool *pgxpool.Pool
}

func NewSiteRepository(db *database.DB) *SiteRepository {
	return &SiteRepository{pool: db.Pool}
}

const siteColumns = `id, user_id, category_id, pattern, is_active, unlock_requested_at, access_attempts, created_at, updated_at`

func scanSiteRow(scanner rowScanner) (*models.BlockedSite, error) {
	var s models.BlockedSite
	err := scanner.Scan(
		&s.ID, &s.UserID, &s.CategoryID, &s.Pattern, &s.IsActive,
		&s.UnlockRequestedAt, &s.AccessAttempts, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

func scanSiteRows(rows pgx.Rows) ([]*models.BlockedSite, error) {
	defer rows.Close()

	sites := make([]*models.BlockedSite, 0)
	for rows.Next() {
		s, err := scanSiteRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blocked site: %w", err)
		}
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return sites, nil
}

func (r *SiteRepository) GetByID(ctx context.Context, userID, id string) (*models.BlockedSite, error) {
	query := `SELECT ` + siteColumns + ` FROM blocked_sites WHERE id = $1 AND user_id = $2`
	return scanSiteRow(r.pool.QueryRow(ctx, query, id, userID))
}

// ListByUser returns every site of userID, newest first.
func (r *SiteRepository) ListByUser(ctx context.Context, userID string) ([]*models.BlockedSite, error) {
	query := `SELECT ` + siteColumns + ` FROM blocked_sites WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocked sites: %w", err)
	}
	return scanSiteRows(rows)
}

// ListActiveByUser returns the active sites of userID, the input to sync.
func (r *SiteRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.BlockedSite, error) {
	query := `SELECT ` + siteColumns + ` FROM blocked_sites WHERE user_id = $1 AND is_active ORDER BY pattern`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active sites: %w", err)
	}
	return scanSiteRows(rows)
}

// Create inserts a new, active site.
func (r *SiteRepository) Create(ctx context.Context, site *models.BlockedSite) (*models.BlockedSite, error) {
	query := `
		INSERT INTO blocked_sites (user_id, category_id, pattern, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING ` + siteColumns

	return scanSiteRow(r.pool.QueryRow(ctx, query, site.UserID, site.CategoryID, site.Pattern))
}

// Update writes pattern, category and lifecycle columns of site, but only if
// the stored lifecycle still equals prev. A concurrent change yields
// models.ErrStale, so a gate decision can never be applied to a row that
// moved underneath it.
func (r *SiteRepository) Update(ctx context.Context, site *models.BlockedSite, prev policy.Lock) (*models.BlockedSite, error) {
	query := `
		UPDATE blocked_sites
		SET pattern = $3, category_id = $4, is_active = $5, unlock_requested_at = $6, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		  AND is_active = $7 AND unlock_requested_at IS NOT DISTINCT FROM $8
		RETURNING ` + siteColumns

	updated, err := scanSiteRow(r.pool.QueryRow(ctx, query,
		site.ID, site.UserID, site.Pattern, site.CategoryID, site.IsActive, site.UnlockRequestedAt,
		prev.Active, prev.UnlockRequestedAt,
	))
	if errors.Is(err, models.ErrNotFound) {
		return nil, r.missOrStale(ctx, site.UserID, site.ID)
	}
	return updated, err
}

// Delete removes the site if its lifecycle still equals prev. Time windows
// go with it by cascade.
func (r *SiteRepository) Delete(ctx context.Context, userID, id string, prev policy.Lock) error {
	query := `
		DELETE FROM blocked_sites
		WHERE id = $1 AND user_id = $2
		  AND is_active = $3 AND unlock_requested_at IS NOT DISTINCT FROM $4`

	tag, err := r.pool.Exec(ctx, query, id, userID, prev.Active, prev.UnlockRequestedAt)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return r.missOrStale(ctx, userID, id)
	}
	return nil
}

func (r *SiteRepository) missOrStale(ctx context.Context, userID, id string) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM blocked_sites WHERE id = $1 AND user_id = $2)`, id, userID,
	).Scan(&exists)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if exists {
		return models.ErrStale
	}
	return models.ErrNotFound
}

// AddAttempts adds the given counts to access_attempts in one round trip.
// Ids that no longer exist are ignored.
func (r *SiteRepository) AddAttempts(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for id, n := range counts {
		batch.Queue(`UPDATE blocked_sites SET access_attempts = access_attempts + $2 WHERE id = $1`, id, n)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to flush access attempts: %w", database.MapPostgresError(err))
	}
	return nil
}
