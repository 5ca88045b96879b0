package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/dharmateja03/GoodTurkey/internal/database"
	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// WindowRepository stores allowed time windows. Ownership is checked through
// the parent blocked site.
type WindowRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewWindowRepository(db *database.DB) *WindowRepository {
	return &WindowRepository{db: db, pool: db.Pool}
}

// lockSite takes a row lock on the owning site so window edits serialise
// with lifecycle updates on the same restriction.
func lockSite(ctx context.Context, tx pgx.Tx, userID, siteID string) error {
	var id string
	err := tx.QueryRow(ctx,
		`SELECT id FROM blocked_sites WHERE id = $1 AND user_id = $2 FOR UPDATE`, siteID, userID,
	).Scan(&id)
	return database.MapPostgresError(err)
}

const windowColumns = `w.id, w.site_id, w.day_of_week, w.start_time, w.end_time, w.created_at`

func toPgTime(t policy.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Duration().Microseconds(), Valid: true}
}

func fromPgTime(t pgtype.Time) (policy.TimeOfDay, error) {
	if !t.Valid {
		return 0, fmt.Errorf("time of day is null")
	}
	return policy.TimeOfDayFromDuration(time.Duration(t.Microseconds) * time.Microsecond)
}

func scanWindowRow(scanner rowScanner) (*models.TimeWindow, error) {
	var (
		w          models.TimeWindow
		day        *int16
		start, end pgtype.Time
		err        error
	)
	if err := scanner.Scan(&w.ID, &w.SiteID, &day, &start, &end, &w.CreatedAt); err != nil {
		return nil, database.MapPostgresError(err)
	}
	if day != nil {
		d := int(*day)
		w.DayOfWeek = &d
	}
	if w.Start, err = fromPgTime(start); err != nil {
		return nil, fmt.Errorf("window %s: %w", w.ID, err)
	}
	if w.End, err = fromPgTime(end); err != nil {
		return nil, fmt.Errorf("window %s: %w", w.ID, err)
	}
	return &w, nil
}

// Create inserts w after checking that its site belongs to userID.
func (r *WindowRepository) Create(ctx context.Context, userID string, w *models.TimeWindow) (*models.TimeWindow, error) {
	query := `
		INSERT INTO time_windows AS w (site_id, day_of_week, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + windowColumns

	var day *int16
	if w.DayOfWeek != nil {
		d := int16(*w.DayOfWeek)
		day = &d
	}

	var created *models.TimeWindow
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := lockSite(ctx, tx, userID, w.SiteID); err != nil {
			return err
		}
		var err error
		created, err = scanWindowRow(tx.QueryRow(ctx, query, w.SiteID, day, toPgTime(w.Start), toPgTime(w.End)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *WindowRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var siteID string
		err := tx.QueryRow(ctx, `
			SELECT s.id FROM time_windows w
			JOIN blocked_sites s ON s.id = w.site_id
			WHERE w.id = $1 AND s.user_id = $2
			FOR UPDATE OF s`, id, userID,
		).Scan(&siteID)
		if err != nil {
			return database.MapPostgresError(err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM time_windows WHERE id = $1`, id); err != nil {
			return database.MapPostgresError(err)
		}
		return nil
	})
}

// ListBySiteIDs returns the windows of every listed site keyed by site id.
func (r *WindowRepository) ListBySiteIDs(ctx context.Context, siteIDs []string) (map[string][]models.TimeWindow, error) {
	out := make(map[string][]models.TimeWindow, len(siteIDs))
	if len(siteIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT ` + windowColumns + `
		FROM time_windows w
		WHERE w.site_id = ANY($1::uuid[])
		ORDER BY w.day_of_week NULLS FIRST, w.start_time`

	rows, err := r.pool.Query(ctx, query, pq.Array(siteIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query time windows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		w, err := scanWindowRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time window: %w", err)
		}
		out[w.SiteID] = append(out[w.SiteID], *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
