package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharmateja03/GoodTurkey/internal/database"
	"github.com/dharmateja03/GoodTurkey/internal/models"
)

type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(db *database.DB) *CategoryRepository {
	return &CategoryRepository{pool: db.Pool}
}

const categoryColumns = `id, user_id, name, color, created_at`

func scanCategoryRow(scanner rowScanner) (*models.Category, error) {
	var c models.Category
	if err := scanner.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.CreatedAt); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID string) ([]*models.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		c, err := scanCategoryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, userID, id string) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1 AND user_id = $2`
	return scanCategoryRow(r.pool.QueryRow(ctx, query, id, userID))
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	query := `
		INSERT INTO categories (user_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING ` + categoryColumns

	return scanCategoryRow(r.pool.QueryRow(ctx, query, c.UserID, c.Name, c.Color))
}

func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	query := `
		UPDATE categories SET name = $3, color = $4
		WHERE id = $1 AND user_id = $2
		RETURNING ` + categoryColumns

	return scanCategoryRow(r.pool.QueryRow(ctx, query, c.ID, c.UserID, c.Name, c.Color))
}

// Delete removes the category; its sites keep existing uncategorised.
func (r *CategoryRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
