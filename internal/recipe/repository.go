package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// Repository is a database-backed repository for recipes. Each row stores the
// recipe as a JSON blob alongside its unique name for lookups.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts or updates a recipe in the database.
func (r *Repository) Save(ctx context.Context, rec Recipe) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recipes (id, name, data, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, data = excluded.data`,
		rec.ID, rec.Name, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe %q: %w", rec.Name, err)
	}
	return nil
}

// GetByID retrieves a recipe by its ID. Returns (nil, nil) when not found.
func (r *Repository) GetByID(ctx context.Context, id string) (*Recipe, error) {
	return r.getOne(ctx, `SELECT data FROM recipes WHERE id = ?`, id)
}

// GetByName retrieves a recipe by its unique name. Returns (nil, nil) when
// not found.
func (r *Repository) GetByName(ctx context.Context, name string) (*Recipe, error) {
	return r.getOne(ctx, `SELECT data FROM recipes WHERE name = ?`, name)
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (*Recipe, error) {
	var data string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Recipe not found
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}
	return &rec, nil
}

// GetByNames retrieves multiple recipes by name. Names with no matching row
// are silently absent from the result.
func (r *Repository) GetByNames(ctx context.Context, names []string) ([]Recipe, error) {
	if len(names) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(names)), ",")
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM recipes WHERE name IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes by names: %w", err)
	}
	defer rows.Close()

	return scanRecipes(rows)
}

// List retrieves all recipes.
func (r *Repository) List(ctx context.Context) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM recipes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	return scanRecipes(rows)
}

// Count returns the number of recipes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

func scanRecipes(rows *sql.Rows) ([]Recipe, error) {
	var recipes []Recipe
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		var rec Recipe
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			log.Printf("Warning: failed to unmarshal recipe JSON: %v", err)
			continue
		}
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}
