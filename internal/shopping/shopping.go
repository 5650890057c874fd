// Package shopping persists the aggregated grocery list attached to a meal
// plan.
package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"meal-plan-assistant/internal/database"
)

// ShoppingList is the stored grocery list for one meal plan.
type ShoppingList struct {
	ID         int64     `json:"id"`
	MealPlanID int64     `json:"mealPlanId"`
	Items      []string  `json:"items"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Replace swaps the stored list for a plan with a fresh one. Old list and
// new list change over in a single transaction.
func (r *Repository) Replace(ctx context.Context, mealPlanID int64, items []string) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding shopping list items: %w", err)
	}

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning shopping list update: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM shopping_lists WHERE meal_plan_id = ?", mealPlanID)
	if err != nil {
		return fmt.Errorf("clearing shopping list for plan %d: %w", mealPlanID, err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO shopping_lists (meal_plan_id, items) VALUES (?, ?)",
		mealPlanID, string(data))
	if err != nil {
		return fmt.Errorf("saving shopping list for plan %d: %w", mealPlanID, err)
	}
	return tx.Commit()
}

// GetByMealPlanID returns the stored list for a plan, or (nil, nil) when
// none exists.
func (r *Repository) GetByMealPlanID(ctx context.Context, mealPlanID int64) (*ShoppingList, error) {
	var (
		list ShoppingList
		raw  string
	)
	err := r.db.SQL.QueryRowContext(ctx,
		`SELECT id, meal_plan_id, items, created_at
		 FROM shopping_lists WHERE meal_plan_id = ?`, mealPlanID).
		Scan(&list.ID, &list.MealPlanID, &raw, &list.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading shopping list for plan %d: %w", mealPlanID, err)
	}
	if err := json.Unmarshal([]byte(raw), &list.Items); err != nil {
		return nil, fmt.Errorf("decoding shopping list items: %w", err)
	}
	return &list, nil
}
