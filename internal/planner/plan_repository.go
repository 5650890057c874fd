package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"meal-plan-assistant/internal/database"
	"meal-plan-assistant/internal/recipe"
)

// StoredMeal is one persisted slot of a plan with its recipe resolved.
type StoredMeal struct {
	DayOfWeek string        `json:"dayOfWeek"`
	MealType  string        `json:"mealType"`
	Recipe    recipe.Recipe `json:"recipe"`
}

// StoredPlan is a persisted meal plan: the preferences it was generated
// from plus its slots in insertion order.
type StoredPlan struct {
	ID          int64        `json:"id"`
	Preferences string       `json:"preferences"`
	Meals       []StoredMeal `json:"meals"`
}

// SlotInsert names one slot to persist when creating a plan.
type SlotInsert struct {
	DayOfWeek string
	MealType  string
	RecipeID  string
}

// PlanRepository persists meal plans and their slots.
type PlanRepository struct {
	db *database.DB
}

func NewPlanRepository(db *database.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create stores a plan and its slots in a single transaction and returns
// the new plan id.
func (r *PlanRepository) Create(ctx context.Context, preferencesJSON string, slots []SlotInsert) (int64, error) {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning plan transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO meal_plans (preferences) VALUES (?)", preferencesJSON)
	if err != nil {
		return 0, fmt.Errorf("inserting meal plan: %w", err)
	}
	planID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading meal plan id: %w", err)
	}

	for _, s := range slots {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO meal_plan_recipes (meal_plan_id, recipe_id, day_of_week, meal_type)
			 VALUES (?, ?, ?, ?)`,
			planID, s.RecipeID, s.DayOfWeek, s.MealType)
		if err != nil {
			return 0, fmt.Errorf("inserting slot %s/%s: %w", s.DayOfWeek, s.MealType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing meal plan: %w", err)
	}
	return planID, nil
}

// Get loads a plan with its slots and resolved recipes, in the order the
// slots were inserted. Returns (nil, nil) when the plan does not exist.
func (r *PlanRepository) Get(ctx context.Context, planID int64) (*StoredPlan, error) {
	plan := &StoredPlan{ID: planID}
	err := r.db.SQL.QueryRowContext(ctx,
		"SELECT preferences FROM meal_plans WHERE id = ?", planID).
		Scan(&plan.Preferences)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading meal plan %d: %w", planID, err)
	}

	rows, err := r.db.SQL.QueryContext(ctx,
		`SELECT mpr.day_of_week, mpr.meal_type, r.id, r.name, r.data
		 FROM meal_plan_recipes mpr
		 JOIN recipes r ON r.id = mpr.recipe_id
		 WHERE mpr.meal_plan_id = ?
		 ORDER BY mpr.id`, planID)
	if err != nil {
		return nil, fmt.Errorf("loading slots for plan %d: %w", planID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var meal StoredMeal
		var id, name, data string
		if err := rows.Scan(&meal.DayOfWeek, &meal.MealType, &id, &name, &data); err != nil {
			return nil, fmt.Errorf("scanning slot: %w", err)
		}
		var rec recipe.Recipe
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			log.Printf("skipping slot with malformed recipe data for %q: %v", name, err)
			continue
		}
		rec.ID = id
		rec.Name = name
		meal.Recipe = rec
		plan.Meals = append(plan.Meals, meal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating slots: %w", err)
	}
	return plan, nil
}

// Latest returns the most recently created plan, or (nil, nil) when none
// exist yet.
func (r *PlanRepository) Latest(ctx context.Context) (*StoredPlan, error) {
	var planID int64
	err := r.db.SQL.QueryRowContext(ctx,
		"SELECT id FROM meal_plans ORDER BY id DESC LIMIT 1").Scan(&planID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding latest meal plan: %w", err)
	}
	return r.Get(ctx, planID)
}

// ReplaceSlot swaps the recipe in one day/meal-type slot. Delete plus
// insert inside one transaction, so the unique slot constraint holds and a
// failed swap leaves the plan unchanged.
func (r *PlanRepository) ReplaceSlot(ctx context.Context, planID int64, dayOfWeek, mealType, newRecipeID string) error {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning slot swap: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM meal_plan_recipes
		 WHERE meal_plan_id = ? AND day_of_week = ? AND meal_type = ?`,
		planID, dayOfWeek, mealType)
	if err != nil {
		return fmt.Errorf("clearing slot %s/%s: %w", dayOfWeek, mealType, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO meal_plan_recipes (meal_plan_id, recipe_id, day_of_week, meal_type)
		 VALUES (?, ?, ?, ?)`,
		planID, newRecipeID, dayOfWeek, mealType)
	if err != nil {
		return fmt.Errorf("filling slot %s/%s: %w", dayOfWeek, mealType, err)
	}
	return tx.Commit()
}

// AppendSlots adds slots to an existing plan inside one transaction. A slot
// that already exists for the same day and meal type is overwritten.
func (r *PlanRepository) AppendSlots(ctx context.Context, planID int64, slots []SlotInsert) error {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning slot append: %w", err)
	}
	defer tx.Rollback()

	for _, s := range slots {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO meal_plan_recipes (meal_plan_id, recipe_id, day_of_week, meal_type)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(meal_plan_id, day_of_week, meal_type) DO UPDATE SET recipe_id = excluded.recipe_id`,
			planID, s.RecipeID, s.DayOfWeek, s.MealType)
		if err != nil {
			return fmt.Errorf("appending slot %s/%s: %w", s.DayOfWeek, s.MealType, err)
		}
	}
	return tx.Commit()
}

// UpdatePreferences rewrites the stored preferences JSON of a plan.
func (r *PlanRepository) UpdatePreferences(ctx context.Context, planID int64, preferencesJSON string) error {
	_, err := r.db.SQL.ExecContext(ctx,
		"UPDATE meal_plans SET preferences = ? WHERE id = ?", preferencesJSON, planID)
	if err != nil {
		return fmt.Errorf("updating preferences for plan %d: %w", planID, err)
	}
	return nil
}
