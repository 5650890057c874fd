package telegram

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"meal-plan-assistant/internal/database"
)

// Session tracks one user's conversation state: the plan currently being
// discussed and the preferences accumulated across messages.
type Session struct {
	ID          int64
	UserID      int64
	MealPlanID  sql.NullInt64
	Preferences string
	UpdatedAt   time.Time
}

// SessionRepository persists chat sessions, one per Telegram user.
type SessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get returns the session for a user, or (nil, nil) when they have none.
func (sr *SessionRepository) Get(ctx context.Context, userID int64) (*Session, error) {
	var s Session
	err := sr.db.SQL.QueryRowContext(ctx,
		`SELECT id, user_id, meal_plan_id, preferences, updated_at
		 FROM sessions WHERE user_id = ?`, userID).
		Scan(&s.ID, &s.UserID, &s.MealPlanID, &s.Preferences, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session for user %d: %w", userID, err)
	}
	return &s, nil
}

// Upsert stores the user's active plan and preferences, creating the
// session on first contact.
func (sr *SessionRepository) Upsert(ctx context.Context, userID, mealPlanID int64, preferencesJSON string) error {
	_, err := sr.db.SQL.ExecContext(ctx,
		`INSERT INTO sessions (user_id, meal_plan_id, preferences, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   meal_plan_id = excluded.meal_plan_id,
		   preferences = excluded.preferences,
		   updated_at = excluded.updated_at`,
		userID, mealPlanID, preferencesJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upserting session for user %d: %w", userID, err)
	}
	return nil
}

// Clear drops a user's session, so their next message starts fresh.
func (sr *SessionRepository) Clear(ctx context.Context, userID int64) error {
	_, err := sr.db.SQL.ExecContext(ctx,
		"DELETE FROM sessions WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("clearing session for user %d: %w", userID, err)
	}
	return nil
}
