package srs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const cardColumns = `id, student_id, item_id, ease_factor, interval_days, repetition,
	        stage, correct_streak, total_reviews, last_quality, due_date,
	        suspended, created_at, updated_at`

// EnsureCard creates the review card on a student's first exposure to an
// item. Re-exposure is a no-op.
func (s *Store) EnsureCard(ctx context.Context, studentID, itemID int64, now time.Time) error {
	card := NewCard(studentID, itemID, now)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO review_cards
		 (student_id, item_id, ease_factor, interval_days, repetition, stage, due_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (student_id, item_id) DO NOTHING`,
		card.StudentID, card.ItemID, card.EaseFactor, card.IntervalDays,
		card.Repetition, card.Stage, card.DueDate,
	)
	if err != nil {
		return fmt.Errorf("ensure card: %w", err)
	}
	return nil
}

func (s *Store) GetCard(ctx context.Context, cardID int64) (*models.ReviewCard, error) {
	var card models.ReviewCard
	err := s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM review_cards WHERE id = $1`, cardID,
	).Scan(&card.ID, &card.StudentID, &card.ItemID, &card.EaseFactor, &card.IntervalDays,
		&card.Repetition, &card.Stage, &card.CorrectStreak, &card.TotalReviews,
		&card.LastQuality, &card.DueDate, &card.Suspended, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get card %d: %w", cardID, err)
	}
	return &card, nil
}

func (s *Store) SaveCard(ctx context.Context, card models.ReviewCard) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE review_cards
		 SET ease_factor = $1, interval_days = $2, repetition = $3, stage = $4,
		     correct_streak = $5, total_reviews = $6, last_quality = $7,
		     due_date = $8, suspended = $9, updated_at = $10
		 WHERE id = $11`,
		card.EaseFactor, card.IntervalDays, card.Repetition, card.Stage,
		card.CorrectStreak, card.TotalReviews, card.LastQuality,
		card.DueDate, card.Suspended, card.UpdatedAt, card.ID,
	)
	if err != nil {
		return fmt.Errorf("save card: %w", err)
	}
	return nil
}

// ListDue returns every card of the student due at or before now.
// Suspended and burned cards never appear. No limit is applied here: the
// service ranks by priority score first and truncates after, so a
// late-enrolled high-priority card is never cut by an oldest-due page.
func (s *Store) ListDue(ctx context.Context, studentID int64, now time.Time) ([]models.ReviewCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM review_cards
		 WHERE student_id = $1 AND due_date <= $2
		   AND suspended = FALSE AND stage <> $3
		 ORDER BY due_date ASC`,
		studentID, now, models.StageBurned,
	)
	if err != nil {
		return nil, fmt.Errorf("list due cards: %w", err)
	}
	defer rows.Close()

	var cards []models.ReviewCard
	for rows.Next() {
		var card models.ReviewCard
		if err := rows.Scan(&card.ID, &card.StudentID, &card.ItemID, &card.EaseFactor,
			&card.IntervalDays, &card.Repetition, &card.Stage, &card.CorrectStreak,
			&card.TotalReviews, &card.LastQuality, &card.DueDate, &card.Suspended,
			&card.CreatedAt, &card.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (s *Store) SetSuspended(ctx context.Context, cardID int64, suspended bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE review_cards SET suspended = $1, updated_at = NOW() WHERE id = $2`,
		suspended, cardID,
	)
	if err != nil {
		return fmt.Errorf("set suspended: %w", err)
	}
	return nil
}

func (s *Store) CountByStage(ctx context.Context, studentID int64) (map[models.ReviewStage]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, COUNT(*) FROM review_cards
		 WHERE student_id = $1 GROUP BY stage`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("count by stage: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ReviewStage]int)
	for rows.Next() {
		var stage models.ReviewStage
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("scan stage count: %w", err)
		}
		counts[stage] = n
	}
	return counts, rows.Err()
}
