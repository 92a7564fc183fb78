package items

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

// Store reads the item bank. Items are authored out of band; the only
// writes here are exposure rows and the aggregate attempt counters.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Subjects and Chapters ───────────────────────────────

func (s *Store) GetSubjectByCode(ctx context.Context, code string) (*models.Subject, error) {
	var subject models.Subject
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, name, created_at FROM subjects WHERE code = $1`,
		code,
	).Scan(&subject.ID, &subject.Code, &subject.Name, &subject.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get subject %q: %w", code, err)
	}
	return &subject, nil
}

func (s *Store) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, name, created_at FROM subjects ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []models.Subject
	for rows.Next() {
		var subject models.Subject
		if err := rows.Scan(&subject.ID, &subject.Code, &subject.Name, &subject.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

func (s *Store) GetChapter(ctx context.Context, chapterID int64) (*models.Chapter, error) {
	var chapter models.Chapter
	err := s.db.QueryRowContext(ctx,
		`SELECT id, subject_id, name, skill_key, created_at FROM chapters WHERE id = $1`,
		chapterID,
	).Scan(&chapter.ID, &chapter.SubjectID, &chapter.Name, &chapter.SkillKey, &chapter.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get chapter %d: %w", chapterID, err)
	}
	return &chapter, nil
}

func (s *Store) ListChapters(ctx context.Context, subjectID int64) ([]models.Chapter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject_id, name, skill_key, created_at
		 FROM chapters WHERE subject_id = $1 ORDER BY id`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []models.Chapter
	for rows.Next() {
		var chapter models.Chapter
		if err := rows.Scan(&chapter.ID, &chapter.SubjectID, &chapter.Name, &chapter.SkillKey, &chapter.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		chapters = append(chapters, chapter)
	}
	return chapters, rows.Err()
}

// ── Items ───────────────────────────────────────────────

const itemColumns = `i.id, i.subject, i.chapter_id, i.skill_id, i.question_text,
	        i.correct_option_id, i.explanation, i.irt_difficulty, i.irt_discrimination,
	        i.irt_guessing, i.difficulty_level, i.is_active, i.times_attempted,
	        i.times_correct, i.created_at`

func (s *Store) GetItem(ctx context.Context, itemID int64) (*models.Item, error) {
	var item models.Item
	err := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items i WHERE i.id = $1`,
		itemID,
	).Scan(&item.ID, &item.Subject, &item.ChapterID, &item.SkillID, &item.QuestionText,
		&item.CorrectOptionID, &item.Explanation, &item.Difficulty, &item.Discrimination,
		&item.Guessing, &item.DifficultyLevel, &item.IsActive, &item.TimesAttempted,
		&item.TimesCorrect, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", itemID, err)
	}
	if err := s.loadOptions(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CandidateItems returns active items matching the subject, optional
// chapter, and optional difficulty bucket, excluding anything served to the
// student since the cutoff.
func (s *Store) CandidateItems(ctx context.Context, studentID int64, subject string, chapterID *int64, level *models.DifficultyLevel, servedSince time.Time) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + `
		 FROM items i
		 WHERE i.is_active = TRUE AND i.subject = $1
		   AND NOT EXISTS (
		       SELECT 1 FROM item_exposures e
		       WHERE e.item_id = i.id AND e.student_id = $2 AND e.served_at > $3
		   )`
	args := []interface{}{subject, studentID, servedSince}

	if chapterID != nil {
		args = append(args, *chapterID)
		query += fmt.Sprintf(" AND i.chapter_id = $%d", len(args))
	}
	if level != nil {
		args = append(args, *level)
		query += fmt.Sprintf(" AND i.difficulty_level = $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidate items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Subject, &item.ChapterID, &item.SkillID,
			&item.QuestionText, &item.CorrectOptionID, &item.Explanation, &item.Difficulty,
			&item.Discrimination, &item.Guessing, &item.DifficultyLevel, &item.IsActive,
			&item.TimesAttempted, &item.TimesCorrect, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		if err := s.loadOptions(ctx, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *Store) loadOptions(ctx context.Context, item *models.Item) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, item_id, option_id, option_text, is_correct
		 FROM item_options WHERE item_id = $1 ORDER BY option_id`,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("load options for item %d: %w", item.ID, err)
	}
	defer rows.Close()

	item.Options = nil
	for rows.Next() {
		var opt models.ItemOption
		if err := rows.Scan(&opt.ID, &opt.ItemID, &opt.OptionID, &opt.OptionText, &opt.IsCorrect); err != nil {
			return fmt.Errorf("scan option: %w", err)
		}
		item.Options = append(item.Options, opt)
	}
	return rows.Err()
}

// ── Exposure and Counters ───────────────────────────────

func (s *Store) RecordExposure(ctx context.Context, studentID, itemID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO item_exposures (student_id, item_id, served_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (student_id, item_id) DO UPDATE SET served_at = EXCLUDED.served_at`,
		studentID, itemID, at,
	)
	if err != nil {
		return fmt.Errorf("record exposure: %w", err)
	}
	return nil
}

func (s *Store) IncrementAttempt(ctx context.Context, itemID int64, correct bool) error {
	correctDelta := 0
	if correct {
		correctDelta = 1
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE items
		 SET times_attempted = times_attempted + 1, times_correct = times_correct + $1
		 WHERE id = $2`,
		correctDelta, itemID,
	)
	if err != nil {
		return fmt.Errorf("increment attempt: %w", err)
	}
	return nil
}
