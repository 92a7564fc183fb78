package adaptive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ErDashrath/PragatiPath-sub000/internal/knowledge"
	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

// Store is the Postgres implementation of ProfileStore, SessionStore, and
// OutcomeStore.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// execer is satisfied by *sql.DB and *sql.Tx, so the write helpers run
// both standalone and inside SaveAnswerOutcome's transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ── Skill States ────────────────────────────────────────

func (s *Store) GetOrCreateSkillState(ctx context.Context, studentID int64, skillID string) (models.SkillMasteryState, error) {
	var state models.SkillMasteryState
	err := s.db.QueryRowContext(ctx,
		`SELECT student_id, skill_id, p_learn, p_transit, p_slip, p_guess, updated_at
		 FROM skill_states WHERE student_id = $1 AND skill_id = $2`,
		studentID, skillID,
	).Scan(&state.StudentID, &state.SkillID, &state.PLearn, &state.PTransit,
		&state.PSlip, &state.PGuess, &state.UpdatedAt)
	if err == nil {
		return state, nil
	}
	if err != sql.ErrNoRows {
		return state, fmt.Errorf("get skill state: %w", err)
	}

	state = knowledge.DefaultSkillParams(studentID, skillID)
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO skill_states (student_id, skill_id, p_learn, p_transit, p_slip, p_guess)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (student_id, skill_id) DO UPDATE SET skill_id = EXCLUDED.skill_id
		 RETURNING updated_at`,
		state.StudentID, state.SkillID, state.PLearn, state.PTransit, state.PSlip, state.PGuess,
	).Scan(&state.UpdatedAt)
	if err != nil {
		return state, fmt.Errorf("create skill state: %w", err)
	}
	return state, nil
}

func (s *Store) SaveSkillState(ctx context.Context, state models.SkillMasteryState) error {
	return saveSkillState(ctx, s.db, state)
}

func saveSkillState(ctx context.Context, ex execer, state models.SkillMasteryState) error {
	_, err := ex.ExecContext(ctx,
		`UPDATE skill_states
		 SET p_learn = $1, p_transit = $2, p_slip = $3, p_guess = $4, updated_at = NOW()
		 WHERE student_id = $5 AND skill_id = $6`,
		state.PLearn, state.PTransit, state.PSlip, state.PGuess, state.StudentID, state.SkillID,
	)
	if err != nil {
		return fmt.Errorf("save skill state: %w", err)
	}
	return nil
}

// ── Trend State ─────────────────────────────────────────

// Trend predictions and histories are stored as JSONB documents keyed by
// student. A missing row yields an empty state, not an error.
func (s *Store) GetTrendState(ctx context.Context, studentID int64) (*models.TrendState, error) {
	var predictionsRaw, historyRaw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT predictions, history FROM trend_states WHERE student_id = $1`,
		studentID,
	).Scan(&predictionsRaw, &historyRaw)
	if err == sql.ErrNoRows {
		return &models.TrendState{StudentID: studentID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get trend state: %w", err)
	}

	state := &models.TrendState{StudentID: studentID}
	if err := json.Unmarshal(predictionsRaw, &state.Predictions); err != nil {
		return nil, fmt.Errorf("decode trend predictions: %w", err)
	}
	if err := json.Unmarshal(historyRaw, &state.History); err != nil {
		return nil, fmt.Errorf("decode trend history: %w", err)
	}
	return state, nil
}

func (s *Store) SaveTrendState(ctx context.Context, state *models.TrendState, _ string) error {
	return saveTrendState(ctx, s.db, state)
}

func saveTrendState(ctx context.Context, ex execer, state *models.TrendState) error {
	predictionsRaw, err := json.Marshal(state.Predictions)
	if err != nil {
		return fmt.Errorf("encode trend predictions: %w", err)
	}
	historyRaw, err := json.Marshal(state.History)
	if err != nil {
		return fmt.Errorf("encode trend history: %w", err)
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO trend_states (student_id, predictions, history, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (student_id)
		 DO UPDATE SET predictions = EXCLUDED.predictions, history = EXCLUDED.history, updated_at = NOW()`,
		state.StudentID, predictionsRaw, historyRaw,
	)
	if err != nil {
		return fmt.Errorf("save trend state: %w", err)
	}
	return nil
}

// ── Mastery Profile ─────────────────────────────────────

func (s *Store) SaveSkillMastery(ctx context.Context, studentID int64, skillID string, mastery float64, level string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO skill_mastery (student_id, skill_id, mastery, level, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (student_id, skill_id)
		 DO UPDATE SET mastery = EXCLUDED.mastery, level = EXCLUDED.level, updated_at = NOW()`,
		studentID, skillID, mastery, level,
	)
	if err != nil {
		return fmt.Errorf("save skill mastery: %w", err)
	}
	return nil
}

func (s *Store) GetMasteryProfile(ctx context.Context, studentID int64) ([]models.SkillMastery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT skill_id, mastery, level, updated_at
		 FROM skill_mastery WHERE student_id = $1 ORDER BY skill_id`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("get mastery profile: %w", err)
	}
	defer rows.Close()

	var skills []models.SkillMastery
	for rows.Next() {
		var m models.SkillMastery
		if err := rows.Scan(&m.SkillID, &m.Mastery, &m.Level, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan skill mastery: %w", err)
		}
		skills = append(skills, m)
	}
	return skills, rows.Err()
}

// ── Sessions ────────────────────────────────────────────

const sessionColumns = `id, student_id, subject, chapter_id, skill_id, status, end_reason,
	        current_difficulty, current_item_id, max_questions, questions_attempted,
	        correct_count, consecutive_correct, consecutive_incorrect, initial_mastery,
	        mastery_progression, difficulty_history, started_at, expires_at, completed_at`

func (s *Store) CreateSession(ctx context.Context, session *models.LearningSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO learning_sessions
		 (id, student_id, subject, chapter_id, skill_id, status, end_reason,
		  current_difficulty, current_item_id, max_questions, questions_attempted,
		  correct_count, consecutive_correct, consecutive_incorrect, initial_mastery,
		  mastery_progression, difficulty_history, started_at, expires_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		session.ID, session.StudentID, session.Subject, session.ChapterID, session.SkillID,
		session.Status, nullEndReason(session.EndReason), session.CurrentDifficulty,
		session.CurrentItemID, session.MaxQuestions, session.QuestionsAttempted,
		session.CorrectCount, session.ConsecutiveCorrect, session.ConsecutiveIncorrect,
		session.InitialMastery, pq.Array(session.MasteryProgression),
		pq.Array(difficultyStrings(session.DifficultyHistory)),
		session.StartedAt, session.ExpiresAt, session.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*models.LearningSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM learning_sessions WHERE id = $1`, id)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *Store) SaveSession(ctx context.Context, session *models.LearningSession) error {
	return saveSession(ctx, s.db, session)
}

func saveSession(ctx context.Context, ex execer, session *models.LearningSession) error {
	_, err := ex.ExecContext(ctx,
		`UPDATE learning_sessions
		 SET status = $1, end_reason = $2, current_difficulty = $3, current_item_id = $4,
		     questions_attempted = $5, correct_count = $6, consecutive_correct = $7,
		     consecutive_incorrect = $8, mastery_progression = $9, difficulty_history = $10,
		     completed_at = $11
		 WHERE id = $12`,
		session.Status, nullEndReason(session.EndReason), session.CurrentDifficulty,
		session.CurrentItemID, session.QuestionsAttempted, session.CorrectCount,
		session.ConsecutiveCorrect, session.ConsecutiveIncorrect,
		pq.Array(session.MasteryProgression),
		pq.Array(difficultyStrings(session.DifficultyHistory)),
		session.CompletedAt, session.ID,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SaveAnswerOutcome commits the skill state, trend state, and session
// mutations of one answer together. If any write fails nothing persists,
// so the outstanding question survives for the client's retry.
func (s *Store) SaveAnswerOutcome(ctx context.Context, skill models.SkillMasteryState, trend *models.TrendState, session *models.LearningSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin answer outcome: %w", err)
	}
	defer tx.Rollback()

	if err := saveSkillState(ctx, tx, skill); err != nil {
		return err
	}
	if err := saveTrendState(ctx, tx, trend); err != nil {
		return err
	}
	if err := saveSession(ctx, tx, session); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit answer outcome: %w", err)
	}
	return nil
}

func (s *Store) ListByStudent(ctx context.Context, studentID int64, limit int) ([]models.LearningSession, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM learning_sessions
		 WHERE student_id = $1 ORDER BY started_at DESC LIMIT $2`,
		studentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.LearningSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

func (s *Store) ListExpiredActive(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM learning_sessions
		 WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < $2`,
		models.SessionActive, now,
	)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ── Scan Helpers ────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*models.LearningSession, error) {
	var session models.LearningSession
	var endReason sql.NullString
	var progression []float64
	var history []string

	err := row.Scan(
		&session.ID, &session.StudentID, &session.Subject, &session.ChapterID,
		&session.SkillID, &session.Status, &endReason, &session.CurrentDifficulty,
		&session.CurrentItemID, &session.MaxQuestions, &session.QuestionsAttempted,
		&session.CorrectCount, &session.ConsecutiveCorrect, &session.ConsecutiveIncorrect,
		&session.InitialMastery, pq.Array(&progression), pq.Array(&history),
		&session.StartedAt, &session.ExpiresAt, &session.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if endReason.Valid {
		session.EndReason = models.EndReason(endReason.String)
	}
	session.MasteryProgression = progression
	session.DifficultyHistory = make([]models.DifficultyLevel, len(history))
	for i, level := range history {
		session.DifficultyHistory[i] = models.DifficultyLevel(level)
	}
	return &session, nil
}

func nullEndReason(reason models.EndReason) sql.NullString {
	if reason == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(reason), Valid: true}
}

func difficultyStrings(levels []models.DifficultyLevel) []string {
	out := make([]string, len(levels))
	for i, level := range levels {
		out[i] = string(level)
	}
	return out
}
