package adaptive

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ErDashrath/PragatiPath-sub000/internal/irt"
	"github.com/ErDashrath/PragatiPath-sub000/internal/knowledge"
	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

// Configuration-level failures surfaced to the caller at session start.
var (
	ErrUnknownSubject  = errors.New("unknown subject code")
	ErrChapterMismatch = errors.New("chapter does not belong to subject")
	ErrSessionNotFound = errors.New("session not found")
)

// ProfileStore persists the per-student knowledge state: BKT skill states,
// the trend vector, and the final per-skill mastery map.
type ProfileStore interface {
	GetOrCreateSkillState(ctx context.Context, studentID int64, skillID string) (models.SkillMasteryState, error)
	SaveSkillState(ctx context.Context, state models.SkillMasteryState) error
	GetTrendState(ctx context.Context, studentID int64) (*models.TrendState, error)
	SaveTrendState(ctx context.Context, state *models.TrendState, skillID string) error
	SaveSkillMastery(ctx context.Context, studentID int64, skillID string, mastery float64, level string) error
}

// OutcomeStore applies every mutation one answer produces in a single
// atomic step, so a partial failure never leaves the skill state advanced
// against a session that still expects the answer.
type OutcomeStore interface {
	SaveAnswerOutcome(ctx context.Context, skill models.SkillMasteryState, trend *models.TrendState, session *models.LearningSession) error
}

// SessionStore persists learning sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.LearningSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.LearningSession, error)
	SaveSession(ctx context.Context, session *models.LearningSession) error
	ListByStudent(ctx context.Context, studentID int64, limit int) ([]models.LearningSession, error)
	ListExpiredActive(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// ItemStore is the read-mostly view of the item bank the orchestrator needs.
// The orchestrator never creates or deletes items; attempt counters are the
// only write path.
type ItemStore interface {
	GetSubjectByCode(ctx context.Context, code string) (*models.Subject, error)
	GetChapter(ctx context.Context, chapterID int64) (*models.Chapter, error)
	GetItem(ctx context.Context, itemID int64) (*models.Item, error)
	// CandidateItems returns active items for the subject/chapter, optionally
	// restricted to one difficulty bucket, excluding items served to the
	// student since the cutoff.
	CandidateItems(ctx context.Context, studentID int64, subject string, chapterID *int64, level *models.DifficultyLevel, servedSince time.Time) ([]models.Item, error)
	RecordExposure(ctx context.Context, studentID, itemID int64, at time.Time) error
	IncrementAttempt(ctx context.Context, itemID int64, correct bool) error
}

// CardEnroller creates the spaced-repetition card on a student's first
// exposure to an item. The review loop itself runs outside live sessions.
type CardEnroller interface {
	EnsureCard(ctx context.Context, studentID, itemID int64, now time.Time) error
}

// Orchestrator runs adaptive sessions end to end: it composes the BKT
// engine, the trend predictor, and IRT selection, and owns all mutation of
// session and profile state. Answer processing for one session is
// serialized by a per-session lock.
type Orchestrator struct {
	profiles  ProfileStore
	sessions  SessionStore
	outcomes  OutcomeStore
	items     ItemStore
	cards     CardEnroller
	predictor knowledge.Predictor
	selector  *irt.Selector
	cfg       Config

	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

func NewOrchestrator(profiles ProfileStore, sessions SessionStore, outcomes OutcomeStore, items ItemStore, cards CardEnroller, predictor knowledge.Predictor, cfg Config) *Orchestrator {
	return &Orchestrator{
		profiles:  profiles,
		sessions:  sessions,
		outcomes:  outcomes,
		items:     items,
		cards:     cards,
		predictor: predictor,
		selector:  irt.NewSelector(rand.New(rand.NewSource(time.Now().UnixNano()))),
		cfg:       cfg,
		locks:     make(map[uuid.UUID]*lockEntry),
	}
}

// lockEntry lives in the registry only while some caller holds or waits on
// it. The refcount keeps an entry from being deleted out from under a
// waiter, and sessions that are completed or simply abandoned leave no
// entry behind.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// acquireSession serializes mutations for one session.
func (o *Orchestrator) acquireSession(id uuid.UUID) *lockEntry {
	o.mu.Lock()
	entry, ok := o.locks[id]
	if !ok {
		entry = &lockEntry{}
		o.locks[id] = entry
	}
	entry.refs++
	o.mu.Unlock()

	entry.mu.Lock()
	return entry
}

func (o *Orchestrator) releaseSession(id uuid.UUID, entry *lockEntry) {
	entry.mu.Unlock()

	o.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(o.locks, id)
	}
	o.mu.Unlock()
}

// ── Session Start ───────────────────────────────────────

func (o *Orchestrator) StartSession(ctx context.Context, studentID int64, req models.StartSessionRequest) (*models.StartSessionResponse, error) {
	subject, err := o.items.GetSubjectByCode(ctx, req.Subject)
	if err != nil {
		return nil, fmt.Errorf("resolve subject %q: %w", req.Subject, ErrUnknownSubject)
	}

	skillID := subject.Code
	if req.ChapterID != nil {
		chapter, err := o.items.GetChapter(ctx, *req.ChapterID)
		if err != nil {
			return nil, fmt.Errorf("resolve chapter %d: %w", *req.ChapterID, ErrChapterMismatch)
		}
		if chapter.SubjectID != subject.ID {
			return nil, fmt.Errorf("chapter %d: %w", *req.ChapterID, ErrChapterMismatch)
		}
		skillID = chapter.SkillKey
	}

	skillState, err := o.profiles.GetOrCreateSkillState(ctx, studentID, skillID)
	if err != nil {
		return nil, fmt.Errorf("load skill state: %w", err)
	}
	trend, err := o.profiles.GetTrendState(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load trend state: %w", err)
	}

	combined := knowledge.Combine(skillState.PLearn, o.predictor.Predict(trend, skillID))
	startingDifficulty := InitialDifficulty(combined)

	maxQuestions := req.MaxQuestions
	if maxQuestions <= 0 {
		maxQuestions = o.cfg.DefaultMaxQuestions
	}

	now := time.Now()
	session := &models.LearningSession{
		ID:                uuid.New(),
		StudentID:         studentID,
		Subject:           subject.Code,
		ChapterID:         req.ChapterID,
		SkillID:           skillID,
		Status:            models.SessionActive,
		CurrentDifficulty: startingDifficulty,
		MaxQuestions:      maxQuestions,
		InitialMastery:    combined,
		DifficultyHistory: []models.DifficultyLevel{startingDifficulty},
		StartedAt:         now,
	}
	if req.TimeLimitMinutes > 0 {
		expires := now.Add(time.Duration(req.TimeLimitMinutes) * time.Minute)
		session.ExpiresAt = &expires
	}

	if err := o.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &models.StartSessionResponse{
		Success:            true,
		SessionID:          session.ID,
		SkillID:            skillID,
		InitialMastery:     combined,
		MasteryLevel:       string(knowledge.ClassifyLevel(combined)),
		StartingDifficulty: startingDifficulty,
		MaxQuestions:       maxQuestions,
	}, nil
}

// ── Question Selection ──────────────────────────────────

func (o *Orchestrator) NextQuestion(ctx context.Context, sessionID uuid.UUID) (*models.NextQuestionResponse, error) {
	entry := o.acquireSession(sessionID)
	defer o.releaseSession(sessionID, entry)

	session, err := o.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	if session.Status == models.SessionCompleted {
		return &models.NextQuestionResponse{Completed: true, EndReason: session.EndReason}, nil
	}

	if session.QuestionsAttempted >= session.MaxQuestions {
		if err := o.finalize(ctx, session, models.EndExhausted); err != nil {
			return nil, err
		}
		return &models.NextQuestionResponse{Completed: true, EndReason: models.EndExhausted}, nil
	}

	// An unanswered outstanding question is re-served as is, so retried
	// requests are idempotent.
	if session.CurrentItemID != nil {
		item, err := o.items.GetItem(ctx, *session.CurrentItemID)
		if err == nil {
			served := item.ToServedItem()
			return &models.NextQuestionResponse{
				QuestionNumber: session.QuestionsAttempted + 1,
				Question:       &served,
			}, nil
		}
		// Outstanding item vanished from the bank; fall through and pick anew.
		session.CurrentItemID = nil
	}

	item, err := o.selectItem(ctx, session)
	if err != nil {
		return nil, err
	}
	if item == nil {
		if err := o.finalize(ctx, session, models.EndNoContent); err != nil {
			return nil, err
		}
		return &models.NextQuestionResponse{Completed: true, EndReason: models.EndNoContent}, nil
	}

	now := time.Now()
	session.CurrentItemID = &item.ID
	if err := o.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if err := o.items.RecordExposure(ctx, session.StudentID, item.ID, now); err != nil {
		log.Printf("WARN: record exposure for item %d: %v", item.ID, err)
	}
	if o.cards != nil {
		if err := o.cards.EnsureCard(ctx, session.StudentID, item.ID, now); err != nil {
			log.Printf("WARN: enroll review card for item %d: %v", item.ID, err)
		}
	}

	served := item.ToServedItem()
	return &models.NextQuestionResponse{
		QuestionNumber: session.QuestionsAttempted + 1,
		Question:       &served,
	}, nil
}

// selectItem runs IRT selection at the session's current bucket, then the
// fixed fallback bucket order, then any active item for the subject.
// A nil item with nil error means the bank is exhausted for this student.
func (o *Orchestrator) selectItem(ctx context.Context, session *models.LearningSession) (*models.Item, error) {
	skillState, err := o.profiles.GetOrCreateSkillState(ctx, session.StudentID, session.SkillID)
	if err != nil {
		return nil, fmt.Errorf("load skill state: %w", err)
	}
	trend, err := o.profiles.GetTrendState(ctx, session.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load trend state: %w", err)
	}

	combined := knowledge.Combine(skillState.PLearn, o.predictor.Predict(trend, session.SkillID))
	theta := irt.ThetaFromMastery(combined)
	servedSince := time.Now().Add(-o.cfg.ExposureWindow)

	target := session.CurrentDifficulty
	buckets := append([]models.DifficultyLevel{target}, FallbackOrder(target)...)

	for _, level := range buckets {
		candidates, err := o.items.CandidateItems(ctx, session.StudentID, session.Subject, session.ChapterID, &level, servedSince)
		if err != nil {
			return nil, fmt.Errorf("query items (%s): %w", level, err)
		}
		if picked := o.selector.Select(candidates, theta); picked != nil {
			return picked, nil
		}
	}

	// Last resort: any active item for the subject regardless of difficulty.
	candidates, err := o.items.CandidateItems(ctx, session.StudentID, session.Subject, session.ChapterID, nil, servedSince)
	if err != nil {
		return nil, fmt.Errorf("query items (any): %w", err)
	}
	return o.selector.Select(candidates, theta), nil
}

// ── Answer Processing ───────────────────────────────────

func (o *Orchestrator) SubmitAnswer(ctx context.Context, sessionID uuid.UUID, req models.SessionAnswerRequest) (*models.SessionAnswerResponse, error) {
	entry := o.acquireSession(sessionID)
	defer o.releaseSession(sessionID, entry)

	session, err := o.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	if session.Status == models.SessionCompleted {
		return &models.SessionAnswerResponse{
			Success:   false,
			Message:   "session is already completed",
			Completed: true,
			EndReason: session.EndReason,
		}, nil
	}
	if session.CurrentItemID == nil || *session.CurrentItemID != req.ItemID {
		return &models.SessionAnswerResponse{
			Success: false,
			Message: "item is not the session's outstanding question",
		}, nil
	}

	item, err := o.items.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("load item %d: %w", req.ItemID, err)
	}

	correct := req.SelectedOptionID == item.CorrectOptionID

	skillState, err := o.profiles.GetOrCreateSkillState(ctx, session.StudentID, session.SkillID)
	if err != nil {
		return nil, fmt.Errorf("load skill state: %w", err)
	}
	trend, err := o.profiles.GetTrendState(ctx, session.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load trend state: %w", err)
	}

	updatedSkill, ok := knowledge.Update(skillState, correct)
	if !ok {
		log.Printf("WARN: degenerate BKT denominator for student=%d skill=%s, mastery held at %f",
			session.StudentID, session.SkillID, skillState.PLearn)
	}
	trendPrediction := o.predictor.Update(trend, session.SkillID, correct)
	combined := knowledge.Combine(updatedSkill.PLearn, trendPrediction)

	// Session bookkeeping: the progression and history sequences only grow.
	session.MasteryProgression = append(session.MasteryProgression, combined)
	if correct {
		session.CorrectCount++
		session.ConsecutiveCorrect++
		session.ConsecutiveIncorrect = 0
	} else {
		session.ConsecutiveIncorrect++
		session.ConsecutiveCorrect = 0
	}

	nextDifficulty := o.cfg.NextDifficulty(session.CurrentDifficulty, session.ConsecutiveCorrect, session.ConsecutiveIncorrect, combined)
	session.CurrentDifficulty = nextDifficulty
	session.DifficultyHistory = append(session.DifficultyHistory, nextDifficulty)
	session.QuestionsAttempted++
	session.CurrentItemID = nil

	completed := false
	var endReason models.EndReason
	if combined > o.cfg.MasteryExitThreshold {
		completed, endReason = true, models.EndMastered
	} else if session.QuestionsAttempted >= session.MaxQuestions {
		completed, endReason = true, models.EndExhausted
	}
	if completed {
		markCompleted(session, endReason)
	}

	// Skill, trend, and session land in one transaction. A failure leaves
	// the outstanding question in place, so the client's retry replays the
	// answer against unchanged state instead of compounding the update.
	if err := o.outcomes.SaveAnswerOutcome(ctx, updatedSkill, trend, session); err != nil {
		return nil, fmt.Errorf("save answer outcome: %w", err)
	}
	if completed {
		o.recordFinalMastery(ctx, session)
	}

	if err := o.items.IncrementAttempt(ctx, item.ID, correct); err != nil {
		log.Printf("WARN: increment attempt counters for item %d: %v", item.ID, err)
	}

	return &models.SessionAnswerResponse{
		Success:         true,
		Correct:         correct,
		CorrectOptionID: item.CorrectOptionID,
		Explanation:     item.Explanation,
		BKTMastery:      updatedSkill.PLearn,
		TrendPrediction: trendPrediction,
		CombinedMastery: combined,
		MasteryLevel:    string(knowledge.ClassifyLevel(combined)),
		NextDifficulty:  nextDifficulty,
		Completed:       completed,
		EndReason:       endReason,
	}, nil
}

// ── Completion ──────────────────────────────────────────

// markCompleted freezes the session's completion fields in memory.
func markCompleted(session *models.LearningSession, reason models.EndReason) {
	now := time.Now()
	session.Status = models.SessionCompleted
	session.EndReason = reason
	session.CurrentItemID = nil
	session.CompletedAt = &now
}

// recordFinalMastery writes the completed session's final mastery into the
// student's per-skill profile.
func (o *Orchestrator) recordFinalMastery(ctx context.Context, session *models.LearningSession) {
	final := finalMastery(session)
	level := string(knowledge.ClassifyLevel(final))
	if err := o.profiles.SaveSkillMastery(ctx, session.StudentID, session.SkillID, final, level); err != nil {
		log.Printf("WARN: persist final mastery for student=%d skill=%s: %v", session.StudentID, session.SkillID, err)
	}
	log.Printf("[session] %s completed: reason=%s attempted=%d correct=%d mastery=%.3f",
		session.ID, session.EndReason, session.QuestionsAttempted, session.CorrectCount, final)
}

// finalize ends a session outside of answer processing. Forced completion
// (time limit, external cancellation, an exhausted bank) goes through this
// path.
func (o *Orchestrator) finalize(ctx context.Context, session *models.LearningSession, reason models.EndReason) error {
	markCompleted(session, reason)
	if err := o.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("save completed session: %w", err)
	}
	o.recordFinalMastery(ctx, session)
	return nil
}

// ForceComplete ends a session early through the normal finalize path.
func (o *Orchestrator) ForceComplete(ctx context.Context, sessionID uuid.UUID, reason models.EndReason) error {
	entry := o.acquireSession(sessionID)
	defer o.releaseSession(sessionID, entry)

	session, err := o.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return ErrSessionNotFound
	}
	if session.Status == models.SessionCompleted {
		return nil
	}
	return o.finalize(ctx, session, reason)
}

// ExpireStale force-completes active sessions whose time limit has passed.
// Called from the background sweeper.
func (o *Orchestrator) ExpireStale(ctx context.Context, now time.Time) int {
	ids, err := o.sessions.ListExpiredActive(ctx, now)
	if err != nil {
		log.Printf("[sweeper] list expired sessions: %v", err)
		return 0
	}

	expired := 0
	for _, id := range ids {
		if err := o.ForceComplete(ctx, id, models.EndExpired); err != nil {
			log.Printf("[sweeper] expire session %s: %v", id, err)
			continue
		}
		expired++
	}
	return expired
}

// ── Introspection ───────────────────────────────────────

func (o *Orchestrator) GetSummary(ctx context.Context, sessionID uuid.UUID) (*models.SessionSummary, error) {
	session, err := o.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	summary := BuildSummary(session)
	return &summary, nil
}

func (o *Orchestrator) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.LearningSession, error) {
	session, err := o.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (o *Orchestrator) ListSessions(ctx context.Context, studentID int64, limit int) ([]models.LearningSession, error) {
	return o.sessions.ListByStudent(ctx, studentID, limit)
}
