package srs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

var (
	ErrCardNotFound  = errors.New("review card not found")
	ErrNotCardOwner  = errors.New("card belongs to another student")
	ErrCardSuspended = errors.New("card is suspended")
	ErrCardBurned    = errors.New("card is burned")
)

// CardStore is the persistence surface the review service needs.
type CardStore interface {
	GetCard(ctx context.Context, cardID int64) (*models.ReviewCard, error)
	SaveCard(ctx context.Context, card models.ReviewCard) error
	ListDue(ctx context.Context, studentID int64, now time.Time) ([]models.ReviewCard, error)
	SetSuspended(ctx context.Context, cardID int64, suspended bool) error
	CountByStage(ctx context.Context, studentID int64) (map[models.ReviewStage]int, error)
}

// ItemSource resolves the item a card refers to, for building the review
// question view. Cards whose item vanished are served without a question.
type ItemSource interface {
	GetItem(ctx context.Context, itemID int64) (*models.Item, error)
}

// Service runs the review loop: due-queue assembly ordered by priority and
// review submission through the SM-2 scheduler.
type Service struct {
	store     CardStore
	items     ItemSource
	scheduler *Scheduler
}

func NewService(store CardStore, items ItemSource) *Service {
	return &Service{store: store, items: items, scheduler: NewScheduler()}
}

// DueCards returns the student's due queue, highest priority first. The
// limit cuts the queue only after the priority sort, so the batch is the
// top of the ranking rather than the oldest-due page.
func (s *Service) DueCards(ctx context.Context, studentID int64, limit int, withQuestions bool) (*models.DueCardListResponse, error) {
	now := time.Now()
	cards, err := s.store.ListDue(ctx, studentID, now)
	if err != nil {
		return nil, fmt.Errorf("load due cards: %w", err)
	}

	sort.SliceStable(cards, func(i, j int) bool {
		return PriorityScore(cards[i], now) > PriorityScore(cards[j], now)
	})
	if limit <= 0 {
		limit = 50
	}
	if len(cards) > limit {
		cards = cards[:limit]
	}

	views := make([]models.DueCardView, 0, len(cards))
	for _, card := range cards {
		view := models.DueCardView{
			CardID:       card.ID,
			ItemID:       card.ItemID,
			Stage:        card.Stage,
			EaseFactor:   card.EaseFactor,
			IntervalDays: card.IntervalDays,
			DueDate:      card.DueDate,
			Priority:     PriorityScore(card, now),
		}
		if withQuestions && s.items != nil {
			item, err := s.items.GetItem(ctx, card.ItemID)
			if err != nil {
				log.Printf("WARN: item %d for card %d unavailable: %v", card.ItemID, card.ID, err)
			} else {
				served := item.ToServedItem()
				view.Question = &served
			}
		}
		views = append(views, view)
	}

	return &models.DueCardListResponse{Cards: views, Total: len(views)}, nil
}

// SubmitReview applies one graded recall to the student's card.
func (s *Service) SubmitReview(ctx context.Context, studentID, cardID int64, req models.SubmitReviewRequest) (*models.ReviewResultResponse, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, ErrCardNotFound
	}
	if card.StudentID != studentID {
		return nil, ErrNotCardOwner
	}
	if card.Suspended {
		return nil, ErrCardSuspended
	}
	if card.Stage == models.StageBurned {
		return nil, ErrCardBurned
	}

	before := card.Stage
	updated := s.scheduler.ProcessReview(*card, req.Quality, req.ResponseTimeMs, time.Now())
	if err := s.store.SaveCard(ctx, updated); err != nil {
		return nil, fmt.Errorf("save reviewed card: %w", err)
	}

	return &models.ReviewResultResponse{
		Card:         updated,
		Correct:      req.Quality >= PassThreshold,
		StageChanged: updated.Stage != before,
		NextReviewAt: updated.DueDate,
	}, nil
}

// ResetCard returns a burned card to the start of the progression.
func (s *Service) ResetCard(ctx context.Context, studentID, cardID int64) (*models.ReviewCard, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, ErrCardNotFound
	}
	if card.StudentID != studentID {
		return nil, ErrNotCardOwner
	}

	reset := s.scheduler.ResetCard(*card, time.Now())
	if err := s.store.SaveCard(ctx, reset); err != nil {
		return nil, fmt.Errorf("save reset card: %w", err)
	}
	return &reset, nil
}

// SetSuspended pauses or resumes scheduling for one card.
func (s *Service) SetSuspended(ctx context.Context, studentID, cardID int64, suspended bool) error {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return ErrCardNotFound
	}
	if card.StudentID != studentID {
		return ErrNotCardOwner
	}
	return s.store.SetSuspended(ctx, cardID, suspended)
}

// StageCounts reports how many of the student's cards sit at each stage.
func (s *Service) StageCounts(ctx context.Context, studentID int64) (map[models.ReviewStage]int, error) {
	return s.store.CountByStage(ctx, studentID)
}
