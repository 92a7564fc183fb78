package srs

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

type fakeCardStore struct {
	cards map[int64]models.ReviewCard
}

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: make(map[int64]models.ReviewCard)}
}

func (f *fakeCardStore) GetCard(_ context.Context, cardID int64) (*models.ReviewCard, error) {
	card, ok := f.cards[cardID]
	if !ok {
		return nil, errors.New("not found")
	}
	return &card, nil
}

func (f *fakeCardStore) SaveCard(_ context.Context, card models.ReviewCard) error {
	f.cards[card.ID] = card
	return nil
}

func (f *fakeCardStore) ListDue(_ context.Context, studentID int64, now time.Time) ([]models.ReviewCard, error) {
	var due []models.ReviewCard
	for _, card := range f.cards {
		if card.StudentID != studentID || card.Suspended || card.Stage == models.StageBurned {
			continue
		}
		if card.DueDate.After(now) {
			continue
		}
		due = append(due, card)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].DueDate.Before(due[j].DueDate) })
	return due, nil
}

func (f *fakeCardStore) SetSuspended(_ context.Context, cardID int64, suspended bool) error {
	card, ok := f.cards[cardID]
	if !ok {
		return errors.New("not found")
	}
	card.Suspended = suspended
	f.cards[cardID] = card
	return nil
}

func (f *fakeCardStore) CountByStage(_ context.Context, studentID int64) (map[models.ReviewStage]int, error) {
	counts := make(map[models.ReviewStage]int)
	for _, card := range f.cards {
		if card.StudentID == studentID {
			counts[card.Stage]++
		}
	}
	return counts, nil
}

type fakeItemSource struct{}

func (fakeItemSource) GetItem(_ context.Context, itemID int64) (*models.Item, error) {
	return &models.Item{
		ID:           itemID,
		QuestionText: "question",
		Options:      []models.ItemOption{{OptionID: "a", OptionText: "x"}},
	}, nil
}

func dueCard(id, studentID int64, stage models.ReviewStage, ease float64, overdue time.Duration) models.ReviewCard {
	return models.ReviewCard{
		ID:           id,
		StudentID:    studentID,
		ItemID:       id * 100,
		EaseFactor:   ease,
		IntervalDays: 1,
		Stage:        stage,
		DueDate:      time.Now().Add(-overdue),
	}
}

func TestDueCardsOrderedByPriority(t *testing.T) {
	store := newFakeCardStore()
	// A barely-due enlightened card, a struggling overdue apprentice card,
	// and a mid-tier card.
	store.cards[1] = dueCard(1, 7, models.StageEnlightened, 2.5, time.Minute)
	store.cards[2] = dueCard(2, 7, models.StageApprentice1, 1.3, 48*time.Hour)
	store.cards[3] = dueCard(3, 7, models.StageGuru1, 2.0, 2*time.Hour)

	service := NewService(store, fakeItemSource{})
	resp, err := service.DueCards(context.Background(), 7, 10, false)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if resp.Total != 3 {
		t.Fatalf("total = %d, want 3", resp.Total)
	}

	if resp.Cards[0].CardID != 2 {
		t.Errorf("highest priority card = %d, want the overdue low-ease apprentice card", resp.Cards[0].CardID)
	}
	for i := 1; i < len(resp.Cards); i++ {
		if resp.Cards[i].Priority > resp.Cards[i-1].Priority {
			t.Errorf("cards out of priority order at %d: %f > %f", i, resp.Cards[i].Priority, resp.Cards[i-1].Priority)
		}
	}
}

func TestDueCardsLimitKeepsHighestPriority(t *testing.T) {
	store := newFakeCardStore()
	// Three comfortable enlightened cards a few hours overdue, then a barely
	// overdue struggling apprentice card whose stage and ease outweigh them.
	// An oldest-due page of two would cut the apprentice card.
	store.cards[1] = dueCard(1, 7, models.StageEnlightened, 2.5, 8*time.Hour)
	store.cards[2] = dueCard(2, 7, models.StageEnlightened, 2.5, 7*time.Hour)
	store.cards[3] = dueCard(3, 7, models.StageEnlightened, 2.5, 6*time.Hour)
	store.cards[4] = dueCard(4, 7, models.StageApprentice1, 1.3, time.Minute)

	service := NewService(store, fakeItemSource{})
	resp, err := service.DueCards(context.Background(), 7, 2, false)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("total = %d, want limit of 2", resp.Total)
	}

	found := false
	for _, view := range resp.Cards {
		if view.CardID == 4 {
			found = true
		}
	}
	if !found {
		t.Errorf("batch %+v dropped the struggling apprentice card", resp.Cards)
	}
}

func TestDueCardsExcludesSuspendedAndBurned(t *testing.T) {
	store := newFakeCardStore()
	store.cards[1] = dueCard(1, 7, models.StageGuru1, 2.5, time.Hour)
	suspended := dueCard(2, 7, models.StageGuru1, 2.5, time.Hour)
	suspended.Suspended = true
	store.cards[2] = suspended
	store.cards[3] = dueCard(3, 7, models.StageBurned, 2.5, time.Hour)

	service := NewService(store, fakeItemSource{})
	resp, err := service.DueCards(context.Background(), 7, 10, false)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if resp.Total != 1 || resp.Cards[0].CardID != 1 {
		t.Errorf("due queue = %+v, want only card 1", resp.Cards)
	}
}

func TestDueCardsIncludesQuestionView(t *testing.T) {
	store := newFakeCardStore()
	store.cards[1] = dueCard(1, 7, models.StageGuru1, 2.5, time.Hour)

	service := NewService(store, fakeItemSource{})
	resp, err := service.DueCards(context.Background(), 7, 10, true)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if resp.Cards[0].Question == nil {
		t.Fatal("expected an attached question view")
	}
	if resp.Cards[0].Question.ID != 100 {
		t.Errorf("question item = %d, want 100", resp.Cards[0].Question.ID)
	}
}

func TestSubmitReviewAdvancesCard(t *testing.T) {
	store := newFakeCardStore()
	card := dueCard(1, 7, models.StageApprentice1, 2.5, time.Hour)
	store.cards[1] = card

	service := NewService(store, fakeItemSource{})
	resp, err := service.SubmitReview(context.Background(), 7, 1, models.SubmitReviewRequest{Quality: 5})
	if err != nil {
		t.Fatalf("SubmitReview: %v", err)
	}

	if !resp.Correct {
		t.Error("quality 5 reported as incorrect")
	}
	if !resp.StageChanged || resp.Card.Stage != models.StageApprentice2 {
		t.Errorf("stage = %s changed=%v, want apprentice_2 after first pass", resp.Card.Stage, resp.StageChanged)
	}
	if store.cards[1].Stage != models.StageApprentice2 {
		t.Error("updated card was not persisted")
	}
}

func TestSubmitReviewGuards(t *testing.T) {
	store := newFakeCardStore()
	store.cards[1] = dueCard(1, 7, models.StageGuru1, 2.5, time.Hour)
	suspended := dueCard(2, 7, models.StageGuru1, 2.5, time.Hour)
	suspended.Suspended = true
	store.cards[2] = suspended
	store.cards[3] = dueCard(3, 7, models.StageBurned, 2.5, time.Hour)

	service := NewService(store, fakeItemSource{})
	ctx := context.Background()

	if _, err := service.SubmitReview(ctx, 7, 99, models.SubmitReviewRequest{Quality: 4}); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("missing card: err = %v, want ErrCardNotFound", err)
	}
	if _, err := service.SubmitReview(ctx, 8, 1, models.SubmitReviewRequest{Quality: 4}); !errors.Is(err, ErrNotCardOwner) {
		t.Errorf("foreign card: err = %v, want ErrNotCardOwner", err)
	}
	if _, err := service.SubmitReview(ctx, 7, 2, models.SubmitReviewRequest{Quality: 4}); !errors.Is(err, ErrCardSuspended) {
		t.Errorf("suspended card: err = %v, want ErrCardSuspended", err)
	}
	if _, err := service.SubmitReview(ctx, 7, 3, models.SubmitReviewRequest{Quality: 4}); !errors.Is(err, ErrCardBurned) {
		t.Errorf("burned card: err = %v, want ErrCardBurned", err)
	}
}

func TestResetCardRestartsProgression(t *testing.T) {
	store := newFakeCardStore()
	burned := dueCard(1, 7, models.StageBurned, 2.1, 0)
	burned.Repetition = 9
	burned.TotalReviews = 30
	store.cards[1] = burned

	service := NewService(store, fakeItemSource{})
	card, err := service.ResetCard(context.Background(), 7, 1)
	if err != nil {
		t.Fatalf("ResetCard: %v", err)
	}

	if card.Stage != models.StageApprentice1 {
		t.Errorf("stage = %s, want apprentice_1", card.Stage)
	}
	if card.EaseFactor != InitialEaseFactor || card.Repetition != 0 {
		t.Errorf("ease=%f rep=%d, want fresh SM-2 state", card.EaseFactor, card.Repetition)
	}
}

func TestSetSuspendedRoundTrip(t *testing.T) {
	store := newFakeCardStore()
	store.cards[1] = dueCard(1, 7, models.StageGuru1, 2.5, time.Hour)

	service := NewService(store, fakeItemSource{})
	ctx := context.Background()

	if err := service.SetSuspended(ctx, 7, 1, true); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	resp, _ := service.DueCards(ctx, 7, 10, false)
	if resp.Total != 0 {
		t.Errorf("suspended card still due: %+v", resp.Cards)
	}

	if err := service.SetSuspended(ctx, 7, 1, false); err != nil {
		t.Fatalf("resume: %v", err)
	}
	resp, _ = service.DueCards(ctx, 7, 10, false)
	if resp.Total != 1 {
		t.Error("resumed card missing from due queue")
	}
}
