package reflection

import (
	"context"
	"time"

	"github.com/trezcool/habitrank/core"
	"github.com/trezcool/habitrank/core/calendar"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("reflection")
)

type (
	Repository interface {
		// UpsertReflection inserts or overwrites the reflection of (PlayerID, Week), keeping CreatedAt.
		UpsertReflection(ctx context.Context, r Reflection) (Reflection, error)
		GetReflection(ctx context.Context, playerID string, week calendar.WeekID) (Reflection, error)
		// QueryReflections returns the player's reflections, newest week first.
		QueryReflections(ctx context.Context, playerID string) ([]Reflection, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Save upserts the reflection; the last write wins. Expects a validated SaveReflection.
func (svc *Service) Save(ctx context.Context, sr SaveReflection) (Reflection, error) {
	now := time.Now().UTC()
	return svc.repo.UpsertReflection(ctx, Reflection{
		PlayerID:    sr.PlayerID,
		Week:        sr.Week,
		WentWell:    sr.WentWell,
		DoBetter:    sr.DoBetter,
		PlanForWeek: sr.PlanForWeek,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) Get(ctx context.Context, playerID string, week calendar.WeekID) (Reflection, error) {
	return svc.repo.GetReflection(ctx, playerID, week)
}

func (svc *Service) List(ctx context.Context, playerID string) ([]Reflection, error) {
	return svc.repo.QueryReflections(ctx, playerID)
}
