package achievements

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
	"github.com/bitewise-app/bitewise-backend/pkg/enums"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
)

// Service grants achievements idempotently by (user, code).
type Service interface {
	Ensure(ctx context.Context, userID uuid.UUID, code enums.AchievementCode, title string, points int) (*models.Achievement, bool, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires an achievements service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("achievements repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Ensure grants the achievement once. The bool reports whether this call
// earned it; duplicate grants succeed without re-earning points.
func (s *service) Ensure(ctx context.Context, userID uuid.UUID, code enums.AchievementCode, title string, points int) (*models.Achievement, bool, error) {
	if userID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !code.IsValid() {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid achievement code %q", code))
	}

	grant := &models.Achievement{
		ID:       models.AchievementID(userID, code),
		UserID:   userID,
		Code:     code,
		Title:    title,
		Points:   points,
		EarnedAt: s.now().UTC(),
	}

	earned, err := s.repo.Ensure(ctx, grant)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ensuring achievement")
	}

	stored, err := s.repo.FindByID(ctx, grant.ID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading achievement")
	}
	return stored, earned, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	grants, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing achievements")
	}
	return grants, nil
}
