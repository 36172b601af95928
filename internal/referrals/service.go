package referrals

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bitewise-app/bitewise-backend/internal/wallet"
	"github.com/bitewise-app/bitewise-backend/pkg/config"
	"github.com/bitewise-app/bitewise-backend/pkg/db"
	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
	"github.com/bitewise-app/bitewise-backend/pkg/enums"
	pkgerrors "github.com/bitewise-app/bitewise-backend/pkg/errors"
	"github.com/bitewise-app/bitewise-backend/pkg/logger"
	"github.com/bitewise-app/bitewise-backend/pkg/metrics"
)

const (
	codePrefixLen   = 6
	codeSuffixLen   = 4
	codeMaxAttempts = 5
)

// Service allocates referral codes and drives single-use redemptions.
type Service interface {
	CreateCode(ctx context.Context, userID uuid.UUID) (*models.ReferralCode, error)
	Redeem(ctx context.Context, userID uuid.UUID, code string) (*RedeemResult, error)
	Status(ctx context.Context, userID uuid.UUID) (*Status, error)
}

// RedeemResult reports a successful redemption and the coin rewards that
// were attempted for both sides.
type RedeemResult struct {
	Code           string    `json:"code"`
	ReferrerUID    uuid.UUID `json:"referrer_uid"`
	ReferrerReward int64     `json:"referrer_reward"`
	RedeemerReward int64     `json:"redeemer_reward"`
}

// Status summarizes a user's referral position: their own code and whether
// they have already redeemed someone else's.
type Status struct {
	Code       *models.ReferralCode       `json:"code"`
	Redemption *models.ReferralRedemption `json:"redemption"`
	Referred   int64                      `json:"referred"`
}

// ServiceParams wires the referral dependencies.
type ServiceParams struct {
	DB      *gorm.DB
	Repo    Repository
	Wallet  wallet.Service
	Rewards config.RewardsConfig
	Logger  *logger.Logger
	Metrics *metrics.RewardsMetrics
}

type service struct {
	db      *gorm.DB
	repo    Repository
	wallet  wallet.Service
	rewards config.RewardsConfig
	logg    *logger.Logger
	metrics *metrics.RewardsMetrics
}

// NewService wires a referral service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("referrals db handle required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("referrals repository required")
	}
	return &service{
		db:      params.DB,
		repo:    params.Repo,
		wallet:  params.Wallet,
		rewards: params.Rewards,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// codeCandidate builds a shareable code from the owner's id plus a random
// suffix. Collisions are possible and handled by the caller's retry loop.
func codeCandidate(userID uuid.UUID) string {
	prefix := strings.ToUpper(strings.ReplaceAll(userID.String(), "-", ""))[:codePrefixLen]
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:codeSuffixLen]
	return prefix + suffix
}

// CreateCode is idempotent: the first created code for a user wins and every
// later call returns it.
func (s *service) CreateCode(ctx context.Context, userID uuid.UUID) (*models.ReferralCode, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	existing, err := s.repo.FindCodeByReferrer(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading referral code")
	}
	if existing != nil {
		return existing, nil
	}

	usesLimit := s.rewards.ReferralUseLimit
	if usesLimit <= 0 {
		usesLimit = 3
	}

	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		candidate := &models.ReferralCode{
			Code:        codeCandidate(userID),
			ReferrerUID: userID,
			UsesLimit:   usesLimit,
		}
		err := s.repo.CreateCode(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating referral code")
		}
		// A concurrent request may have created the user's code already.
		existing, findErr := s.repo.FindCodeByReferrer(ctx, userID)
		if findErr == nil && existing != nil {
			return existing, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique referral code")
}

// Redeem consumes one use of a code for the calling user. The redemption row
// keyed by the caller's id is the authoritative single-use guard; the
// pre-transaction checks only exist to return friendlier errors early.
func (s *service) Redeem(ctx context.Context, userID uuid.UUID, code string) (*RedeemResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "referral code is required")
	}

	referral, err := s.repo.FindCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading referral code")
	}
	if referral == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid referral code")
	}
	if referral.ReferrerUID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot redeem your own referral code")
	}
	if referral.Uses >= referral.UsesLimit {
		return nil, pkgerrors.New(pkgerrors.CodeCodeExhausted, "referral code has no uses remaining")
	}

	prior, err := s.repo.FindRedemption(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking prior redemption")
	}
	if prior != nil {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyRedeemed, "referral already redeemed")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		consumed, err := repo.IncrementUses(ctx, code)
		if err != nil {
			return err
		}
		if !consumed {
			return pkgerrors.New(pkgerrors.CodeCodeExhausted, "referral code has no uses remaining")
		}

		return repo.CreateRedemption(ctx, &models.ReferralRedemption{
			UserID:      userID,
			Code:        code,
			ReferrerUID: referral.ReferrerUID,
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyRedeemed, "referral already redeemed")
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeeming referral code")
	}

	s.metrics.IncReferralRedemption()
	result := &RedeemResult{
		Code:           code,
		ReferrerUID:    referral.ReferrerUID,
		ReferrerReward: s.rewards.ReferrerBonus,
		RedeemerReward: s.rewards.RedeemerBonus,
	}
	s.disburseRewards(ctx, userID, referral.ReferrerUID, code)
	return result, nil
}

// disburseRewards credits both sides after the redemption commits. A failed
// grant is logged and left for support tooling; the redemption stands.
func (s *service) disburseRewards(ctx context.Context, redeemerUID, referrerUID uuid.UUID, code string) {
	if s.wallet == nil {
		return
	}
	meta, _ := json.Marshal(map[string]string{"code": code})

	grants := []struct {
		userID uuid.UUID
		amount int64
		reason string
	}{
		{referrerUID, s.rewards.ReferrerBonus, enums.CoinReasonReferralBonus},
		{redeemerUID, s.rewards.RedeemerBonus, enums.CoinReasonReferralWelcome},
	}
	for _, grant := range grants {
		if grant.amount <= 0 {
			continue
		}
		_, err := s.wallet.Credit(ctx, wallet.CreditInput{
			UserID:    grant.userID,
			Amount:    grant.amount,
			Reason:    grant.reason,
			Metadata:  meta,
			RequestID: fmt.Sprintf("referral:%s:%s:%s", code, grant.userID, grant.reason),
		})
		if err != nil && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"user_id": grant.userID.String(),
				"reason":  grant.reason,
			})
			s.logg.Error(logCtx, "referral reward grant failed", err)
		}
	}
}

func (s *service) Status(ctx context.Context, userID uuid.UUID) (*Status, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	code, err := s.repo.FindCodeByReferrer(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading referral code")
	}
	redemption, err := s.repo.FindRedemption(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading redemption")
	}

	var referred int64
	if code != nil {
		referred, err = s.repo.CountRedemptionsByReferrer(ctx, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting referred users")
		}
	}
	return &Status{Code: code, Redemption: redemption, Referred: referred}, nil
}
