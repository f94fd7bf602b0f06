// File: internal/usecase/transfer_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"circles-platform/internal/domain"
	"circles-platform/internal/domain/model"
	"circles-platform/internal/domain/ports/repository"
	"circles-platform/internal/infra/metrics"
)

// TransferUseCase owns the rescue-offer lifecycle and the transfer_block
// flag: claiming a blocked circle, expiring stale offers, and the banner
// decisions derived from both.
type TransferUseCase struct {
	circles repository.CircleRepository
	plans   repository.PlanRepository
	offers  repository.RescueOfferRepository
	notifs  repository.NotificationRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewTransferUseCase(
	circles repository.CircleRepository,
	plans repository.PlanRepository,
	offers repository.RescueOfferRepository,
	notifs repository.NotificationRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *TransferUseCase {
	l := logger.With().Str("component", "TransferUC").Logger()
	return &TransferUseCase{
		circles: circles,
		plans:   plans,
		offers:  offers,
		notifs:  notifs,
		tm:      tm,
		log:     &l,
	}
}

// Claim reassigns a transfer-blocked circle to the caller. The whole
// operation runs in one serializable transaction: quota re-check, conditional
// owner swap, offer close, and the notification to the previous owner either
// all land or none do. A second claim by the new owner is rejected before the
// transaction and never re-notifies.
func (uc *TransferUseCase) Claim(ctx context.Context, callerID, circleID string) (*model.Circle, error) {
	if callerID == "" || circleID == "" {
		return nil, domain.ErrInvalidArgument
	}

	circle, err := uc.circles.FindByID(ctx, repository.NoTX, circleID)
	if err != nil {
		return nil, err
	}
	if circle.OwnerID == callerID {
		return nil, domain.ErrAlreadyOwner
	}
	if !circle.TransferBlock {
		return nil, domain.ErrNotTransferable
	}
	prevOwner := circle.OwnerID

	txErr := uc.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(ctx context.Context, tx repository.Tx) error {
		plan, err := uc.plans.FindByUser(ctx, tx, callerID)
		if err != nil && err != domain.ErrNotFound {
			return err
		}
		maxCircles := model.TierQuotas(model.PlanTierFree).MaxCircles
		if plan != nil {
			maxCircles = plan.MaxCircles
		}
		owned, err := uc.circles.CountOwned(ctx, tx, callerID)
		if err != nil {
			return err
		}
		if owned+1 > maxCircles {
			return domain.ErrCircleLimitReached
		}

		swapped, err := uc.circles.ReassignOwner(ctx, tx, circleID, callerID)
		if err != nil {
			return err
		}
		if !swapped {
			// Another claimant got there first.
			return domain.ErrNotTransferable
		}
		if err := uc.offers.CloseForCircle(ctx, tx, circleID); err != nil {
			return err
		}
		return uc.notifs.Save(ctx, tx, &model.Notification{
			ID:              uuid.NewString(),
			UserID:          prevOwner,
			Type:            model.NotificationTypeOwnershipClaimed,
			Title:           "Circle ownership transferred",
			Message:         fmt.Sprintf("%q has a new owner. You can still take part as a member.", circle.Name),
			RelatedCircleID: circleID,
			RelatedUserID:   callerID,
			CreatedAt:       time.Now(),
		})
	})
	if txErr != nil {
		metrics.IncClaims("error")
		return nil, txErr
	}

	metrics.IncClaims("ok")
	uc.log.Info().Str("circle_id", circleID).Str("new_owner", callerID).Str("prev_owner", prevOwner).Msg("ownership claimed")

	circle.OwnerID = callerID
	circle.TransferBlock = false
	return circle, nil
}

// ExpireSweep marks every open offer whose deadline has passed as expired and
// notifies the then-current owner once per offer. Not transactional across
// offers: a partial run is corrected by the next one, since the selection
// only matches rows still open.
func (uc *TransferUseCase) ExpireSweep(ctx context.Context) (int, error) {
	due, err := uc.offers.ListOpenPastDeadline(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("list due offers: %w", err)
	}

	expired := 0
	for _, offer := range due {
		ok, err := uc.offers.MarkExpired(ctx, offer.ID)
		if err != nil {
			uc.log.Error().Err(err).Str("offer_id", offer.ID).Msg("mark expired failed")
			continue
		}
		if !ok {
			// Lost the race to a concurrent sweep or a claim.
			continue
		}
		expired++
		if err := uc.notifs.Save(ctx, repository.NoTX, &model.Notification{
			ID:              uuid.NewString(),
			UserID:          offer.CurrentOwner,
			Type:            model.NotificationTypeRescueExpired,
			Title:           "Rescue window closed",
			Message:         "Nobody claimed your circle before the deadline. It stays read-only until you upgrade or transfer it.",
			RelatedCircleID: offer.CircleID,
			CreatedAt:       time.Now(),
		}); err != nil {
			uc.log.Error().Err(err).Str("offer_id", offer.ID).Msg("expiry notification failed")
		}
	}
	if expired > 0 {
		metrics.IncRescueOffersExpired(expired)
	}
	return expired, nil
}

// StateFor derives the single lifecycle tag for a circle.
func (uc *TransferUseCase) StateFor(ctx context.Context, circle *model.Circle, readOnly bool) (model.CircleState, error) {
	hasOpen := false
	if circle.TransferBlock {
		_, err := uc.offers.FindOpenByCircle(ctx, repository.NoTX, circle.ID)
		switch err {
		case nil:
			hasOpen = true
		case domain.ErrNotFound:
		default:
			return "", err
		}
	}
	return circle.State(hasOpen, readOnly), nil
}

// ReadOnly derives the read-only predicate for a circle: the owner holds
// more circles than their plan covers. Posting to such a circle is blocked
// externally without losing any data.
func (uc *TransferUseCase) ReadOnly(ctx context.Context, circle *model.Circle) (bool, error) {
	plan, err := uc.plans.FindByUser(ctx, repository.NoTX, circle.OwnerID)
	if err != nil && err != domain.ErrNotFound {
		return false, err
	}
	maxCircles := model.TierQuotas(model.PlanTierFree).MaxCircles
	if plan != nil {
		maxCircles = plan.MaxCircles
	}
	owned, err := uc.circles.CountOwned(ctx, repository.NoTX, circle.OwnerID)
	if err != nil {
		return false, err
	}
	return owned > maxCircles, nil
}

// Notifications lists the newest notifications for a user.
func (uc *TransferUseCase) Notifications(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	return uc.notifs.ListForUser(ctx, userID, limit)
}

// BannersFor computes the display decisions for one circle and viewer. The
// read-only banner branches on whether the viewer owns the circle; the
// transfer banner appears whenever the block is set, independent of the
// read-only state, with the claim action hidden for the current owner.
func BannersFor(circle *model.Circle, viewerID string, readOnly bool) []model.Banner {
	var banners []model.Banner
	isOwner := circle.OwnerID == viewerID

	if readOnly {
		b := model.Banner{Kind: model.BannerKindReadOnly}
		if isOwner {
			b.Message = "This circle is read-only because it exceeds your plan. Upgrade to restore posting."
			b.ShowUpgrade = true
		} else {
			b.Message = "This circle is read-only. The owner needs to update their plan to restore posting."
		}
		banners = append(banners, b)
	}
	if circle.TransferBlock {
		b := model.Banner{
			Kind:      model.BannerKindTransferBlock,
			ShowClaim: !isOwner,
		}
		if isOwner {
			b.Message = "This circle is waiting for a new owner."
		} else {
			b.Message = "The owner's plan lapsed. Claim this circle to keep it going."
		}
		banners = append(banners, b)
	}
	return banners
}
