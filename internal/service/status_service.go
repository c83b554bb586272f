package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/domain"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository"
	pkgerrors "github.com/trthanhdo41/air-purifier-hcm-sub001/pkg/errors"
)

type StatusService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewStatusService creates the payment status lookup used by client polling
func NewStatusService(repos *repository.Repositories, logger *zap.Logger) *StatusService {
	return &StatusService{
		repos:  repos,
		logger: logger,
	}
}

// CheckStatus looks up an order by code. An unknown code is not an error:
// clients poll before the webhook has landed.
func (s *StatusService) CheckStatus(ctx context.Context, orderCode string) (*PaymentStatusResult, error) {
	trimmed := firstNonBlank(orderCode)
	if trimmed == "" {
		return nil, &pkgerrors.ErrBadRequest{Message: "orderCode is required"}
	}

	order, err := s.repos.Order.GetByOrderNumber(ctx, trimmed)
	if isNotFound(err) {
		order, err = s.repos.Order.FindByNormalizedNumber(ctx, trimmed)
	}
	if isNotFound(err) {
		return &PaymentStatusResult{IsPaid: false}, nil
	}
	if err != nil {
		s.logger.Error("Failed to check payment status", zap.String("order_code", trimmed), zap.Error(err))
		return nil, &pkgerrors.ErrStore{Op: "check payment status", Err: err}
	}

	return &PaymentStatusResult{
		IsPaid: order.PaymentStatus == domain.PaymentStatusPaid,
		Order:  order,
	}, nil
}

func isNotFound(err error) bool {
	var nf *pkgerrors.ErrNotFound
	return errors.As(err, &nf)
}
