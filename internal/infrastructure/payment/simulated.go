package payment

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// Simulated approves every payment. It backs local development and demos
// where no provider key is configured.
type Simulated struct {
	log zerolog.Logger
}

func NewSimulated(log zerolog.Logger) *Simulated {
	return &Simulated{log: log}
}

func (s *Simulated) Open(_ context.Context, req domain.PaymentRequest) (*domain.PaymentSession, error) {
	if req.Reference == "" {
		return nil, errors.New("payment reference is required")
	}
	return &domain.PaymentSession{Reference: req.Reference}, nil
}

func (s *Simulated) Complete(_ context.Context, req domain.PaymentRequest, cb domain.PaymentCallbacks) error {
	s.log.Debug().Str("reference", req.Reference).Int64("amount", req.AmountMinorUnits).Msg("simulated payment approved")
	cb.OnSuccess(domain.PaymentResult{Reference: req.Reference, TransactionID: "sim-" + req.Reference, Status: "success"})
	return nil
}
