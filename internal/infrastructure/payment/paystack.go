// Package payment adapts payment providers to ports.PaymentWidget.
package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

const (
	defaultPaystackBaseURL = "https://api.paystack.co"
	defaultCurrency        = "NGN"
	paystackSuccess        = "success"
)

// PaystackConfig configures the Paystack client.
type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	Currency    string
	CallbackURL string
	Timeout     time.Duration
}

// Paystack opens payments with Paystack's transaction API and resolves their
// outcome by verifying the transaction reference.
type Paystack struct {
	client   *resty.Client
	currency string
	callback string
	log      zerolog.Logger
}

func NewPaystack(cfg PaystackConfig, log zerolog.Logger) *Paystack {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultPaystackBaseURL
	}
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.SecretKey).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= http.StatusInternalServerError
	})

	return &Paystack{client: client, currency: cfg.Currency, callback: cfg.CallbackURL, log: log}
}

type paystackEnvelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeRequest struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"`
	Reference   string                 `json:"reference"`
	Currency    string                 `json:"currency"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    domain.PaymentMetadata `json:"metadata"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// Open initializes the transaction and returns the hosted payment page.
func (p *Paystack) Open(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentSession, error) {
	var out paystackEnvelope[initializeData]
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(initializeRequest{
			Email:       req.Email,
			Amount:      req.AmountMinorUnits,
			Reference:   req.Reference,
			Currency:    p.currency,
			CallbackURL: p.callback,
			Metadata:    req.Metadata,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/transaction/initialize")
	if err != nil {
		return nil, fmt.Errorf("paystack initialize: %w", err)
	}
	if resp.IsError() || !out.Status {
		return nil, fmt.Errorf("paystack initialize: %s (status %d)", out.Message, resp.StatusCode())
	}

	return &domain.PaymentSession{
		Reference:        req.Reference,
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
	}, nil
}

// Complete verifies the transaction. Anything other than a successful charge
// of the expected amount is reported as cancelled.
func (p *Paystack) Complete(ctx context.Context, req domain.PaymentRequest, cb domain.PaymentCallbacks) error {
	var out paystackEnvelope[verifyData]
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("reference", req.Reference).
		SetResult(&out).
		SetError(&out).
		Get("/transaction/verify/{reference}")
	if err != nil {
		return fmt.Errorf("paystack verify: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		cb.OnCancelled()
		return nil
	}
	if resp.IsError() || !out.Status {
		return fmt.Errorf("paystack verify: %s (status %d)", out.Message, resp.StatusCode())
	}

	data := out.Data
	if data.Status != paystackSuccess {
		p.log.Info().Str("reference", req.Reference).Str("status", data.Status).Msg("payment not completed")
		cb.OnCancelled()
		return nil
	}
	if data.Amount != req.AmountMinorUnits {
		p.log.Warn().
			Str("reference", req.Reference).
			Int64("expected", req.AmountMinorUnits).
			Int64("paid", data.Amount).
			Msg("payment amount mismatch")
		cb.OnCancelled()
		return nil
	}

	cb.OnSuccess(domain.PaymentResult{
		Reference:     req.Reference,
		TransactionID: fmt.Sprintf("%d", data.ID),
		Status:        data.Status,
	})
	return nil
}
