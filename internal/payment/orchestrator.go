// Package payment takes a booking from method selection to the gateway
// redirect, and normalises what the gateway sends back.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/vexeviet/seat-hold/internal/logger"
	"github.com/vexeviet/seat-hold/internal/model"
)

var (
	// ErrPaymentInitiation means the backend refused or failed to start
	// the payment.  No redirect happened.
	ErrPaymentInitiation = errors.New("payment initiation failed")
	// ErrInvalidPaymentResponse means the backend said yes but gave no
	// usable redirect URL.
	ErrInvalidPaymentResponse = errors.New("invalid payment response")
	// ErrUnsupportedMethod is returned for a method outside vnpay, momo and zalopay.
	ErrUnsupportedMethod = errors.New("unsupported payment method")
)

// Initiator starts a gateway payment.
type Initiator interface {
	InitiatePayment(ctx context.Context, req model.PaymentInitiation) (model.PaymentInitiationResult, error)
}

// HoldGuard reports whether the hold being paid for has run out.
type HoldGuard interface {
	IsExpired() bool
}

// Redirector hands the customer over to the gateway.  It is a one-way
// handoff; nothing comes back through it.
type Redirector interface {
	Redirect(ctx context.Context, paymentURL string) error
}

// Outcome is what SelectMethod ended with.
type Outcome int

const (
	OutcomeRedirected Outcome = iota + 1
	OutcomeHoldExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRedirected:
		return "redirected"
	case OutcomeHoldExpired:
		return "hold_expired"
	}
	return "unknown"
}

// Checkout is the result of a method selection.
type Checkout struct {
	Outcome       Outcome
	RedirectURL   string
	TransactionID string
}

// Orchestrator drives a single payment attempt.
type Orchestrator struct {
	initiator  Initiator
	guard      HoldGuard
	redirector Redirector
	log        *logger.Logger
}

// NewOrchestrator wires an orchestrator.  A nil logger uses the default.
func NewOrchestrator(initiator Initiator, guard HoldGuard, redirector Redirector, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Orchestrator{initiator: initiator, guard: guard, redirector: redirector, log: log}
}

// SelectMethod starts paying for bookingID with method.  An expired hold
// short-circuits to OutcomeHoldExpired without calling the backend.
func (o *Orchestrator) SelectMethod(ctx context.Context, bookingID string, method model.PaymentMethod, draft model.BookingDraft) (Checkout, error) {
	if o.guard != nil && o.guard.IsExpired() {
		o.log.Info("payment blocked, hold expired", "booking_id", bookingID)
		return Checkout{Outcome: OutcomeHoldExpired}, nil
	}
	if !method.Valid() {
		return Checkout{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	req := model.PaymentInitiation{BookingID: bookingID, Method: method, Amount: draft.TotalPrice}
	if err := model.Validate(req); err != nil {
		return Checkout{}, err
	}

	res, err := o.initiator.InitiatePayment(ctx, req)
	if err != nil {
		o.log.WithError(err).Warn("payment initiation failed", "booking_id", bookingID, "method", string(method))
		return Checkout{}, fmt.Errorf("%w: %v", ErrPaymentInitiation, err)
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "rejected by backend"
		}
		return Checkout{}, fmt.Errorf("%w: %s", ErrPaymentInitiation, msg)
	}
	if !validRedirect(res.PaymentURL) {
		return Checkout{}, fmt.Errorf("%w: payment url %q", ErrInvalidPaymentResponse, res.PaymentURL)
	}

	if err := o.redirector.Redirect(ctx, res.PaymentURL); err != nil {
		return Checkout{}, fmt.Errorf("redirect to gateway: %w", err)
	}
	o.log.Info("redirected to gateway", "booking_id", bookingID, "method", string(method), "transaction_id", res.TransactionID)
	return Checkout{Outcome: OutcomeRedirected, RedirectURL: res.PaymentURL, TransactionID: res.TransactionID}, nil
}

func validRedirect(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
