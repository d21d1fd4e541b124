package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vexeviet/seat-hold/internal/logger"
	"github.com/vexeviet/seat-hold/internal/model"
)

type MockInitiator struct {
	mock.Mock
}

func (m *MockInitiator) InitiatePayment(ctx context.Context, req model.PaymentInitiation) (model.PaymentInitiationResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.PaymentInitiationResult), args.Error(1)
}

type MockRedirector struct {
	mock.Mock
}

func (m *MockRedirector) Redirect(ctx context.Context, paymentURL string) error {
	return m.Called(ctx, paymentURL).Error(0)
}

type guard bool

func (g guard) IsExpired() bool { return bool(g) }

var draft = model.BookingDraft{
	CurrentRoute:  &model.Route{ID: "R1", Price: 250000},
	SelectedSeats: []string{"A1", "A2"},
	TotalPrice:    500000,
}

func TestSelectMethod_ExpiredHoldNeverCallsBackend(t *testing.T) {
	initiator := new(MockInitiator)
	redir := new(MockRedirector)
	o := NewOrchestrator(initiator, guard(true), redir, logger.Discard())

	out, err := o.SelectMethod(context.Background(), "b-1", model.MethodVNPay, draft)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHoldExpired, out.Outcome)

	initiator.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything)
	redir.AssertNotCalled(t, "Redirect", mock.Anything, mock.Anything)
}

func TestSelectMethod_Redirects(t *testing.T) {
	initiator := new(MockInitiator)
	redir := new(MockRedirector)
	o := NewOrchestrator(initiator, guard(false), redir, logger.Discard())

	want := model.PaymentInitiation{BookingID: "b-1", Method: model.MethodMoMo, Amount: 500000}
	initiator.On("InitiatePayment", mock.Anything, want).
		Return(model.PaymentInitiationResult{Success: true, PaymentURL: "https://test-payment.momo.vn/pay?x=1", TransactionID: "tx-9"}, nil)
	redir.On("Redirect", mock.Anything, "https://test-payment.momo.vn/pay?x=1").Return(nil)

	out, err := o.SelectMethod(context.Background(), "b-1", model.MethodMoMo, draft)
	require.NoError(t, err)
	assert.Equal(t, Checkout{Outcome: OutcomeRedirected, RedirectURL: "https://test-payment.momo.vn/pay?x=1", TransactionID: "tx-9"}, out)

	initiator.AssertExpectations(t)
	redir.AssertExpectations(t)
}

func TestSelectMethod_Failures(t *testing.T) {
	tests := []struct {
		name    string
		result  model.PaymentInitiationResult
		err     error
		wantErr error
	}{
		{
			name:    "transport error",
			err:     errors.New("dial tcp: refused"),
			wantErr: ErrPaymentInitiation,
		},
		{
			name:    "backend declined",
			result:  model.PaymentInitiationResult{Success: false, Message: "booking not payable"},
			wantErr: ErrPaymentInitiation,
		},
		{
			name:    "missing url",
			result:  model.PaymentInitiationResult{Success: true, TransactionID: "tx"},
			wantErr: ErrInvalidPaymentResponse,
		},
		{
			name:    "non http url",
			result:  model.PaymentInitiationResult{Success: true, PaymentURL: "javascript:alert(1)"},
			wantErr: ErrInvalidPaymentResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initiator := new(MockInitiator)
			redir := new(MockRedirector)
			o := NewOrchestrator(initiator, guard(false), redir, logger.Discard())

			initiator.On("InitiatePayment", mock.Anything, mock.Anything).Return(tt.result, tt.err)

			_, err := o.SelectMethod(context.Background(), "b-1", model.MethodZaloPay, draft)
			assert.ErrorIs(t, err, tt.wantErr)
			redir.AssertNotCalled(t, "Redirect", mock.Anything, mock.Anything)
		})
	}
}

func TestSelectMethod_RejectsBadInput(t *testing.T) {
	initiator := new(MockInitiator)
	o := NewOrchestrator(initiator, guard(false), new(MockRedirector), logger.Discard())

	_, err := o.SelectMethod(context.Background(), "b-1", "paypal", draft)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)

	_, err = o.SelectMethod(context.Background(), "b-1", model.MethodVNPay, model.BookingDraft{})
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	_, err = o.SelectMethod(context.Background(), "", model.MethodVNPay, draft)
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	initiator.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "redirected", OutcomeRedirected.String())
	assert.Equal(t, "hold_expired", OutcomeHoldExpired.String())
	assert.Equal(t, "unknown", Outcome(0).String())
}
