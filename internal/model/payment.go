package model

// PaymentMethod names a supported payment gateway.
type PaymentMethod string

const (
	MethodVNPay   PaymentMethod = "vnpay"
	MethodMoMo    PaymentMethod = "momo"
	MethodZaloPay PaymentMethod = "zalopay"
)

// Valid reports whether m is one of the supported gateways.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodVNPay, MethodMoMo, MethodZaloPay:
		return true
	}
	return false
}

// PaymentInitiation is the request sent to start a gateway payment.
type PaymentInitiation struct {
	BookingID string        `json:"booking_id" validate:"required"`
	Method    PaymentMethod `json:"method" validate:"required,oneof=vnpay momo zalopay"`
	Amount    int64         `json:"amount" validate:"gt=0"`
}

// PaymentInitiationResult is the backend's answer to a PaymentInitiation.
// PaymentURL is where the customer is redirected to finish paying.
type PaymentInitiationResult struct {
	Success       bool   `json:"success"`
	PaymentURL    string `json:"payment_url,omitempty"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message,omitempty"`
}

// PaymentStatus is the normalised outcome reported by a gateway return.
type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
	PaymentPending PaymentStatus = "pending"
)

// GatewayResult is a gateway's return query normalised across providers.
type GatewayResult struct {
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
	BookingID     string        `json:"bookingId,omitempty"`
	Message       string        `json:"message,omitempty"`
	Provider      PaymentMethod `json:"provider,omitempty"`
}
