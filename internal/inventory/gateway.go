package inventory

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/vexeviet/seat-hold/internal/model"
)

// GatewayConfig holds the sandbox payment pages and the return URL the
// gateways send the customer back to.
type GatewayConfig struct {
	VNPayURL   string
	MoMoURL    string
	ZaloPayURL string
	ReturnURL  string
}

// PaymentURL builds the redirect for method.  The query carries the
// booking id the way each gateway echoes it back on return.
func (g GatewayConfig) PaymentURL(method model.PaymentMethod, bookingID, txID string, amount int64, now time.Time) (string, error) {
	var base string
	q := url.Values{}
	switch method {
	case model.MethodVNPay:
		base = g.VNPayURL
		q.Set("vnp_TxnRef", bookingID)
		q.Set("vnp_Amount", strconv.FormatInt(amount*100, 10))
		q.Set("vnp_OrderInfo", "Thanh toan ve xe "+bookingID)
		q.Set("vnp_ReturnUrl", g.ReturnURL)
	case model.MethodMoMo:
		base = g.MoMoURL
		q.Set("orderId", bookingID)
		q.Set("requestId", txID)
		q.Set("amount", strconv.FormatInt(amount, 10))
		q.Set("redirectUrl", g.ReturnURL)
	case model.MethodZaloPay:
		base = g.ZaloPayURL
		q.Set("apptransid", now.Format("060102")+"_"+bookingID)
		q.Set("amount", strconv.FormatInt(amount, 10))
		q.Set("redirecturl", g.ReturnURL)
	default:
		return "", fmt.Errorf("unsupported payment method %q", method)
	}
	if base == "" {
		return "", fmt.Errorf("no gateway url configured for %s", method)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("gateway url for %s: %w", method, err)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
