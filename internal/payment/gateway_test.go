package payment

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vexeviet/seat-hold/internal/model"
)

func TestParseGatewayReturn(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  model.GatewayResult
	}{
		{
			name:  "vnpay success",
			query: "vnp_TransactionStatus=00&vnp_ResponseCode=00&vnp_TransactionNo=14123&vnp_TxnRef=BK001",
			want:  model.GatewayResult{Status: model.PaymentSuccess, TransactionID: "14123", BookingID: "BK001", Message: "payment successful", Provider: model.MethodVNPay},
		},
		{
			name:  "vnpay response code fallback",
			query: "vnp_ResponseCode=01&vnp_TxnRef=BK002",
			want:  model.GatewayResult{Status: model.PaymentPending, BookingID: "BK002", Message: "transaction not completed", Provider: model.MethodVNPay},
		},
		{
			name:  "vnpay failure",
			query: "vnp_TransactionStatus=02&vnp_TxnRef=BK003",
			want:  model.GatewayResult{Status: model.PaymentFailed, BookingID: "BK003", Message: "vnpay code 02", Provider: model.MethodVNPay},
		},
		{
			name:  "momo success",
			query: "resultCode=0&transId=2800&orderId=BK004&message=Successful.",
			want:  model.GatewayResult{Status: model.PaymentSuccess, TransactionID: "2800", BookingID: "BK004", Message: "Successful.", Provider: model.MethodMoMo},
		},
		{
			name:  "momo pending",
			query: "resultCode=7002&orderId=BK005",
			want:  model.GatewayResult{Status: model.PaymentPending, BookingID: "BK005", Provider: model.MethodMoMo},
		},
		{
			name:  "momo failed",
			query: "resultCode=1006&orderId=BK006&message=denied",
			want:  model.GatewayResult{Status: model.PaymentFailed, BookingID: "BK006", Message: "denied", Provider: model.MethodMoMo},
		},
		{
			name:  "zalopay success",
			query: "status=1&apptransid=261016_BK007",
			want:  model.GatewayResult{Status: model.PaymentSuccess, TransactionID: "261016_BK007", BookingID: "BK007", Message: "payment successful", Provider: model.MethodZaloPay},
		},
		{
			name:  "zalopay failed",
			query: "status=-49&apptransid=261016_BK008",
			want:  model.GatewayResult{Status: model.PaymentFailed, TransactionID: "261016_BK008", BookingID: "BK008", Message: "zalopay status -49", Provider: model.MethodZaloPay},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ParseGatewayReturn(q))
		})
	}
}

func TestParseGatewayReturnUnknown(t *testing.T) {
	assert.Equal(t, model.PaymentFailed, ParseGatewayReturn(url.Values{}).Status)
	assert.Equal(t, model.PaymentFailed, ParseGatewayReturn(url.Values{"foo": {"bar"}}).Status)
	assert.Equal(t, model.PaymentFailed, ParseGatewayReturn(url.Values{"status": {"1"}}).Status)
}

func TestParseGatewayReturnURL(t *testing.T) {
	r := ParseGatewayReturnURL("http://localhost:3000/payment/return?resultCode=0&orderId=BK1&transId=9")
	assert.Equal(t, model.PaymentSuccess, r.Status)
	assert.Equal(t, "BK1", r.BookingID)

	assert.Equal(t, model.PaymentFailed, ParseGatewayReturnURL("::bad").Status)
}
