package payment

import (
	"net/url"
	"strings"

	"github.com/vexeviet/seat-hold/internal/model"
)

// ParseGatewayReturn turns the query a gateway appends to the return URL
// into a GatewayResult.  The provider is recognised by its parameters;
// anything unrecognised is a failure.
func ParseGatewayReturn(q url.Values) model.GatewayResult {
	switch {
	case q.Has("vnp_TransactionStatus") || q.Has("vnp_ResponseCode"):
		return parseVNPay(q)
	case q.Has("resultCode"):
		return parseMoMo(q)
	case q.Has("apptransid") && q.Has("status"):
		return parseZaloPay(q)
	}
	return model.GatewayResult{Status: model.PaymentFailed, Message: "unrecognised payment return"}
}

// ParseGatewayReturnURL parses a full return URL.
func ParseGatewayReturnURL(raw string) model.GatewayResult {
	u, err := url.Parse(raw)
	if err != nil {
		return model.GatewayResult{Status: model.PaymentFailed, Message: "malformed return url"}
	}
	return ParseGatewayReturn(u.Query())
}

func parseVNPay(q url.Values) model.GatewayResult {
	code := q.Get("vnp_TransactionStatus")
	if code == "" {
		code = q.Get("vnp_ResponseCode")
	}
	r := model.GatewayResult{
		Provider:      model.MethodVNPay,
		TransactionID: q.Get("vnp_TransactionNo"),
		BookingID:     q.Get("vnp_TxnRef"),
	}
	switch code {
	case "00":
		r.Status = model.PaymentSuccess
		r.Message = "payment successful"
	case "01":
		r.Status = model.PaymentPending
		r.Message = "transaction not completed"
	default:
		r.Status = model.PaymentFailed
		r.Message = "vnpay code " + code
	}
	return r
}

func parseMoMo(q url.Values) model.GatewayResult {
	r := model.GatewayResult{
		Provider:      model.MethodMoMo,
		TransactionID: q.Get("transId"),
		BookingID:     q.Get("orderId"),
		Message:       q.Get("message"),
	}
	switch q.Get("resultCode") {
	case "0":
		r.Status = model.PaymentSuccess
	case "1000", "7000", "7002":
		r.Status = model.PaymentPending
	default:
		r.Status = model.PaymentFailed
	}
	return r
}

func parseZaloPay(q url.Values) model.GatewayResult {
	appTransID := q.Get("apptransid")
	r := model.GatewayResult{
		Provider:      model.MethodZaloPay,
		TransactionID: appTransID,
		BookingID:     appTransID,
	}
	// apptransid is yymmdd_<booking id>.
	if i := strings.IndexByte(appTransID, '_'); i >= 0 {
		r.BookingID = appTransID[i+1:]
	}
	if q.Get("status") == "1" {
		r.Status = model.PaymentSuccess
		r.Message = "payment successful"
	} else {
		r.Status = model.PaymentFailed
		r.Message = "zalopay status " + q.Get("status")
	}
	return r
}
