package razorpay

import (
	"errors"

	"github.com/tidwall/gjson"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// Event holds the webhook fields billing acts on.
type Event struct {
	Type             string
	OrderID          string
	PaymentID        string
	Amount           int64
	Currency         string
	ErrorDescription string
}

var ErrMalformedEvent = errors.New("malformed razorpay event")

// ParseEvent extracts the event type and the order and payment identifiers.
// The order id comes from the payment entity, or the order entity for
// order.paid events that carry no payment.
func ParseEvent(body []byte) (*Event, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedEvent
	}
	root := gjson.ParseBytes(body)
	ev := &Event{Type: root.Get("event").String()}
	if ev.Type == "" {
		return nil, ErrMalformedEvent
	}
	payment := root.Get("payload.payment.entity")
	ev.PaymentID = payment.Get("id").String()
	ev.OrderID = payment.Get("order_id").String()
	ev.Amount = payment.Get("amount").Int()
	ev.Currency = payment.Get("currency").String()
	ev.ErrorDescription = payment.Get("error_description").String()
	if ev.OrderID == "" {
		order := root.Get("payload.order.entity")
		ev.OrderID = order.Get("id").String()
		if ev.Amount == 0 {
			ev.Amount = order.Get("amount_paid").Int()
		}
		if ev.Currency == "" {
			ev.Currency = order.Get("currency").String()
		}
	}
	return ev, nil
}
