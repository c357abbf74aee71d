package service

import "time"

// SetCheckoutClock pins the clock used for receipts and event timestamps.
func SetCheckoutClock(svc CheckoutService, now func() time.Time) {
	svc.(*checkoutService).now = now
}
