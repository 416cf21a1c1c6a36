package utils

import "sync"

// BookingConfirmation is the payload handed to the notification worker
// after a payment verifies successfully
type BookingConfirmation struct {
	Email            string
	BookingReference string
	ListingTitle     string
	Amount           string
}

const notificationQueueSize = 64

var (
	notificationQueue chan BookingConfirmation
	notifierOnce      sync.Once

	// swapped out in tests
	sendConfirmation = func(n BookingConfirmation) error {
		return SendBookingConfirmationEmail(n.Email, n.BookingReference, n.ListingTitle, n.Amount)
	}
)

// StartNotificationWorker starts the background goroutine that drains the
// confirmation queue. Delivery is best-effort: failures are logged and
// never surface to the payment caller.
func StartNotificationWorker() {
	notifierOnce.Do(func() {
		notificationQueue = make(chan BookingConfirmation, notificationQueueSize)
		go func() {
			for n := range notificationQueue {
				if err := sendConfirmation(n); err != nil {
					LogError("Failed to send booking confirmation to %s for %s: %v",
						n.Email, n.BookingReference, err)
					continue
				}
				LogInfo("Sent booking confirmation to %s for %s", n.Email, n.BookingReference)
			}
		}()
	})
}

// EnqueueBookingConfirmation hands a confirmation to the worker without
// blocking the caller. If the queue is full or the worker was never
// started, the notification is dropped and logged.
func EnqueueBookingConfirmation(n BookingConfirmation) {
	if notificationQueue == nil {
		LogDebug("Notification worker not running, dropping confirmation for %s", n.Email)
		return
	}
	select {
	case notificationQueue <- n:
	default:
		LogError("Notification queue full, dropping confirmation for %s", n.Email)
	}
}
