package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/salus-hms/salus-api/internal/domain/appointment"
	"github.com/salus-hms/salus-api/internal/store"
	"github.com/salus-hms/salus-api/pkg/metrics"
)

// SMSGateway is the slice of the notification channel the notifier depends on.
type SMSGateway interface {
	CreateSMS(ctx context.Context, messageID, content string, userIDs []string) (store.Message, error)
}

// SMSNotifier dispatches best-effort text messages. It participates in no
// transaction: a delivery failure is reported to the caller as a warning and
// never affects the write that triggered it. A circuit breaker sheds load
// from the provider when it is consistently failing.
type SMSNotifier struct {
	gateway SMSGateway
	breaker *gobreaker.CircuitBreaker[store.Message]
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewSMSNotifier(gateway SMSGateway, collector *metrics.Collector, log *zap.Logger) *SMSNotifier {
	settings := gobreaker.Settings{
		Name:        "sms-channel",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &SMSNotifier{
		gateway: gateway,
		breaker: gobreaker.NewCircuitBreaker[store.Message](settings),
		metrics: collector,
		log:     log,
	}
}

// Notify sends content to the single target user.
func (n *SMSNotifier) Notify(ctx context.Context, userID, content string) error {
	msg, err := n.breaker.Execute(func() (store.Message, error) {
		return n.gateway.CreateSMS(ctx, uuid.NewString(), content, []string{userID})
	})
	if err != nil {
		n.countDelivery("error")
		return fmt.Errorf("sending sms: %w", err)
	}

	n.countDelivery("ok")
	n.log.Debug("sms accepted",
		zap.String("message_id", msg.ID),
		zap.String("user_id", userID),
	)
	return nil
}

func (n *SMSNotifier) countDelivery(outcome string) {
	if n.metrics != nil {
		n.metrics.SMSDeliveriesTotal.WithLabelValues(outcome).Inc()
	}
}

const smsGreeting = "Greetings from Salus Health Management System."

// ComposeAppointmentMessage renders the notification text for a state
// transition, with the schedule time formatted in the caller's time zone.
func ComposeAppointmentMessage(kind appointment.UpdateKind, physician string, schedule time.Time, timeZone, cancellationReason string) string {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		loc = time.UTC
	}
	when := schedule.In(loc).Format("Jan 2, 2006 - 3:04 PM")

	if kind == appointment.UpdateKindCancel {
		return fmt.Sprintf("%s We regret to inform that your appointment for %s is cancelled. Reason: %s.",
			smsGreeting, when, cancellationReason)
	}
	return fmt.Sprintf("%s Your appointment is confirmed for %s with Dr. %s.",
		smsGreeting, when, physician)
}
