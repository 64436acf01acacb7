// Package dispatch fans a delivery record out to every configured
// channel. Channels are independent: one failing must never block or
// cancel another, so each is supervised by its own errgroup.Group
// member whose errors are logged, not propagated — mirroring the
// teacher's errgroup.WithContext use in client/client.go's Run, adapted
// here to swallow per-channel errors instead of aborting the group.
package dispatch

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jschultzelutter/mowas-beacon/internal/dispatch/email"
	"github.com/jschultzelutter/mowas-beacon/internal/dispatch/notifier"
	"github.com/jschultzelutter/mowas-beacon/internal/dispatch/smstransport"
	"github.com/jschultzelutter/mowas-beacon/internal/model"
)

// EmailChannel, if non-nil, receives a fully formatted email per
// delivery record.
type EmailChannel struct {
	Sender *email.Sender
}

// SMSChannel, if non-nil, receives segmented short-message
// notifications built from rec.SMSMessage (or rec.Description when no
// summarizer ran).
type SMSChannel struct {
	Sender       smstransport.Sender
	MaxLength    int
	SplitEnabled bool
}

// NotifierChannel, if non-nil, receives the full-content notification.
type NotifierChannel struct {
	Sink notifier.Sink
}

// Dispatcher fans a record out to its configured channels.
type Dispatcher struct {
	Email    *EmailChannel
	SMS      *SMSChannel
	Notifier *NotifierChannel
}

// Send delivers rec to every configured channel concurrently. It
// returns only construction-level errors (there are none today; the
// return value exists so a future channel with a hard startup
// dependency can surface one) — per-channel delivery failures are
// logged and otherwise swallowed, per spec.md §4.7.
func (d *Dispatcher) Send(ctx context.Context, rec model.DeliveryRecord) error {
	g, _ := errgroup.WithContext(ctx)

	if d.Email != nil {
		g.Go(func() error {
			if err := d.Email.Sender.Send(rec); err != nil {
				log.Warn().Err(err).Str("identifier", rec.Identifier).Msg("email dispatch failed")
			}
			return nil
		})
	}

	if d.SMS != nil {
		g.Go(func() error {
			message := rec.SMSMessage
			if message == "" {
				message = rec.Description
			}
			err := smstransport.SendAll(ctx, d.SMS.Sender, message, d.SMS.MaxLength, d.SMS.SplitEnabled, rec.PriorityHigh)
			if err != nil {
				log.Warn().Err(err).Str("identifier", rec.Identifier).Msg("sms dispatch failed")
			}
			return nil
		})
	}

	if d.Notifier != nil {
		g.Go(func() error {
			msg := notifier.Format(rec)
			if err := d.Notifier.Sink.Notify(ctx, msg); err != nil {
				log.Warn().Err(err).Bool("retryable", notifier.Retryable(err)).
					Str("identifier", rec.Identifier).Msg("notifier dispatch failed")
			}
			return nil
		})
	}

	return g.Wait()
}
