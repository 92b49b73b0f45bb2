// Package notification delivers card-usage alerts as web push messages.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"elevator-access-backend/config"
	"elevator-access-backend/internal/model"
	"elevator-access-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Alert is the JSON payload delivered to the browser.
type Alert struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	UnitNumber string `json:"unitNumber"`
	CardType   string `json:"cardType"`
	Action     string `json:"action"`
	EntryID    int64  `json:"entryId"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan model.CommandEntry
	subs    store.Subscriptions
	webpush *webpush.Options
	sender  NotificationSender
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// Options builds the webpush options from the push configuration.
func Options(cfg config.PushConfig) *webpush.Options {
	return &webpush.Options{
		Subscriber:      cfg.Subject,
		VAPIDPublicKey:  cfg.PublicKey,
		VAPIDPrivateKey: cfg.PrivateKey,
		TTL:             cfg.TTL,
	}
}

// NewWorkerPool creates a new worker pool. queueSize bounds the number of
// alerts waiting for a worker.
func NewWorkerPool(size, queueSize int, subs store.Subscriptions, webpushOptions *webpush.Options, logger *zap.Logger) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.CommandEntry, queueSize),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
		logger:  logger.Named("notification"),
	}
}

// Start launches the worker goroutines. They exit when ctx is done.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.logger.Debug("worker started", zap.Int("worker", id))
	for {
		select {
		case entry := <-wp.jobs:
			wp.sendAlertsForEntry(ctx, entry)
		case <-ctx.Done():
			wp.logger.Debug("worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues an alert for the entry. It never blocks: when the queue
// is full the alert is dropped.
func (wp *WorkerPool) Dispatch(entry model.CommandEntry) {
	select {
	case wp.jobs <- entry:
	default:
		wp.logger.Warn("notification queue full, dropping alert",
			zap.Int64("entry_id", entry.ID),
			zap.String("unit", entry.UnitNumber))
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.CommandEntry {
	return wp.jobs
}

func newAlert(entry model.CommandEntry) Alert {
	return Alert{
		Title:      "Elevator access",
		Body:       fmt.Sprintf("Card %s used on unit %s (%s)", entry.CardType, entry.UnitNumber, entry.Action),
		UnitNumber: entry.UnitNumber,
		CardType:   string(entry.CardType),
		Action:     string(entry.Action),
		EntryID:    entry.ID,
	}
}

// sendAlertsForEntry notifies every subscription registered for the unit.
func (wp *WorkerPool) sendAlertsForEntry(ctx context.Context, entry model.CommandEntry) {
	subscriptions, err := wp.subs.ListSubscriptionsByUnit(ctx, entry.UnitNumber)
	if err != nil {
		wp.logger.Error("fetching subscriptions failed", zap.String("unit", entry.UnitNumber), zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(newAlert(entry))
	if err != nil {
		wp.logger.Error("encoding alert failed", zap.Error(err))
		return
	}

	wp.logger.Info("sending alerts",
		zap.Int("count", len(subscriptions)),
		zap.String("unit", entry.UnitNumber))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.logger.Warn("sending notification failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.logger.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.logger.Error("deleting expired subscription failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
