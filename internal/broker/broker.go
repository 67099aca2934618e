// Package broker moves background work and realtime events through Redis.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/kodemy-backend/internal/config"
	"github.com/stemsi/kodemy-backend/internal/model"
)

// Broker pushes enrollment jobs onto the worker queue and fans order status
// changes out over Pub/Sub.
type Broker struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Broker {
	return &Broker{rdb: rdb}
}

// EnqueueEnrollment queues a paid enrollment for the EnrollmentWorker.
func (b *Broker) EnqueueEnrollment(ctx context.Context, job model.EnrollmentJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := b.rdb.RPush(ctx, config.WorkerKey.EnrollmentQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue enrollment: %w", err)
	}
	return nil
}

// PublishOrderStatus announces a payment status change to stream subscribers.
func (b *Broker) PublishOrderStatus(ctx context.Context, orderID int, status model.PaymentStatus) error {
	raw, err := EncodeStatusEvent(model.OrderStatusEvent{
		OrderID:       orderID,
		PaymentStatus: status,
		UpdatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, config.CacheKey.OrderStatusChannel(orderID), raw).Err()
}

// SubscribeOrderStatus returns a subscription to one order's status channel.
// The caller must Close it.
func (b *Broker) SubscribeOrderStatus(ctx context.Context, orderID int) *redis.PubSub {
	return b.rdb.Subscribe(ctx, config.CacheKey.OrderStatusChannel(orderID))
}

// WatchOrderStatus subscribes to one order's status channel and decodes its
// events until ctx ends or stop is called. The subscription is confirmed
// before returning, so no event published afterwards is missed.
func (b *Broker) WatchOrderStatus(ctx context.Context, orderID int) (<-chan model.OrderStatusEvent, func(), error) {
	pubsub := b.SubscribeOrderStatus(ctx, orderID)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe order %d: %w", orderID, err)
	}

	events := make(chan model.OrderStatusEvent)
	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	go func() {
		defer close(events)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ev, err := DecodeStatusEvent(msg.Payload)
				if err != nil {
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()

	return events, stop, nil
}

func EncodeStatusEvent(ev model.OrderStatusEvent) ([]byte, error) {
	return json.Marshal(ev)
}

func DecodeStatusEvent(payload string) (model.OrderStatusEvent, error) {
	var ev model.OrderStatusEvent
	err := json.Unmarshal([]byte(payload), &ev)
	return ev, err
}
