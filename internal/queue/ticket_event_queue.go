package queue

import (
	"context"

	"go-gin-helpdesk/internal/model"
)

type Delivery struct {
	Data *model.TicketEvent
	Ack  func()
	Nack func(requeue bool)
}

type TicketEventQueue interface {
	// 發送工單事件到隊列
	Publish(ctx context.Context, event *model.TicketEvent) error
	// 訂閱工單事件隊列
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}

type MemoryTicketEventQueue struct {
	// Go channel 模擬 MQ 隊列
	ch chan *model.TicketEvent
}

func NewMemoryTicketEventQueue(bufferSize int) TicketEventQueue {
	return &MemoryTicketEventQueue{
		ch: make(chan *model.TicketEvent, bufferSize),
	}
}

func (q *MemoryTicketEventQueue) Publish(ctx context.Context, event *model.TicketEvent) error {
	select {
	case q.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryTicketEventQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-q.ch:
				if !ok {
					return
				}

				d := Delivery{
					Data: event,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if requeue {
							// back of the line; dropped if the buffer is full
							select {
							case q.ch <- event:
							default:
							}
						}
					},
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
