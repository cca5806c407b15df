package worker

import (
	"context"
	"errors"

	"go-gin-helpdesk/internal/queue"
	"go-gin-helpdesk/internal/service"
	apperrors "go-gin-helpdesk/pkg/app_errors"
	"go-gin-helpdesk/pkg/logger"

	"go.uber.org/zap"
)

type TicketEventWorker interface {
	// 訂閱工單事件隊列，直到 ctx 結束
	Start(ctx context.Context) error
}

type TicketEventWorkerImpl struct {
	service service.TicketService
	queue   queue.TicketEventQueue
}

func NewTicketEventWorker(service service.TicketService, queue queue.TicketEventQueue) TicketEventWorker {
	return &TicketEventWorkerImpl{
		service: service,
		queue:   queue,
	}
}

func (w *TicketEventWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	log := logger.WithComponent("worker")

	go func() {
		for msg := range msgs {
			if msg.Data == nil {
				msg.Nack(false)
				continue
			}

			err := w.service.RecordEvent(ctx, msg.Data)
			switch {
			case err == nil:
				msg.Ack()
			case errors.Is(err, apperrors.ErrInvalidInput):
				// 無效事件重試也不會成功，直接丟棄
				log.Warn("discarding invalid ticket event",
					zap.Int("ticket_id", msg.Data.TicketID),
					zap.String("action", string(msg.Data.Action)),
				)
				msg.Nack(false)
			default:
				// 資料庫暫時連不上，重新排隊
				log.Error("failed to record ticket event",
					zap.Int("ticket_id", msg.Data.TicketID),
					zap.Error(err),
				)
				msg.Nack(true)
			}
		}
		log.Info("ticket event worker stopped")
	}()
	return nil
}
