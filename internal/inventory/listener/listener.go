package listener

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-bar-service/internal/deduction"
	"github.com/fekuna/omnipos-bar-service/internal/inventory"
	"github.com/fekuna/omnipos-bar-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-bar-service/internal/logger"
	"github.com/fekuna/omnipos-bar-service/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventTypeSalesRecorded = "SalesRecorded"

// MessageReader is the part of broker.KafkaConsumer the listener needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type SalesListener struct {
	consumer MessageReader
	uc       inventory.UseCase
	logger   logger.ZapLogger
}

func NewSalesListener(consumer MessageReader, uc inventory.UseCase, logger logger.ZapLogger) *SalesListener {
	return &SalesListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *SalesListener) Start(ctx context.Context) {
	l.logger.Info("Starting Sales Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Sales Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type SalesRecordedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   SalesPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type SalesPayload struct {
	ID    string             `json:"id"`
	Lines []SalesLinePayload `json:"lines"`
}

type SalesLinePayload struct {
	Cocktail string  `json:"cocktail"`
	Quantity float64 `json:"quantity"`
}

// toTable shapes an event like an uploaded sales sheet so it goes through the same aggregation.
func (p *SalesPayload) toTable() model.Table {
	table := model.Table{Header: []string{"item", "qty"}}
	for _, line := range p.Lines {
		table.Rows = append(table.Rows, []string{line.Cocktail, strconv.FormatFloat(line.Quantity, 'f', -1, 64)})
	}
	return table
}

func (l *SalesListener) processMessage(ctx context.Context, value []byte) {
	var event SalesRecordedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != EventTypeSalesRecorded {
		return
	}

	l.logger.Info("Processing SalesRecorded event", zap.String("sales_id", event.Payload.ID))

	report, err := l.uc.ImportSales(ctx, &dto.ImportSalesInput{
		Source: "kafka:" + event.Payload.ID,
		Table:  event.Payload.toTable(),
		UserID: "system",
	})
	if err != nil {
		var formatErr *deduction.InputFormatError
		if errors.As(err, &formatErr) {
			l.logger.Warn("Dropping malformed sales event",
				zap.String("sales_id", event.Payload.ID),
				zap.Error(err),
			)
			return
		}
		l.logger.Error("Failed to import sales event",
			zap.String("sales_id", event.Payload.ID),
			zap.Error(err),
		)
		return
	}

	for _, line := range report.Lines() {
		l.logger.Debug(line, zap.String("sales_id", event.Payload.ID))
	}
}
