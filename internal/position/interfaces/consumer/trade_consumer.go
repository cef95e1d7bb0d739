// Package consumer 消费上游成交事件并驱动持仓更新
package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/positionkeeping/internal/position/domain"
	"github.com/wyfcoding/positionkeeping/pkg/logger"
	"github.com/wyfcoding/positionkeeping/pkg/metrics"
	"github.com/wyfcoding/positionkeeping/pkg/mq"
)

// messageSource 消息拉取与位点提交
type messageSource interface {
	FetchMessage(ctx context.Context) (*mq.Message, error)
	CommitMessages(ctx context.Context, messages ...*mq.Message) error
}

// deadLetterSink 死信写入
type deadLetterSink interface {
	Send(ctx context.Context, originalMessage *mq.Message, reason string, cause error) error
}

// tradeHandler 成交事件处理用例
type tradeHandler interface {
	HandleTrade(ctx context.Context, trade *domain.TradeEvent) (*domain.Position, error)
}

// TradeConsumer 成交事件入站适配器
//
// 分区位点是单一水位线：一旦提交了更高的位点，之前未处理的消息
// 就永远不会重投。因此消费循环在当前消息处理完结（成功提交或
// 转入死信）之前绝不拉取下一条：可重试失败在原地退避重试，
// 持续失败触发熔断后转入死信主题再提交，事件不丢失也不越过。
type TradeConsumer struct {
	source  messageSource
	dlq     deadLetterSink
	handler tradeHandler
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics

	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
}

// NewTradeConsumer 创建成交事件消费者
func NewTradeConsumer(source messageSource, dlq deadLetterSink, handler tradeHandler, m *metrics.Metrics) *TradeConsumer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "trade-consumer",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
	})

	return &TradeConsumer{
		source:         source,
		dlq:            dlq,
		handler:        handler,
		breaker:        breaker,
		metrics:        m,
		retryBaseDelay: 500 * time.Millisecond,
		retryMaxDelay:  30 * time.Second,
	}
}

// Run 启动消费循环，直到 ctx 取消
func (c *TradeConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.source.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			logger.Error(ctx, "Failed to fetch trade message", "error", err)
			return err
		}

		if err := c.handle(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// handle 处理单条消息直到其位点可以前进：处理尝试失败则原地退避重试。
// 连续失败会使熔断器打开，随后的尝试走死信路径，重试因此有界。
func (c *TradeConsumer) handle(ctx context.Context, msg *mq.Message) error {
	if c.metrics != nil {
		c.metrics.TradesConsumedTotal.Inc()
	}

	delay := c.retryBaseDelay
	for {
		if c.process(ctx, msg) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.retryMaxDelay {
			delay = c.retryMaxDelay
		}
	}
}

// process 对消息做一次处理尝试，返回位点是否已可前进
func (c *TradeConsumer) process(ctx context.Context, msg *mq.Message) bool {
	trade, err := decodeTrade(msg)
	if err != nil {
		// 字段非法的事件重投也无法修复，直接转死信后提交
		logger.Error(ctx, "Unprocessable trade message, routing to dead letter",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return c.deadLetter(ctx, msg, "validation", err)
	}

	ctx = logger.WithCorrelationID(ctx, trade.CorrelationID)
	logger.Info(ctx, "Received trade for position update",
		"trade_id", trade.TradeID,
		"partition", msg.Partition,
		"offset", msg.Offset,
	)

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return c.handler.HandleTrade(ctx, trade)
	})

	switch {
	case err == nil:
		if commitErr := c.source.CommitMessages(ctx, msg); commitErr != nil {
			// 持仓已持久化，重放会重复应用；位点由后续消息的提交覆盖
			logger.Error(ctx, "Failed to commit offset", "trade_id", trade.TradeID, "error", commitErr)
			return true
		}
		logger.Debug(ctx, "Position updated for trade", "trade_id", trade.TradeID)
		return true

	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		// 熔断打开：转死信而不是静默丢弃
		logger.Error(ctx, "Circuit breaker open, routing trade to dead letter",
			"trade_id", trade.TradeID,
			"error", err,
		)
		return c.deadLetter(ctx, msg, "circuit-open", err)

	case domain.IsValidationError(err):
		return c.deadLetter(ctx, msg, "validation", err)

	default:
		// 可重试失败：不提交位点，原地重试同一条消息
		logger.Error(ctx, "Failed to update position, retrying in place",
			"trade_id", trade.TradeID,
			"error", err,
		)
		return false
	}
}

// deadLetter 将原始消息转入死信主题，成功后提交位点；
// 死信写入失败时位点不前进，消息在下一次尝试中重走死信路径
func (c *TradeConsumer) deadLetter(ctx context.Context, msg *mq.Message, reason string, cause error) bool {
	if err := c.dlq.Send(ctx, msg, reason, cause); err != nil {
		logger.Error(ctx, "Failed to send message to dead letter topic", "offset", msg.Offset, "error", err)
		return false
	}
	if c.metrics != nil {
		c.metrics.DeadLetteredTotal.Inc()
	}
	if err := c.source.CommitMessages(ctx, msg); err != nil {
		// 死信已落盘，不再重发；位点由后续消息的提交覆盖
		logger.Error(ctx, "Failed to commit offset after dead letter", "offset", msg.Offset, "error", err)
	}
	return true
}

// tradePayload 入站成交事件的线格式
type tradePayload struct {
	TradeID       string `json:"tradeId"`
	CorrelationID string `json:"correlationId"`
	Side          string `json:"side"`
	Quantity      string `json:"quantity"`
	Price         string `json:"price"`
	TradeDate     string `json:"tradeDate"`
	Currency      string `json:"currency"`
	Account       struct {
		AccountID   int64  `json:"accountId"`
		AccountCode string `json:"accountCode"`
	} `json:"account"`
	Instrument struct {
		InstrumentID int64  `json:"instrumentId"`
		Symbol       string `json:"symbol"`
	} `json:"instrument"`
}

func decodeTrade(msg *mq.Message) (*domain.TradeEvent, error) {
	var payload tradePayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return nil, &domain.ValidationError{Field: "payload", Reason: fmt.Sprintf("is not valid JSON: %v", err)}
	}

	quantity, err := decimal.NewFromString(payload.Quantity)
	if err != nil {
		return nil, &domain.ValidationError{Field: "quantity", Reason: fmt.Sprintf("is not a valid decimal: %q", payload.Quantity)}
	}
	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		return nil, &domain.ValidationError{Field: "price", Reason: fmt.Sprintf("is not a valid decimal: %q", payload.Price)}
	}
	tradeDate, err := time.Parse(time.DateOnly, payload.TradeDate)
	if err != nil {
		return nil, &domain.ValidationError{Field: "tradeDate", Reason: fmt.Sprintf("is not an ISO date: %q", payload.TradeDate)}
	}

	trade := &domain.TradeEvent{
		TradeID:       payload.TradeID,
		CorrelationID: payload.CorrelationID,
		Side:          domain.Side(payload.Side),
		Quantity:      quantity,
		Price:         price,
		TradeDate:     tradeDate,
		Currency:      payload.Currency,
		AccountID:     payload.Account.AccountID,
		AccountCode:   payload.Account.AccountCode,
		InstrumentID:  payload.Instrument.InstrumentID,
		Symbol:        payload.Instrument.Symbol,
	}
	if err := trade.Validate(); err != nil {
		return nil, err
	}
	return trade, nil
}
