package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"overcooked-admin/admin-svc/internal/domain"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Handler interface {
	Apply(ctx context.Context, ev domain.MutationEvent) (bool, error)
}

type Consumer struct {
	Reader  MessageReader
	Handler Handler
	Logger  *zap.SugaredLogger
}

func NewConsumer(reader MessageReader, handler Handler, logger *zap.SugaredLogger) *Consumer {
	return &Consumer{
		Reader:  reader,
		Handler: handler,
		Logger:  logger,
	}
}

// Start reads until ctx is cancelled or the reader is closed.
func (c *Consumer) Start(ctx context.Context) {
	c.Logger.Infow("starting mutation event consumer")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.Logger.Infow("mutation event consumer stopped")
				return
			}
			c.Logger.Errorw("error reading message", "error", err)
			continue
		}
		c.Process(ctx, message)
	}
}

func (c *Consumer) Process(ctx context.Context, message kafka.Message) {
	var ev domain.MutationEvent
	if err := json.Unmarshal(message.Value, &ev); err != nil {
		c.Logger.Warnw("error unmarshaling message", "offset", message.Offset, "error", err)
		return
	}
	if ev.Type != domain.EventListMutated {
		return
	}

	applied, err := c.Handler.Apply(ctx, ev)
	if err != nil {
		c.Logger.Errorw("error applying mutation event", "resource", ev.Resource, "key", ev.CacheKey, "error", err)
		return
	}
	if applied {
		c.Logger.Infow("remote mutation applied", "resource", ev.Resource, "key", ev.CacheKey, "origin", ev.Origin)
	}
}
