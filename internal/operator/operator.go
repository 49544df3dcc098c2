package operator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-assistant/internal/operator/actions"
	"github.com/carson-networks/finance-assistant/internal/storage"
)

// Operator is the worker that processes items from the queue.
type Operator struct {
	id      int
	storage *storage.Storage
	queue   chan ActionItem
	logger  logrus.FieldLogger
}

func NewOperator(id int, s *storage.Storage, queue chan ActionItem, logger logrus.FieldLogger) *Operator {
	return &Operator{
		id:      id,
		storage: s,
		queue:   queue,
		logger:  logger.WithField("operator", id),
	}
}

// Run listens to the queue and processes items. Exits when the queue is closed.
func (o *Operator) Run() {
	for item := range o.queue {
		o.processItem(item)
	}
}

func (o *Operator) processItem(item ActionItem) {
	// The caller gave up while the item was queued.
	if item.ctx.Err() != nil {
		item.response <- ActionItemResponse{err: item.ctx.Err()}
		return
	}

	start := time.Now()
	actionName := fmt.Sprintf("%T", item.action)

	writer, err := o.storage.Write(item.ctx)
	if err != nil {
		item.response <- ActionItemResponse{err: err}
		return
	}

	err = item.action.Perform(item.ctx, writer)
	if err != nil {
		if rbErr := writer.Rollback(); rbErr != nil {
			o.logger.WithError(rbErr).Warn("Operator.Rollback.Error")
		}
		o.logger.WithError(err).WithField("action", actionName).Warn("Operator.Perform.Error")
		item.response <- ActionItemResponse{err: err}
		return
	}

	if err = writer.Commit(); err != nil {
		item.response <- ActionItemResponse{err: err}
		return
	}

	o.logger.WithFields(logrus.Fields{
		"action":     actionName,
		"durationMs": time.Since(start).Milliseconds(),
	}).Debug("Operator.Perform.Complete")
	item.response <- ActionItemResponse{}
}

type ActionItem struct {
	ctx      context.Context
	action   actions.IAction
	response chan ActionItemResponse
}

type ActionItemResponse struct {
	err error
}
