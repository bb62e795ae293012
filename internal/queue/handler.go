package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/pokegraph/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rabbitmq/amqp091-go"
)

// JobMsg is the body of every queue message.
type JobMsg struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Reset       bool      `json:"reset,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Runner executes the jobs behind the queues.
type Runner interface {
	RunIngest(ctx context.Context, reset bool) error
	RunProcess(ctx context.Context) error
}

// QueueForKind maps a job kind ("ingest" or "process") to its queue.
func QueueForKind(kind string) (string, error) {
	switch kind {
	case "ingest":
		return IngestQueue, nil
	case "process":
		return ProcessQueue, nil
	}
	return "", fmt.Errorf("unknown job kind %q", kind)
}

// PublishJob enqueues a job of the given kind and returns its message.
func PublishJob(ctx context.Context, ch Channel, kind string, reset bool) (*JobMsg, error) {
	queueName, err := QueueForKind(kind)
	if err != nil {
		return nil, err
	}
	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	msg := &JobMsg{ID: id, Kind: kind, Reset: reset, RequestedAt: time.Now().UTC()}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if err := PublishFIFO(ctx, ch, queueName, body); err != nil {
		return nil, fmt.Errorf("failed to publish job: %w", err)
	}

	logger.Info("[Queue] Job published", "job_id", id, "queue", queueName)
	return msg, nil
}

// ProcessMessage decodes a message from queueName and runs its job.
func ProcessMessage(ctx context.Context, runner Runner, queueName string, body []byte) error {
	var msg JobMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("invalid job message: %w", err)
	}

	logger.Info("[Queue] Running job", "job_id", msg.ID, "queue", queueName)

	switch queueName {
	case IngestQueue:
		return runner.RunIngest(ctx, msg.Reset)
	case ProcessQueue:
		return runner.RunProcess(ctx)
	}
	return fmt.Errorf("no handler for queue %q", queueName)
}

func retryCount(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// HandleProcessingError moves a failed delivery to <queue>_retry or, after
// MaxRetries attempts, to <queue>_dlq and acks the original. If publishing
// fails the delivery is requeued. It returns the queue the message went to.
func HandleProcessingError(ctx context.Context, ch Channel, msg amqp091.Delivery, queueName string) string {
	retries := retryCount(msg.Headers)

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}

	target := queueName + "_retry"
	if retries >= MaxRetries {
		target = queueName + "_dlq"
		logger.Warn("[Queue] Sending message to DLQ", "dlq", target, "retries", retries)
	} else {
		headers["x-retries"] = int32(retries + 1)
	}

	err := ch.PublishWithContext(
		ctx,
		"",
		target,
		false,
		false,
		amqp091.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			Headers:      headers,
			DeliveryMode: amqp091.Persistent,
		},
	)
	if err != nil {
		logger.Error("[Queue] Failed to publish failed message", "queue", target, "err", err)
		_ = msg.Nack(false, true)
		return queueName
	}
	_ = msg.Ack(false)
	return target
}
