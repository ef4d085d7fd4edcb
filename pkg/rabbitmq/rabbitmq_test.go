package rabbitmq_test

import (
	"testing"
	"time"

	"taskapi/internal/models"
	"taskapi/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublishing(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	event := models.TaskEvent{Type: models.TaskCreated, TaskID: 7, Username: "jjimenez", Machine: "host-a", OccurredAt: at}

	msg, err := rabbitmq.NewPublishing(event)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, models.TaskCreated, msg.Type)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, at, msg.Timestamp)
	assert.JSONEq(t, `{"type":"task.created","taskId":7,"username":"jjimenez","machine":"host-a","occurredAt":"2024-05-01T10:00:00Z"}`, string(msg.Body))

	decoded, err := rabbitmq.DecodeTaskEvent(amqp.Delivery{Body: msg.Body})
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestLogTaskEvent(t *testing.T) {
	assert.Error(t, rabbitmq.LogTaskEvent(amqp.Delivery{Body: []byte("{not json")}))
	assert.NoError(t, rabbitmq.LogTaskEvent(amqp.Delivery{Body: []byte(`{"type":"task.deleted","taskId":3}`)}))
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := rabbitmq.NewClient(rabbitmq.Config{URL: "http://localhost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to RabbitMQ")
}
