//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/adapter/kafka"
	"github.com/couchcryptid/rainwater-assessment/internal/analysis"
	"github.com/couchcryptid/rainwater-assessment/internal/config"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/couchcryptid/rainwater-assessment/internal/pipeline"
	"github.com/couchcryptid/rainwater-assessment/internal/wizard"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "test-assessments"

// producedMessage holds a deserialized message read from the topic.
type producedMessage struct {
	Event   domain.AssessmentEvent
	Key     string
	Headers map[string]string
}

func readProduced(ctx context.Context, t *testing.T, consumer *kafkago.Reader) producedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event domain.AssessmentEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal message")

	return producedMessage{Event: event, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func sampleEvent(id, session string) domain.AssessmentEvent {
	return domain.AssessmentEvent{
		ID:          id,
		SessionID:   session,
		Name:        "Asha Rao",
		Mobile:      "9876543210",
		Email:       "asha@example.com",
		Coordinates: &domain.Coordinates{Latitude: 19.076, Longitude: 72.8777},
		RooftopArea: 350,
		Analysis: domain.AnalysisResult{
			AverageRainfall:     1150,
			RecommendedTankSize: 322,
			MonthlyStorage:      26833,
			ConstructionCost:    70000,
			Location:            "Mumbai, Maharashtra",
		},
		HasImage:    true,
		CompletedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

// TestKafkaWriter verifies that kafka.Writer produces keyed events with
// their headers.
func TestKafkaWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	ev := sampleEvent("evt-1", "sess-1")
	require.NoError(t, writer.LoadBatch(ctx, []domain.AssessmentEvent{ev}))

	pm := readProduced(ctx, t, newConsumer(t, broker))
	assert.Equal(t, "sess-1", pm.Key)
	assert.Equal(t, "evt-1", pm.Headers["event_id"])
	assert.Equal(t, kafka.EventType, pm.Headers["event_type"])
	assert.Equal(t, "2026-03-14T10:00:00Z", pm.Headers["completed_at"])
	assert.Equal(t, "true", pm.Headers["has_image"])
	assert.Equal(t, ev, pm.Event)
}

// TestAssessmentDispatchEndToEnd completes a wizard session and verifies
// that its completion event reaches Kafka through the queue and pipeline.
func TestAssessmentDispatchEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	metrics := observability.NewMetricsForTesting()
	logger := discardLogger()

	queue := pipeline.NewQueue(16, 200*time.Millisecond, nil, metrics)
	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })
	p := pipeline.New(queue, writer, logger, metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	src := analysis.NewSource(42)
	runner := analysis.NewRunner(analysis.NewEngine(src), analysis.NewMockNamer(src), nil, 0, logger, metrics)
	sess := wizard.NewSession(ctx, "sess-e2e", wizard.Capabilities{}, wizard.Deps{
		Analyzer:      runner,
		Publisher:     queue,
		Logger:        logger,
		Metrics:       metrics,
		MaxImageBytes: domain.MaxImageBytes,
	})

	_, err := sess.SubmitPersonalInfo(ctx, "Asha Rao", "9876543210", "asha@example.com")
	require.NoError(t, err)
	_, err = sess.SubmitLocation(ctx, "19.076", "72.8777")
	require.NoError(t, err)
	_, err = sess.UploadImage("image/png", roofPNG(t))
	require.NoError(t, err)
	_, err = sess.SubmitRooftop(ctx)
	require.NoError(t, err)

	rec, err := sess.Results()
	require.NoError(t, err)

	pm := readProduced(ctx, t, newConsumer(t, broker))
	assert.Equal(t, "sess-e2e", pm.Key)
	assert.Equal(t, "Asha Rao", pm.Event.Name)
	assert.Equal(t, *rec.RooftopArea, pm.Event.RooftopArea)
	assert.Equal(t, *rec.Analysis, pm.Event.Analysis)
	assert.True(t, pm.Event.HasImage)
	assert.NotEmpty(t, pm.Headers["event_id"])

	pipelineCancel()
	require.NoError(t, <-errCh)
}

func roofPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.RGBA{R: 140, G: 110, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
