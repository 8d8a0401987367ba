//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0", kafka.WithClusterID("shore-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// startMongo runs a MongoDB server and returns its connection string.
func startMongo(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err, "start mongodb container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	return uri
}

func testReport() domain.Report {
	owner := domain.NewIdentity("it-user", "priya.n@example.com", nil)
	r := domain.NewDraft(owner)
	r.Type = domain.HazardStormSurge
	r.Severity = domain.SeverityCritical
	r.Description = "surge over the harbour wall"
	r.Location = domain.Location{Latitude: 19.7983, Longitude: 85.8249, Address: "Puri Beach"}
	r.Media = append(r.Media, domain.MediaRef{Name: "surge.mp4", ContentType: "video/mp4", Size: 4_000_000})
	return r
}
