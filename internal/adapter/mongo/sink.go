// Package mongo stores accepted hazard reports in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/config"
	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sink inserts submissions into a collection. It implements submit.Sink.
type Sink struct {
	client *mongo.Client
	col    *mongo.Collection
	logger *slog.Logger
}

// Connect dials MongoDB, verifies the connection, and ensures indexes.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Sink, error) {
	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &Sink{
		client: client,
		col:    client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection),
		logger: logger,
	}
	if err := s.createIndexes(dctx); err != nil {
		logger.Warn("mongo index creation failed", "error", err)
	}
	logger.Info("mongo connected", "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
	return s, nil
}

// Deliver inserts one submission. A document that already exists means an
// earlier attempt landed, so it counts as delivered.
func (s *Sink) Deliver(ctx context.Context, sub domain.Submission) error {
	_, err := s.col.InsertOne(ctx, toDocument(sub))
	if mongo.IsDuplicateKeyError(err) {
		s.logger.Debug("report already stored", "report_id", sub.Receipt.ReportID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert report %s: %w", sub.Receipt.ReportID, err)
	}
	return nil
}

func (s *Sink) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Sink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Sink) createIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "submitted_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "severity", Value: 1}}},
		{Keys: bson.D{{Key: "reporter_id", Value: 1}}},
		{Keys: bson.D{{Key: "geo", Value: "2dsphere"}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return errors.Join(errors.New("create report indexes"), err)
	}
	return nil
}

type document struct {
	ID          string          `bson:"_id"`
	ReportID    string          `bson:"report_id"`
	ReporterID  string          `bson:"reporter_id"`
	Type        string          `bson:"type"`
	Severity    string          `bson:"severity"`
	Status      string          `bson:"status"`
	Description string          `bson:"description"`
	Address     string          `bson:"address"`
	Geo         *point          `bson:"geo,omitempty"`
	Media       []mediaDocument `bson:"media,omitempty"`
	Contact     contactDocument `bson:"contact"`
	SubmittedAt time.Time       `bson:"submitted_at"`
}

// point is a GeoJSON point: coordinates are [lon, lat].
type point struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type mediaDocument struct {
	Name        string `bson:"name"`
	ContentType string `bson:"content_type"`
	Size        int64  `bson:"size"`
}

type contactDocument struct {
	Name  string `bson:"name"`
	Phone string `bson:"phone,omitempty"`
	Email string `bson:"email"`
}

// documentID is stable across retries of the same submission. Report IDs
// alone repeat every thousand seconds, so the reporter and millisecond
// timestamp are part of the key.
func documentID(sub domain.Submission) string {
	return fmt.Sprintf("%s:%s:%d", sub.ReporterID, sub.Receipt.ReportID, sub.Receipt.SubmittedAt.UnixMilli())
}

func toDocument(sub domain.Submission) document {
	r := sub.Report
	doc := document{
		ID:          documentID(sub),
		ReportID:    sub.Receipt.ReportID,
		ReporterID:  sub.ReporterID,
		Type:        string(sub.Receipt.Type),
		Severity:    string(sub.Receipt.Severity),
		Status:      sub.Receipt.Status,
		Description: r.Description,
		Address:     r.Location.Address,
		Contact: contactDocument{
			Name:  r.ContactInfo.Name,
			Phone: r.ContactInfo.Phone,
			Email: r.ContactInfo.Email,
		},
		SubmittedAt: sub.Receipt.SubmittedAt,
	}
	if r.Location.HasCoordinates() {
		doc.Geo = &point{Type: "Point", Coordinates: []float64{r.Location.Longitude, r.Location.Latitude}}
	}
	for _, m := range r.Media {
		doc.Media = append(doc.Media, mediaDocument(m))
	}
	return doc
}
