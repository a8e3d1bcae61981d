package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/metrics"
	"github.com/custos-id/custos/internal/repository"
)

// ObjectPutter is the slice of the S3 API the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// AuditArchiver periodically ships audit events to S3-compatible object
// storage as newline-delimited JSON batches. Shipped events are deleted
// from the database unless retention is configured.
type AuditArchiver struct {
	auditRepo repository.AuditRepository
	client    ObjectPutter
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	config    ArchiveConfig

	// lastArchivedID tracks progress when shipped events are retained.
	lastArchivedID int64

	// Control
	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// ArchiveConfig contains audit archival configuration.
type ArchiveConfig struct {
	// Interval is how often to run an archival pass.
	Interval time.Duration

	// BatchSize is the maximum number of events to ship per pass.
	BatchSize int

	// Bucket is the destination bucket.
	Bucket string

	// Prefix is prepended to every object key.
	Prefix string

	// Retain keeps shipped events in the database when true.
	Retain bool
}

// DefaultArchiveConfig returns sensible defaults.
func DefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Interval:  1 * time.Hour,
		BatchSize: 1000,
		Prefix:    "audit/",
		Retain:    false,
	}
}

// NewAuditArchiver creates a new audit archiver.
func NewAuditArchiver(
	auditRepo repository.AuditRepository,
	client ObjectPutter,
	m *metrics.Metrics,
	logger zerolog.Logger,
	config ArchiveConfig,
) *AuditArchiver {
	return &AuditArchiver{
		auditRepo: auditRepo,
		client:    client,
		metrics:   m,
		logger:    logger.With().Str("service", "archive").Logger(),
		config:    config,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start begins the archival scheduler.
func (a *AuditArchiver) Start() {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.mu.Unlock()

	a.logger.Info().
		Dur("interval", a.config.Interval).
		Int("batch_size", a.config.BatchSize).
		Str("bucket", a.config.Bucket).
		Msg("starting audit archiver")

	go a.runLoop()
}

// Stop stops the archival scheduler.
func (a *AuditArchiver) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.mu.Unlock()

	close(a.stopChan)
	<-a.doneChan

	a.logger.Info().Msg("audit archiver stopped")
}

// runLoop is the main archival loop.
func (a *AuditArchiver) runLoop() {
	defer close(a.doneChan)

	ticker := time.NewTicker(a.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := a.RunOnce(context.Background()); err != nil {
				a.logger.Error().Err(err).Msg("archival pass failed")
			}
		case <-a.stopChan:
			return
		}
	}
}

// RunOnce executes a single archival pass and returns the number of events
// shipped. A pass with nothing to ship writes no object.
func (a *AuditArchiver) RunOnce(ctx context.Context) (int, error) {
	events, err := a.auditRepo.ListAfter(ctx, a.lastArchivedID, a.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list audit events: %w", err)
	}
	if len(events) == 0 {
		a.logger.Debug().Msg("no audit events to archive")
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			return 0, fmt.Errorf("failed to encode audit event: %w", err)
		}
	}

	maxID := events[len(events)-1].ID
	key := fmt.Sprintf("%s%s-%d.ndjson",
		a.config.Prefix,
		time.Now().UTC().Format("2006-01-02T15-04-05"),
		maxID,
	)

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload audit archive: %w", err)
	}

	if a.config.Retain {
		a.lastArchivedID = maxID
	} else {
		deleted, err := a.auditRepo.DeleteThrough(ctx, maxID)
		if err != nil {
			// The batch is safely in object storage; the next pass will
			// re-ship it under a new key rather than lose it.
			a.logger.Error().Err(err).Msg("failed to delete archived audit events")
		} else {
			a.logger.Debug().Int64("deleted", deleted).Msg("archived audit events deleted")
		}
	}

	if a.metrics != nil {
		a.metrics.AuditEventsArchived.Add(float64(len(events)))
	}

	a.logger.Info().
		Int("events", len(events)).
		Str("key", key).
		Msg("audit events archived")

	return len(events), nil
}
