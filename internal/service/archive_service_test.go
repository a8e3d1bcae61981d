package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/domain"
)

// capturePutter records uploaded objects.
type capturePutter struct {
	keys   []string
	bodies []string
	err    error
}

func (p *capturePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if p.err != nil {
		return nil, p.err
	}
	var body strings.Builder
	scanner := bufio.NewScanner(params.Body)
	for scanner.Scan() {
		body.WriteString(scanner.Text())
		body.WriteString("\n")
	}
	p.keys = append(p.keys, *params.Key)
	p.bodies = append(p.bodies, body.String())
	return &s3.PutObjectOutput{}, nil
}

func archiverFixture(auditRepo *mockAuditRepository, putter *capturePutter, cfg ArchiveConfig) *AuditArchiver {
	return NewAuditArchiver(auditRepo, putter, nil, zerolog.Nop(), cfg)
}

func seedEvents(t *testing.T, auditRepo *mockAuditRepository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := auditRepo.Record(context.Background(), domain.NewAuditEvent(domain.AuditLoginFailed, 0, 0, "x")); err != nil {
			t.Fatalf("failed to seed event: %v", err)
		}
	}
}

func TestAuditArchiver_RunOnce(t *testing.T) {
	auditRepo := newMockAuditRepository()
	putter := &capturePutter{}
	archiver := archiverFixture(auditRepo, putter, ArchiveConfig{
		BatchSize: 10,
		Bucket:    "custos-audit",
		Prefix:    "audit/",
	})
	seedEvents(t, auditRepo, 3)

	shipped, err := archiver.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shipped != 3 {
		t.Errorf("expected 3 events shipped, got %d", shipped)
	}

	if len(putter.keys) != 1 {
		t.Fatalf("expected one object, got %v", putter.keys)
	}
	if !strings.HasPrefix(putter.keys[0], "audit/") || !strings.HasSuffix(putter.keys[0], "-3.ndjson") {
		t.Errorf("unexpected object key %q", putter.keys[0])
	}

	lines := strings.Split(strings.TrimSuffix(putter.bodies[0], "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 NDJSON lines, got %d", len(lines))
	}
	var event domain.AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("line is not valid JSON: %v", err)
	}
	if event.Action != domain.AuditLoginFailed {
		t.Errorf("unexpected event in archive: %+v", event)
	}

	// Shipped events are gone from the database.
	if len(auditRepo.events) != 0 {
		t.Errorf("expected shipped events deleted, got %d remaining", len(auditRepo.events))
	}
}

func TestAuditArchiver_RunOnce_NothingToShip(t *testing.T) {
	putter := &capturePutter{}
	archiver := archiverFixture(newMockAuditRepository(), putter, ArchiveConfig{BatchSize: 10, Bucket: "b"})

	shipped, err := archiver.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shipped != 0 {
		t.Errorf("expected 0 events shipped, got %d", shipped)
	}
	if len(putter.keys) != 0 {
		t.Errorf("expected no object for an empty pass, got %v", putter.keys)
	}
}

func TestAuditArchiver_RunOnce_Retain(t *testing.T) {
	auditRepo := newMockAuditRepository()
	putter := &capturePutter{}
	archiver := archiverFixture(auditRepo, putter, ArchiveConfig{
		BatchSize: 10,
		Bucket:    "b",
		Retain:    true,
	})
	seedEvents(t, auditRepo, 2)

	if _, err := archiver.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(auditRepo.events) != 2 {
		t.Errorf("retain mode must keep shipped events, got %d", len(auditRepo.events))
	}

	// A second pass picks up only events past the high-water mark.
	seedEvents(t, auditRepo, 1)
	shipped, err := archiver.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shipped != 1 {
		t.Errorf("expected only the new event shipped, got %d", shipped)
	}
}

func TestAuditArchiver_RunOnce_UploadFailureKeepsEvents(t *testing.T) {
	auditRepo := newMockAuditRepository()
	putter := &capturePutter{err: errors.New("bucket unavailable")}
	archiver := archiverFixture(auditRepo, putter, ArchiveConfig{BatchSize: 10, Bucket: "b"})
	seedEvents(t, auditRepo, 2)

	if _, err := archiver.RunOnce(context.Background()); err == nil {
		t.Fatal("expected upload error")
	}
	if len(auditRepo.events) != 2 {
		t.Errorf("failed upload must not delete events, got %d remaining", len(auditRepo.events))
	}
}

func TestAuditArchiver_RunOnce_DeleteFailureReships(t *testing.T) {
	auditRepo := newMockAuditRepository()
	auditRepo.deleteErr = errors.New("database locked")
	putter := &capturePutter{}
	archiver := archiverFixture(auditRepo, putter, ArchiveConfig{BatchSize: 10, Bucket: "b"})
	seedEvents(t, auditRepo, 2)

	// The pass itself succeeds; deletion failure is deferred to the next one.
	shipped, err := archiver.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shipped != 2 {
		t.Errorf("expected 2 events shipped, got %d", shipped)
	}

	shipped, err = archiver.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shipped != 2 {
		t.Errorf("expected the batch re-shipped after a failed delete, got %d", shipped)
	}
	if len(putter.keys) != 2 {
		t.Errorf("expected two uploads, got %v", putter.keys)
	}
}

func TestAuditArchiver_StartStop(t *testing.T) {
	archiver := archiverFixture(newMockAuditRepository(), &capturePutter{}, ArchiveConfig{
		Interval:  time.Hour,
		BatchSize: 10,
		Bucket:    "b",
	})

	archiver.Start()
	archiver.Start() // second start is a no-op
	archiver.Stop()
	archiver.Stop() // second stop is a no-op
}
