package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewService(t *testing.T) {
	meta := Metadata{
		Service:     "test-service",
		Version:     "1.0.0",
		Environment: "test",
	}

	service := NewService(meta)

	if service == nil {
		t.Fatal("expected service to be created, got nil")
	}

	if service.meta != meta {
		t.Error("expected service to have the provided metadata")
	}

	if service.startedAt.IsZero() {
		t.Error("expected startedAt to be set")
	}
}

func TestService_Status(t *testing.T) {
	meta := Metadata{
		Service:     "test-service",
		Version:     "1.0.0",
		Environment: "test",
	}

	service := NewService(meta)
	startTime := service.startedAt

	// Wait a bit to ensure uptime is calculated
	time.Sleep(10 * time.Millisecond)

	ctx := context.Background()
	status := service.Status(ctx)

	if status.Service != meta.Service {
		t.Errorf("expected service %q, got %q", meta.Service, status.Service)
	}

	if status.Version != meta.Version {
		t.Errorf("expected version %q, got %q", meta.Version, status.Version)
	}

	if status.Environment != meta.Environment {
		t.Errorf("expected environment %q, got %q", meta.Environment, status.Environment)
	}

	if status.Status != "UP" {
		t.Errorf("expected status 'UP', got %q", status.Status)
	}

	if !status.StartedAt.Equal(startTime) {
		t.Errorf("expected startedAt to match service start time")
	}

	if status.UptimeSecs < 0 {
		t.Errorf("expected uptimeSecs to be non-negative, got %d", status.UptimeSecs)
	}

	if status.Uptime == "" {
		t.Error("expected uptime to be set")
	}

	// Verify uptime is reasonable (should be non-negative)
	if status.UptimeSecs < 0 {
		t.Errorf("expected uptimeSecs >= 0, got %d", status.UptimeSecs)
	}
}

func TestService_Status_UptimeCalculation(t *testing.T) {
	meta := Metadata{
		Service:     "test",
		Version:     "1.0.0",
		Environment: "test",
	}

	service := NewService(meta)
	time.Sleep(100 * time.Millisecond)

	status := service.Status(context.Background())

	// Uptime should be at least 100ms
	if status.UptimeSecs < 0 {
		t.Errorf("expected uptimeSecs >= 0, got %d", status.UptimeSecs)
	}

	// Verify uptime string is not empty
	if status.Uptime == "" {
		t.Error("expected uptime string to be non-empty")
	}
}

type stubChecker struct {
	name string
	err  error
}

func (c stubChecker) Name() string { return c.name }

func (c stubChecker) Check(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("check called without deadline")
	}
	return c.err
}

func TestService_Status_Dependencies(t *testing.T) {
	service := NewService(Metadata{Service: "ms_ecf_core"},
		stubChecker{name: "postgres"},
		stubChecker{name: "xmllint"},
	)

	status := service.Status(context.Background())

	if status.Status != "UP" {
		t.Errorf("expected status 'UP', got %q", status.Status)
	}

	expected := []string{"postgres", "xmllint"}
	if len(status.Dependencies) != len(expected) {
		t.Fatalf("expected %d dependencies, got %v", len(expected), status.Dependencies)
	}
	for i, name := range expected {
		dep := status.Dependencies[i]
		if dep.Name != name {
			t.Errorf("expected dependency %q at %d, got %q", name, i, dep.Name)
		}
		if dep.Status != "UP" || dep.Error != "" {
			t.Errorf("expected %s to be UP without error, got %+v", name, dep)
		}
		if dep.LatencyMs < 0 {
			t.Errorf("expected non-negative latency, got %v", dep.LatencyMs)
		}
	}
}

func TestService_Status_Degraded(t *testing.T) {
	service := NewService(Metadata{Service: "ms_ecf_core"},
		stubChecker{name: "postgres", err: errors.New("connection refused")},
		stubChecker{name: "xmllint"},
	)

	status := service.Status(context.Background())

	if status.Status != "DEGRADED" {
		t.Errorf("expected status 'DEGRADED', got %q", status.Status)
	}
	if status.Healthy() {
		t.Error("expected degraded status not to be healthy")
	}

	if len(status.Dependencies) != 2 {
		t.Fatalf("expected 2 dependencies, got %v", status.Dependencies)
	}
	down := status.Dependencies[0]
	if down.Name != "postgres" || down.Status != "DOWN" || down.Error != "connection refused" {
		t.Errorf("unexpected postgres dependency: %+v", down)
	}
	if status.Dependencies[1].Status != "UP" {
		t.Errorf("expected xmllint to stay UP, got %+v", status.Dependencies[1])
	}
}

type slowChecker struct{}

func (slowChecker) Name() string { return "slow" }

func (slowChecker) Check(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestService_Status_CheckerDeadline(t *testing.T) {
	service := NewService(Metadata{Service: "ms_ecf_core"}, slowChecker{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	status := service.Status(ctx)

	if status.Status != "DEGRADED" {
		t.Errorf("expected status 'DEGRADED', got %q", status.Status)
	}
	if got := status.Dependencies[0].Error; got != context.DeadlineExceeded.Error() {
		t.Errorf("expected deadline error, got %q", got)
	}
}
