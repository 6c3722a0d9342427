package credential_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/domain/credential"
)

// fakeRepository is an in-memory credential.Repository double keyed by
// project ID, mirroring the pack's func-field mock style for handler/service
// tests.
type fakeRepository struct {
	mu      sync.Mutex
	byID    map[string]*credential.Key
	touched map[string]time.Time
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{byID: make(map[string]*credential.Key), touched: make(map[string]time.Time)}
}

func (f *fakeRepository) Create(ctx context.Context, key *credential.Key) (*credential.Key, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *key
	f.byID[key.ProjectID] = &clone
	return &clone, nil
}

func (f *fakeRepository) FindActiveByProject(ctx context.Context, projectID string) (*credential.Key, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.byID[projectID]
	if !ok || !k.IsActive {
		return nil, nil
	}
	clone := *k
	return &clone, nil
}

func (f *fakeRepository) FindByProjectAndHash(ctx context.Context, projectID, keyHash string) (*credential.Key, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.byID[projectID]
	if !ok || k.KeyHash != keyHash {
		return nil, nil
	}
	clone := *k
	return &clone, nil
}

func (f *fakeRepository) List(ctx context.Context) ([]credential.Key, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []credential.Key
	for _, k := range f.byID {
		out = append(out, *k)
	}
	return out, nil
}

func (f *fakeRepository) Revoke(ctx context.Context, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if k, ok := f.byID[projectID]; ok {
		k.IsActive = false
	}
	return nil
}

func (f *fakeRepository) TouchLastUsed(ctx context.Context, id string, when time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[id] = when
	return nil
}

func TestServiceCreateKeyFormat(t *testing.T) {
	svc := credential.NewService(newFakeRepository(), "live", zerolog.Nop())

	rec, raw, err := svc.CreateKey(context.Background(), "proj-1", "test key", "tester")
	if err != nil {
		t.Fatalf("CreateKey() error = %v", err)
	}
	if rec.ProjectID != "proj-1" || !rec.IsActive {
		t.Fatalf("CreateKey() record = %+v", rec)
	}
	if len(raw) != len("sa_live_")+32 {
		t.Fatalf("CreateKey() raw key = %q, unexpected length", raw)
	}
}

func TestServiceCreateKeyRejectsSecondActiveKey(t *testing.T) {
	svc := credential.NewService(newFakeRepository(), "live", zerolog.Nop())
	ctx := context.Background()

	if _, _, err := svc.CreateKey(ctx, "proj-1", "", ""); err != nil {
		t.Fatalf("first CreateKey() error = %v", err)
	}
	if _, _, err := svc.CreateKey(ctx, "proj-1", "", ""); err != credential.ErrAlreadyActive {
		t.Fatalf("second CreateKey() error = %v, want ErrAlreadyActive", err)
	}
}

func TestServiceCreateKeyRequiresProjectID(t *testing.T) {
	svc := credential.NewService(newFakeRepository(), "live", zerolog.Nop())
	if _, _, err := svc.CreateKey(context.Background(), "  ", "", ""); err == nil {
		t.Fatalf("CreateKey() with blank projectId: want error, got nil")
	}
}

func TestServiceValidateRoundTrip(t *testing.T) {
	svc := credential.NewService(newFakeRepository(), "live", zerolog.Nop())
	ctx := context.Background()

	_, raw, err := svc.CreateKey(ctx, "proj-1", "", "")
	if err != nil {
		t.Fatalf("CreateKey() error = %v", err)
	}

	if !svc.Validate(ctx, "proj-1", raw) {
		t.Fatalf("Validate() = false for freshly issued key")
	}
	if svc.Validate(ctx, "proj-1", "not-a-key") {
		t.Fatalf("Validate() = true for malformed key")
	}
	if svc.Validate(ctx, "proj-2", raw) {
		t.Fatalf("Validate() = true for a key presented against the wrong project")
	}
}

func TestServiceDescribeAndRevoke(t *testing.T) {
	svc := credential.NewService(newFakeRepository(), "live", zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Describe(ctx, "unknown"); err != credential.ErrNotFound {
		t.Fatalf("Describe() on unknown project error = %v, want ErrNotFound", err)
	}

	if _, _, err := svc.CreateKey(ctx, "proj-1", "desc", "alice"); err != nil {
		t.Fatalf("CreateKey() error = %v", err)
	}

	rec, err := svc.Describe(ctx, "proj-1")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if rec.CreatedBy != "alice" {
		t.Fatalf("Describe() = %+v", rec)
	}

	if err := svc.Revoke(ctx, "proj-1"); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, err := svc.Describe(ctx, "proj-1"); err != credential.ErrNotFound {
		t.Fatalf("Describe() after Revoke() error = %v, want ErrNotFound", err)
	}
}

func TestServiceRevokeUnknownProject(t *testing.T) {
	svc := credential.NewService(newFakeRepository(), "live", zerolog.Nop())
	if err := svc.Revoke(context.Background(), "unknown"); err != credential.ErrNotFound {
		t.Fatalf("Revoke() on unknown project error = %v, want ErrNotFound", err)
	}
}

func TestServiceDefaultsInvalidEnvToLive(t *testing.T) {
	svc := credential.NewService(newFakeRepository(), "staging", zerolog.Nop())
	_, raw, err := svc.CreateKey(context.Background(), "proj-1", "", "")
	if err != nil {
		t.Fatalf("CreateKey() error = %v", err)
	}
	if raw[:8] != "sa_live_" {
		t.Fatalf("CreateKey() raw = %q, want sa_live_ prefix for invalid env", raw)
	}
}
