package jobscoordinator

import (
	"testing"
	"time"

	"github.com/ArkinSolomon/xpkg-core/pkg/jobsproto"
)

func TestVerifyServicePassword(t *testing.T) {
	c := New(Config{ServicePassword: "s3cr3t"})
	if !c.VerifyServicePassword("s3cr3t") {
		t.Error("expected the correct password to verify")
	}
	if c.VerifyServicePassword("wrong") {
		t.Error("expected an incorrect password to fail")
	}
}

func TestRegisterJobIsIdempotent(t *testing.T) {
	c := New(Config{JobTimeout: time.Hour})
	job := jobsproto.NewPackagingJob("xpkg/demo", "1.0.0")

	key1, err := c.RegisterJob(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ActiveJobCount() != 1 {
		t.Fatalf("expected 1 active job, got %d", c.ActiveJobCount())
	}

	key2, err := c.RegisterJob(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key1 != key2 {
		t.Errorf("expected the same key for the same job, got %q and %q", key1, key2)
	}
	if c.ActiveJobCount() != 1 {
		t.Errorf("expected re-registering the same job to be a no-op, got %d active jobs", c.ActiveJobCount())
	}
}

func TestExpired(t *testing.T) {
	c := New(Config{JobTimeout: 10 * time.Millisecond})
	job := jobsproto.NewPackagingJob("xpkg/demo", "1.0.0")
	key, err := c.RegisterJob(job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Expired(key) {
		t.Error("expected a freshly registered job not to be expired")
	}
	time.Sleep(20 * time.Millisecond)
	if !c.Expired(key) {
		t.Error("expected the job to be expired after its timeout elapsed")
	}
}

func TestDeregister(t *testing.T) {
	c := New(Config{JobTimeout: time.Hour})
	job := jobsproto.NewPackagingJob("xpkg/demo", "1.0.0")
	key, _ := c.RegisterJob(job)
	c.Deregister(key)
	if c.ActiveJobCount() != 0 {
		t.Errorf("expected 0 active jobs after deregister, got %d", c.ActiveJobCount())
	}
}
