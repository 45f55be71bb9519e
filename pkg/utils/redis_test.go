package utils

import (
	"testing"
	"time"
)

func TestLeaseScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if leaseAcquireScript == nil || leaseReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}

func TestNewDispatchLease_RequiresClientAndKey(t *testing.T) {
	if _, err := NewDispatchLease(nil, "k", time.Minute); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
