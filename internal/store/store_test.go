package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caduceon/acteledger/internal/record"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testAct(businessNumber string) record.Act {
	return record.Act{
		BusinessNumber:   businessNumber,
		SubjectRef:       "patient-7731",
		SuggestedCode:    "HBQK002",
		ReferenceVersion: "v2026",
		Justification:    "initial coding",
		Author:           "bob",
		CreatedAt:        time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		State:            record.StatePending,
	}
}

func registrationEntry(seq int64) record.AuditEntry {
	return record.AuditEntry{
		Seq:         seq,
		Action:      record.ActionActRegistered,
		EntityType:  record.EntityAct,
		Actor:       "bob",
		Timestamp:   time.Date(2026, 1, 2, 10, 0, int(seq), 0, time.UTC),
		OldValues:   record.Snapshot{},
		NewValues:   record.Fields("lifecycle_state", string(record.StatePending)),
		ExternalRef: "ref-reg",
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	if _, err := s1.InsertAct(ctx, testAct("NDA-1"), registrationEntry(1)); err != nil {
		t.Fatalf("InsertAct() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	act, err := s2.GetActByBusinessNumber(ctx, "NDA-1")
	if err != nil {
		t.Fatalf("GetActByBusinessNumber() after reopen failed: %v", err)
	}
	if act.State != record.StatePending {
		t.Errorf("state = %s, want pending", act.State)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestMaxSeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seq, err := s.MaxSeq(ctx)
	if err != nil {
		t.Fatalf("MaxSeq() on empty store failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("MaxSeq() on empty store = %d, want 0", seq)
	}

	if _, err := s.InsertAct(ctx, testAct("NDA-1"), registrationEntry(5)); err != nil {
		t.Fatalf("InsertAct() failed: %v", err)
	}

	seq, err = s.MaxSeq(ctx)
	if err != nil {
		t.Fatalf("MaxSeq() failed: %v", err)
	}
	if seq != 5 {
		t.Errorf("MaxSeq() = %d, want 5", seq)
	}
}
