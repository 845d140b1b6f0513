package state

import (
	"errors"
	"math/big"
	"testing"

	"htlcvault/native/htlc"
	"htlcvault/storage"
)

func testRecord(id uint64) *htlc.Escrow {
	var sender, recipient [20]byte
	sender[0] = 0xAA
	recipient[0] = 0xBB
	var hash [32]byte
	hash[0] = 0x42
	return &htlc.Escrow{
		ID:            id,
		Sender:        sender,
		Recipient:     recipient,
		Amount:        big.NewInt(1_000_000),
		UnlockHeight:  110,
		SecretHash:    hash,
		CreatedHeight: 100,
		Status:        htlc.StatusOpen,
	}
}

func TestInsertGetRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	record := testRecord(1)
	if err := m.HTLCInsert(record); err != nil {
		t.Fatalf("insert: %v", err)
	}
	loaded, err := m.HTLCGet(1)
	if err != nil {
		t.Fatalf("get after insert: %v", err)
	}
	if loaded.ID != record.ID ||
		loaded.Sender != record.Sender ||
		loaded.Recipient != record.Recipient ||
		loaded.UnlockHeight != record.UnlockHeight ||
		loaded.SecretHash != record.SecretHash ||
		loaded.CreatedHeight != record.CreatedHeight ||
		loaded.Status != record.Status {
		t.Fatalf("round trip mismatch: %+v vs %+v", loaded, record)
	}
	if loaded.Amount.Cmp(record.Amount) != 0 {
		t.Fatalf("amount mismatch: %s vs %s", loaded.Amount, record.Amount)
	}
}

func TestInsertDuplicateID(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	if err := m.HTLCInsert(testRecord(1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := m.HTLCInsert(testRecord(1)); !errors.Is(err, htlc.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if total, _ := m.HTLCCount(); total != 1 {
		t.Fatalf("duplicate insert must not bump the counter, got %d", total)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	if err := m.HTLCUpdate(testRecord(7)); !errors.Is(err, htlc.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePersistsTerminalStatus(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	record := testRecord(1)
	if err := m.HTLCInsert(record); err != nil {
		t.Fatalf("insert: %v", err)
	}
	record.Status = htlc.StatusClaimed
	if err := m.HTLCUpdate(record); err != nil {
		t.Fatalf("update: %v", err)
	}
	loaded, err := m.HTLCGet(1)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if loaded.Status != htlc.StatusClaimed {
		t.Fatalf("expected claimed, got %s", loaded.Status)
	}
}

func TestGetMissingRecordReportsNotFound(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	if _, err := m.HTLCGet(404); !errors.Is(err, htlc.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCounterReadFaultDoesNotResetAllocator(t *testing.T) {
	db := newFaultDB()
	m := NewManager(db)
	if _, err := m.HTLCNextID(); err != nil {
		t.Fatalf("next id: %v", err)
	}

	boom := errors.New("disk read failed")
	db.failGets[string(htlcNextIDKey)] = boom
	if _, err := m.HTLCNextID(); !errors.Is(err, boom) {
		t.Fatalf("next id must surface the read fault, got %v", err)
	}

	// Once the fault clears, the allocator resumes from the persisted value
	// instead of restarting at 1.
	delete(db.failGets, string(htlcNextIDKey))
	id, err := m.HTLCNextID()
	if err != nil {
		t.Fatalf("next id after fault: %v", err)
	}
	if id != 2 {
		t.Fatalf("expected id 2 after fault, got %d", id)
	}
}

func TestRecordReadFaultIsNotAbsence(t *testing.T) {
	db := newFaultDB()
	m := NewManager(db)
	if err := m.HTLCInsert(testRecord(1)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	boom := errors.New("disk read failed")
	db.failGets[string(htlcStorageKey(1))] = boom
	if _, err := m.HTLCGet(1); !errors.Is(err, boom) {
		t.Fatalf("get must surface the read fault, got %v", err)
	}
	if _, err := m.HTLCGet(1); errors.Is(err, htlc.ErrNotFound) {
		t.Fatal("a read fault must not be reported as absence")
	}
}

func TestInsertWritesRecordAndCounterAtomically(t *testing.T) {
	db := newFaultDB()
	m := NewManager(db)

	db.failBatch = errors.New("batch write failed")
	if err := m.HTLCInsert(testRecord(1)); err == nil {
		t.Fatal("expected insert to fail on batch write")
	}
	if _, err := m.HTLCGet(1); !errors.Is(err, htlc.ErrNotFound) {
		t.Fatalf("no record may exist after a failed batch, got %v", err)
	}
	if total, err := m.HTLCCount(); err != nil || total != 0 {
		t.Fatalf("counter must be untouched after a failed batch: total=%d err=%v", total, err)
	}

	db.failBatch = nil
	if err := m.HTLCInsert(testRecord(1)); err != nil {
		t.Fatalf("insert after fault: %v", err)
	}
	if _, err := m.HTLCGet(1); err != nil {
		t.Fatalf("get after insert: %v", err)
	}
	if total, _ := m.HTLCCount(); total != 1 {
		t.Fatalf("expected total 1, got %d", total)
	}
}

func TestNextIDIsMonotonicAndStartsAtOne(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	for want := uint64(1); want <= 5; want++ {
		id, err := m.HTLCNextID()
		if err != nil {
			t.Fatalf("next id: %v", err)
		}
		if id != want {
			t.Fatalf("expected id %d, got %d", want, id)
		}
	}
}

func TestCountersSurviveReopen(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)
	if _, err := m.HTLCNextID(); err != nil {
		t.Fatalf("next id: %v", err)
	}
	if err := m.HTLCInsert(testRecord(1)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// A fresh manager over the same database sees the persisted counters.
	reopened := NewManager(db)
	id, err := reopened.HTLCNextID()
	if err != nil {
		t.Fatalf("next id after reopen: %v", err)
	}
	if id != 2 {
		t.Fatalf("expected id 2 after reopen, got %d", id)
	}
	total, err := reopened.HTLCCount()
	if err != nil {
		t.Fatalf("count after reopen: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected total 1 after reopen, got %d", total)
	}
}
