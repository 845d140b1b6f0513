package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"htlcvault/native/htlc"
	"htlcvault/storage"
)

var (
	htlcRecordPrefix = []byte("htlc-record-")
	htlcNextIDKey    = ethcrypto.Keccak256([]byte("htlc-next-id"))
	htlcCountKey     = ethcrypto.Keccak256([]byte("htlc-total-created"))
)

func htlcStorageKey(id uint64) []byte {
	buf := make([]byte, len(htlcRecordPrefix)+8)
	copy(buf, htlcRecordPrefix)
	binary.BigEndian.PutUint64(buf[len(htlcRecordPrefix):], id)
	return ethcrypto.Keccak256(buf)
}

// storedEscrow is the RLP persistence shape of an escrow record.
type storedEscrow struct {
	ID            uint64
	Sender        [20]byte
	Recipient     [20]byte
	Amount        *big.Int
	UnlockHeight  uint64
	SecretHash    [32]byte
	CreatedHeight uint64
	Status        uint8
}

func newStoredEscrow(e *htlc.Escrow) *storedEscrow {
	if e == nil {
		return nil
	}
	amount := big.NewInt(0)
	if e.Amount != nil {
		amount = new(big.Int).Set(e.Amount)
	}
	return &storedEscrow{
		ID:            e.ID,
		Sender:        e.Sender,
		Recipient:     e.Recipient,
		Amount:        amount,
		UnlockHeight:  e.UnlockHeight,
		SecretHash:    e.SecretHash,
		CreatedHeight: e.CreatedHeight,
		Status:        uint8(e.Status),
	}
}

func (s *storedEscrow) toEscrow() (*htlc.Escrow, error) {
	if s == nil {
		return nil, fmt.Errorf("state: nil escrow storage record")
	}
	out := &htlc.Escrow{
		ID:            s.ID,
		Sender:        s.Sender,
		Recipient:     s.Recipient,
		Amount:        big.NewInt(0),
		UnlockHeight:  s.UnlockHeight,
		SecretHash:    s.SecretHash,
		CreatedHeight: s.CreatedHeight,
		Status:        htlc.Status(s.Status),
	}
	if s.Amount != nil {
		out.Amount = new(big.Int).Set(s.Amount)
	}
	if !out.Status.Valid() {
		return nil, fmt.Errorf("state: invalid escrow status: %d", s.Status)
	}
	return out, nil
}

// loadCounter treats only an absent key as zero; a failed read must not reset
// a persisted counter.
func (m *Manager) loadCounter(key []byte) (uint64, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("state: load counter: %w", err)
	}
	if len(data) == 0 {
		return 0, nil
	}
	value := new(big.Int).SetBytes(data)
	if value.BitLen() > 63 {
		return 0, fmt.Errorf("state: counter overflow")
	}
	return value.Uint64(), nil
}

func (m *Manager) writeCounter(key []byte, value uint64) error {
	return m.db.Put(key, new(big.Int).SetUint64(value).Bytes())
}

// HTLCNextID returns the next unused escrow identifier, starting at 1, and
// advances the persisted counter so the same value is never handed out twice.
func (m *Manager) HTLCNextID() (uint64, error) {
	current, err := m.loadCounter(htlcNextIDKey)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := m.writeCounter(htlcNextIDKey, next); err != nil {
		return 0, err
	}
	return next, nil
}

// HTLCCount returns the number of escrows ever created.
func (m *Manager) HTLCCount() (uint64, error) {
	return m.loadCounter(htlcCountKey)
}

func encodeRecord(e *htlc.Escrow) (key []byte, encoded []byte, err error) {
	sanitized, err := htlc.Sanitize(e)
	if err != nil {
		return nil, nil, err
	}
	encoded, err = rlp.EncodeToBytes(newStoredEscrow(sanitized))
	if err != nil {
		return nil, nil, err
	}
	return htlcStorageKey(sanitized.ID), encoded, nil
}

func (m *Manager) put(e *htlc.Escrow) error {
	key, encoded, err := encodeRecord(e)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// HTLCInsert persists a new record and bumps the total-created counter. The
// record and the counter land in a single batch so no failure can leave one
// written without the other. It fails with htlc.ErrDuplicateID when the id is
// already present.
func (m *Manager) HTLCInsert(e *htlc.Escrow) error {
	if e == nil {
		return fmt.Errorf("state: nil escrow")
	}
	key, encoded, err := encodeRecord(e)
	if err != nil {
		return err
	}
	exists, err := m.db.Has(key)
	if err != nil {
		return err
	}
	if exists {
		return htlc.ErrDuplicateID
	}
	total, err := m.loadCounter(htlcCountKey)
	if err != nil {
		return err
	}
	return m.db.WriteBatch([]storage.KeyValue{
		{Key: key, Value: encoded},
		{Key: htlcCountKey, Value: new(big.Int).SetUint64(total + 1).Bytes()},
	})
}

// HTLCGet loads a record by id. Absence reports htlc.ErrNotFound; any other
// error is a storage or decoding fault.
func (m *Manager) HTLCGet(id uint64) (*htlc.Escrow, error) {
	data, err := m.db.Get(htlcStorageKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, htlc.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("state: load escrow: %w", err)
	}
	if len(data) == 0 {
		return nil, htlc.ErrNotFound
	}
	stored := new(storedEscrow)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, fmt.Errorf("state: decode escrow: %w", err)
	}
	return stored.toEscrow()
}

// HTLCUpdate overwrites an existing record. It fails with htlc.ErrNotFound
// when the id is absent; validation of the transition itself is the engine's
// responsibility.
func (m *Manager) HTLCUpdate(e *htlc.Escrow) error {
	if e == nil {
		return fmt.Errorf("state: nil escrow")
	}
	exists, err := m.db.Has(htlcStorageKey(e.ID))
	if err != nil {
		return err
	}
	if !exists {
		return htlc.ErrNotFound
	}
	return m.put(e)
}
