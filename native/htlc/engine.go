package htlc

import (
	"bytes"
	"errors"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"htlcvault/core/events"
	"htlcvault/core/types"
)

var (
	errNilState  = errors.New("htlc engine: state not configured")
	errNilLedger = errors.New("htlc engine: ledger not configured")
	errNilOracle = errors.New("htlc engine: height source not configured")
)

// engineState is the record-store and allocator surface the engine mutates
// through. Insert fails with ErrDuplicateID when the id is already present;
// Get and Update fail with ErrNotFound when it is absent, and surface any
// other storage fault as-is. No transition logic lives behind this interface.
type engineState interface {
	HTLCInsert(*Escrow) error
	HTLCGet(id uint64) (*Escrow, error)
	HTLCUpdate(*Escrow) error
	HTLCNextID() (uint64, error)
	HTLCCount() (uint64, error)
	HoldingAddress() [20]byte
}

// Ledger moves fungible balance between accounts. Transfer is atomic: it
// either fully succeeds or leaves both accounts untouched, reporting
// ErrInsufficientBalance when the source cannot cover the amount.
type Ledger interface {
	Transfer(from, to [20]byte, amount *big.Int) error
	BalanceOf(addr [20]byte) (*big.Int, error)
}

// HeightSource exposes the external block height. Readings are monotonically
// non-decreasing and outside the engine's control.
type HeightSource interface {
	CurrentHeight() uint64
}

type escrowEvent struct {
	evt *types.Event
}

func (e escrowEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e escrowEvent) Event() *types.Event { return e.evt }

// Engine wires the escrow state machine with the external ledger, height
// oracle and event emitter. Every mutating operation validates its full
// precondition set before any value movement, moves value through the ledger,
// and only then commits the record change: transfer-then-commit, never the
// reverse. A single mutex serializes mutating operations, preserving the
// single-writer contract in a concurrent host.
type Engine struct {
	mu      sync.Mutex
	state   engineState
	ledger  Ledger
	heights HeightSource
	owner   [20]byte
	emitter events.Emitter
}

// NewEngine creates an escrow engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the record-store backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the value-transfer backend used by the engine.
func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

// SetHeightSource configures the external height oracle.
func (e *Engine) SetHeightSource(src HeightSource) { e.heights = src }

// SetOwner configures the privileged identity allowed to cancel escrows
// before their unlock height.
func (e *Engine) SetOwner(owner [20]byte) { e.owner = owner }

// Owner returns the configured privileged identity.
func (e *Engine) Owner() [20]byte { return e.owner }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(escrowEvent{evt: event})
}

func (e *Engine) ensureConfigured() error {
	switch {
	case e == nil, e.state == nil:
		return errNilState
	case e.ledger == nil:
		return errNilLedger
	case e.heights == nil:
		return errNilOracle
	}
	return nil
}

func (e *Engine) currentHeight() uint64 {
	return e.heights.CurrentHeight()
}

// LockHash computes the hash commitment for a secret. Claims succeed only
// when the supplied preimage hashes to the stored commitment.
func LockHash(secret []byte) [32]byte {
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(secret))
	return out
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// Create locks amount from the caller behind the supplied hash commitment,
// addressed to recipient, claimable at currentHeight+blocksAhead. The funds
// move to the module holding account before the record is inserted; a failed
// insert returns the funds. This is the only operation that can fail for
// insufficient funds.
func (e *Engine) Create(caller, recipient [20]byte, amount *big.Int, blocksAhead uint64, secretHash [32]byte) (*Escrow, error) {
	if err := e.ensureConfigured(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if blocksAhead == 0 {
		return nil, ErrInvalidHeight
	}
	balance, err := e.ledger.BalanceOf(caller)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amt) < 0 {
		return nil, ErrInsufficientBalance
	}
	id, err := e.state.HTLCNextID()
	if err != nil {
		return nil, err
	}
	// The allocator is monotonic, so a collision here means corrupted state.
	if _, err := e.state.HTLCGet(id); err == nil {
		return nil, ErrDuplicateID
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	height := e.currentHeight()
	esc := &Escrow{
		ID:            id,
		Sender:        caller,
		Recipient:     recipient,
		Amount:        amt,
		UnlockHeight:  height + blocksAhead,
		SecretHash:    secretHash,
		CreatedHeight: height,
		Status:        StatusOpen,
	}
	if err := e.ledger.Transfer(caller, e.state.HoldingAddress(), amt); err != nil {
		return nil, err
	}
	if err := e.state.HTLCInsert(esc); err != nil {
		if compErr := e.ledger.Transfer(e.state.HoldingAddress(), caller, amt); compErr != nil {
			return nil, errors.Join(err, compErr)
		}
		return nil, err
	}
	e.emit(NewCreatedEvent(esc))
	return esc.Clone(), nil
}

// Claim pays the escrowed amount to the recipient once the unlock height is
// reached and the supplied secret hashes to the stored commitment.
// Preconditions are checked in order; the first failure wins and leaves the
// record and the ledger untouched.
func (e *Engine) Claim(caller [20]byte, id uint64, secret []byte) (*Escrow, error) {
	if err := e.ensureConfigured(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	esc, err := e.state.HTLCGet(id)
	if err != nil {
		return nil, err
	}
	if caller != esc.Recipient {
		return nil, ErrNotAuthorized
	}
	if Finalized(esc) {
		return nil, ErrAlreadyFinalized
	}
	if !HeightReached(esc, e.currentHeight()) {
		return nil, ErrHeightNotReached
	}
	hash := LockHash(secret)
	if !bytes.Equal(hash[:], esc.SecretHash[:]) {
		return nil, ErrInvalidSecret
	}
	return e.finalize(esc, esc.Recipient, StatusClaimed, NewClaimedEvent)
}

// Refund returns the escrowed amount to the depositor once the unlock height
// is reached. No secret is required; refund is purely height-gated.
func (e *Engine) Refund(caller [20]byte, id uint64) (*Escrow, error) {
	if err := e.ensureConfigured(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	esc, err := e.state.HTLCGet(id)
	if err != nil {
		return nil, err
	}
	if caller != esc.Sender {
		return nil, ErrNotAuthorized
	}
	if Finalized(esc) {
		return nil, ErrAlreadyFinalized
	}
	if !HeightReached(esc, e.currentHeight()) {
		return nil, ErrHeightNotReached
	}
	return e.finalize(esc, esc.Sender, StatusRefunded, NewRefundedEvent)
}

// EmergencyCancel returns the escrowed amount to the depositor before the
// unlock height. Only the configured owner may invoke it; at or past the
// unlock height the window has closed and refund/claim take over. Cancel
// shares the refunded terminal with the ordinary refund path.
func (e *Engine) EmergencyCancel(caller [20]byte, id uint64) (*Escrow, error) {
	if err := e.ensureConfigured(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return nil, ErrNotAuthorized
	}
	esc, err := e.state.HTLCGet(id)
	if err != nil {
		return nil, err
	}
	if Finalized(esc) {
		return nil, ErrAlreadyFinalized
	}
	if HeightReached(esc, e.currentHeight()) {
		return nil, ErrAlreadyExpired
	}
	return e.finalize(esc, esc.Sender, StatusRefunded, NewCancelledEvent)
}

// finalize moves the escrowed amount out of the holding account and commits
// the terminal status. The transfer precedes the commit; a failed commit
// compensates the transfer so the record is never left terminal without the
// value having moved, nor vice versa. A failed compensation is joined into
// the returned error: the ledger and record have diverged and the operator
// must see both causes.
func (e *Engine) finalize(esc *Escrow, payout [20]byte, status Status, eventFn func(*Escrow) *types.Event) (*Escrow, error) {
	amount := cloneBigInt(esc.Amount)
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	holding := e.state.HoldingAddress()
	if err := e.ledger.Transfer(holding, payout, amount); err != nil {
		return nil, err
	}
	esc.Status = status
	if err := e.state.HTLCUpdate(esc); err != nil {
		if compErr := e.ledger.Transfer(payout, holding, amount); compErr != nil {
			return nil, errors.Join(err, compErr)
		}
		return nil, err
	}
	e.emit(eventFn(esc))
	return esc.Clone(), nil
}
