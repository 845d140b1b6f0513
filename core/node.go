package core

import (
	"math/big"

	"htlcvault/core/events"
	"htlcvault/core/height"
	"htlcvault/native/htlc"
	"htlcvault/state"
	"htlcvault/storage"
)

// Node wires the persisted state manager, the escrow transition engine and
// the height oracle into the single facade the RPC layer talks to.
type Node struct {
	db      storage.Database
	state   *state.Manager
	engine  *htlc.Engine
	heights height.Source
	hub     *events.Hub
}

func NewNode(db storage.Database, heights height.Source, owner [20]byte) *Node {
	manager := state.NewManager(db)
	hub := events.NewHub()
	engine := htlc.NewEngine()
	engine.SetState(manager)
	engine.SetLedger(manager)
	engine.SetHeightSource(heights)
	engine.SetOwner(owner)
	engine.SetEmitter(hub)
	return &Node{db: db, state: manager, engine: engine, heights: heights, hub: hub}
}

// SetEmitter configures the sink emitter transition events are forwarded to,
// alongside any websocket subscribers.
func (n *Node) SetEmitter(emitter events.Emitter) { n.hub.SetSink(emitter) }

// EventsSubscribe registers a buffered channel receiving every transition
// event. The cancel function releases the subscription.
func (n *Node) EventsSubscribe(buffer int) (<-chan events.Event, func()) {
	return n.hub.Subscribe(buffer)
}

// State exposes the state manager for genesis seeding and tests.
func (n *Node) State() *state.Manager { return n.state }

// HTLCCreate locks amount from sender for recipient behind the hash
// commitment, claimable blocksAhead heights from now.
func (n *Node) HTLCCreate(sender, recipient [20]byte, amount *big.Int, blocksAhead uint64, secretHash [32]byte) (*htlc.Escrow, error) {
	return n.engine.Create(sender, recipient, amount, blocksAhead, secretHash)
}

// HTLCClaim pays out to the recipient against a valid preimage.
func (n *Node) HTLCClaim(caller [20]byte, id uint64, secret []byte) (*htlc.Escrow, error) {
	return n.engine.Claim(caller, id, secret)
}

// HTLCRefund returns the funds to the depositor after the unlock height.
func (n *Node) HTLCRefund(caller [20]byte, id uint64) (*htlc.Escrow, error) {
	return n.engine.Refund(caller, id)
}

// HTLCCancel is the privileged pre-deadline cancellation.
func (n *Node) HTLCCancel(caller [20]byte, id uint64) (*htlc.Escrow, error) {
	return n.engine.EmergencyCancel(caller, id)
}

// HTLCGet returns the record for an id; absence reports htlc.ErrNotFound.
func (n *Node) HTLCGet(id uint64) (*htlc.Escrow, error) { return n.engine.Get(id) }

// HTLCStatus returns the read-only summary projection for an id.
func (n *Node) HTLCStatus(id uint64) (htlc.StatusSummary, error) { return n.engine.Status(id) }

// HTLCCanClaim reports whether a claim is currently legal for the id.
func (n *Node) HTLCCanClaim(id uint64) (bool, error) { return n.engine.QueryCanClaim(id) }

// HTLCCanRefund reports whether a refund is currently legal for the id.
func (n *Node) HTLCCanRefund(id uint64) (bool, error) { return n.engine.QueryCanRefund(id) }

// HTLCStats returns vault-wide aggregate figures.
func (n *Node) HTLCStats() (*htlc.Stats, error) { return n.engine.VaultStats() }

// Balance reports the ledger balance for an address.
func (n *Node) Balance(addr [20]byte) (*big.Int, error) { return n.state.BalanceOf(addr) }

// CurrentHeight reports the oracle's current reading.
func (n *Node) CurrentHeight() uint64 { return n.heights.CurrentHeight() }
