package htlc

import (
	"encoding/hex"
	"strconv"

	"htlcvault/core/types"
)

const (
	EventTypeCreated   = "htlc.created"
	EventTypeClaimed   = "htlc.claimed"
	EventTypeRefunded  = "htlc.refunded"
	EventTypeCancelled = "htlc.cancelled"
)

// NewCreatedEvent returns the canonical event payload for a newly created
// escrow.
func NewCreatedEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeCreated, e) }

// NewClaimedEvent returns the canonical event payload emitted when the
// recipient claims with a valid preimage.
func NewClaimedEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeClaimed, e) }

// NewRefundedEvent returns the canonical event payload for a post-deadline
// refund to the depositor.
func NewRefundedEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeRefunded, e) }

// NewCancelledEvent returns the canonical event payload for a privileged
// pre-deadline cancellation. The record's terminal status is refunded.
func NewCancelledEvent(e *Escrow) *types.Event { return newEscrowEvent(EventTypeCancelled, e) }

func newEscrowEvent(eventType string, e *Escrow) *types.Event {
	attrs := make(map[string]string)
	if e == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	sanitized, err := Sanitize(e)
	if err != nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = strconv.FormatUint(sanitized.ID, 10)
	attrs["sender"] = hex.EncodeToString(sanitized.Sender[:])
	attrs["recipient"] = hex.EncodeToString(sanitized.Recipient[:])
	attrs["amount"] = sanitized.Amount.String()
	attrs["unlockHeight"] = strconv.FormatUint(sanitized.UnlockHeight, 10)
	attrs["createdHeight"] = strconv.FormatUint(sanitized.CreatedHeight, 10)
	attrs["status"] = sanitized.Status.String()
	return &types.Event{Type: eventType, Attributes: attrs}
}
