package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"htlcvault/crypto"
	"htlcvault/native/htlc"
	"htlcvault/observability"
)

const (
	codeHTLCInvalidParams = -32021
	codeHTLCNotFound      = -32022
	codeHTLCForbidden     = -32023
	codeHTLCConflict      = -32024
	codeHTLCInsufficient  = -32025
	codeHTLCPrecondition  = -32026
	codeHTLCInternal      = -32027
)

type htlcCreateParams struct {
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	Amount      string `json:"amount"`
	BlocksAhead uint64 `json:"blocksAhead"`
	HashLock    string `json:"hashLock"`
}

type htlcClaimParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
	Secret string `json:"secret"`
}

type htlcActorParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

type htlcIDParams struct {
	ID uint64 `json:"id"`
}

type htlcAddressParams struct {
	Address string `json:"address"`
}

type htlcCreateResult struct {
	ID           uint64 `json:"id"`
	UnlockHeight uint64 `json:"unlockHeight"`
}

type htlcTransitionResult struct {
	ID     uint64 `json:"id"`
	Status string `json:"status"`
}

type escrowJSON struct {
	ID            uint64 `json:"id"`
	Sender        string `json:"sender"`
	Recipient     string `json:"recipient"`
	Amount        string `json:"amount"`
	UnlockHeight  uint64 `json:"unlockHeight"`
	SecretHash    string `json:"secretHash"`
	CreatedHeight uint64 `json:"createdHeight"`
	Status        string `json:"status"`
	Claimed       bool   `json:"claimed"`
	Refunded      bool   `json:"refunded"`
}

type statusJSON struct {
	Exists        bool   `json:"exists"`
	Claimed       bool   `json:"claimed"`
	Refunded      bool   `json:"refunded"`
	HeightReached bool   `json:"heightReached"`
	Sender        string `json:"sender,omitempty"`
	Recipient     string `json:"recipient,omitempty"`
	Amount        string `json:"amount"`
}

type statsJSON struct {
	TotalEscrows   uint64 `json:"totalEscrows"`
	HoldingBalance string `json:"holdingBalance"`
	CurrentHeight  uint64 `json:"currentHeight"`
	Owner          string `json:"owner"`
}

func escrowToJSON(e *htlc.Escrow) *escrowJSON {
	if e == nil {
		return nil
	}
	return &escrowJSON{
		ID:            e.ID,
		Sender:        crypto.NewAddress(e.Sender).String(),
		Recipient:     crypto.NewAddress(e.Recipient).String(),
		Amount:        e.Amount.String(),
		UnlockHeight:  e.UnlockHeight,
		SecretHash:    hex.EncodeToString(e.SecretHash[:]),
		CreatedHeight: e.CreatedHeight,
		Status:        e.Status.String(),
		Claimed:       e.Claimed(),
		Refunded:      e.Refunded(),
	}
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Bytes(), nil
}

func parsePositiveBigInt(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

func parseHashLock(value string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return out, fmt.Errorf("invalid hash hex: %w", err)
	}
	if len(raw) != 32 {
		return out, htlc.ErrInvalidHash
	}
	copy(out[:], raw)
	return out, nil
}

func parseSecret(value string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid secret hex: %w", err)
	}
	return raw, nil
}

// writeHTLCError maps the engine's sentinel errors onto the module's JSON-RPC
// code range and records the failure.
func writeHTLCError(w http.ResponseWriter, req *RPCRequest, method string, err error) {
	var (
		status = http.StatusBadRequest
		code   = codeHTLCInternal
		msg    = "internal_error"
	)
	switch {
	case errors.Is(err, htlc.ErrNotFound):
		status, code, msg = http.StatusNotFound, codeHTLCNotFound, "not_found"
	case errors.Is(err, htlc.ErrNotAuthorized):
		status, code, msg = http.StatusForbidden, codeHTLCForbidden, "forbidden"
	case errors.Is(err, htlc.ErrAlreadyFinalized), errors.Is(err, htlc.ErrDuplicateID):
		status, code, msg = http.StatusConflict, codeHTLCConflict, "conflict"
	case errors.Is(err, htlc.ErrInvalidAmount),
		errors.Is(err, htlc.ErrInvalidHeight),
		errors.Is(err, htlc.ErrInvalidHash),
		errors.Is(err, htlc.ErrInvalidSecret):
		status, code, msg = http.StatusBadRequest, codeHTLCInvalidParams, "invalid_params"
	case errors.Is(err, htlc.ErrInsufficientBalance):
		status, code, msg = http.StatusUnprocessableEntity, codeHTLCInsufficient, "insufficient_balance"
	case errors.Is(err, htlc.ErrHeightNotReached), errors.Is(err, htlc.ErrAlreadyExpired):
		status, code, msg = http.StatusConflict, codeHTLCPrecondition, "precondition_failed"
	default:
		status = http.StatusInternalServerError
	}
	observability.Vault().RecordFailure(method, msg)
	writeError(w, status, req.ID, code, msg, err.Error())
}

func (s *Server) handleHTLCCreate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params htlcCreateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	sender, err := parseAddress(params.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	recipient, err := parseAddress(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	hashLock, err := parseHashLock(params.HashLock)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	esc, err := s.node.HTLCCreate(sender, recipient, amount, params.BlocksAhead, hashLock)
	if err != nil {
		writeHTLCError(w, req, "htlc_create", err)
		return
	}
	writeResult(w, req.ID, htlcCreateResult{ID: esc.ID, UnlockHeight: esc.UnlockHeight})
}

func (s *Server) handleHTLCClaim(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params htlcClaimParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	secret, err := parseSecret(params.Secret)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	esc, err := s.node.HTLCClaim(caller, params.ID, secret)
	if err != nil {
		writeHTLCError(w, req, "htlc_claim", err)
		return
	}
	writeResult(w, req.ID, htlcTransitionResult{ID: esc.ID, Status: esc.Status.String()})
}

func (s *Server) handleHTLCRefund(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params htlcActorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	esc, err := s.node.HTLCRefund(caller, params.ID)
	if err != nil {
		writeHTLCError(w, req, "htlc_refund", err)
		return
	}
	writeResult(w, req.ID, htlcTransitionResult{ID: esc.ID, Status: esc.Status.String()})
}

func (s *Server) handleHTLCCancel(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params htlcActorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	esc, err := s.node.HTLCCancel(caller, params.ID)
	if err != nil {
		writeHTLCError(w, req, "htlc_cancel", err)
		return
	}
	writeResult(w, req.ID, htlcTransitionResult{ID: esc.ID, Status: esc.Status.String()})
}

func (s *Server) handleHTLCGet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params htlcIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	esc, err := s.node.HTLCGet(params.ID)
	if errors.Is(err, htlc.ErrNotFound) {
		// Absence is a valid result, not an error; emit an explicit null.
		writeResult(w, req.ID, json.RawMessage("null"))
		return
	}
	if err != nil {
		writeHTLCError(w, req, "htlc_get", err)
		return
	}
	writeResult(w, req.ID, escrowToJSON(esc))
}

func (s *Server) handleHTLCStatus(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params htlcIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	summary, err := s.node.HTLCStatus(params.ID)
	if err != nil {
		writeHTLCError(w, req, "htlc_status", err)
		return
	}
	out := statusJSON{
		Exists:        summary.Exists,
		Claimed:       summary.Claimed,
		Refunded:      summary.Refunded,
		HeightReached: summary.HeightReached,
		Amount:        summary.Amount.String(),
	}
	if summary.Exists {
		out.Sender = crypto.NewAddress(summary.Sender).String()
		out.Recipient = crypto.NewAddress(summary.Recipient).String()
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleHTLCCanClaim(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params htlcIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	legal, err := s.node.HTLCCanClaim(params.ID)
	if err != nil {
		writeHTLCError(w, req, "htlc_canClaim", err)
		return
	}
	writeResult(w, req.ID, legal)
}

func (s *Server) handleHTLCCanRefund(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params htlcIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	legal, err := s.node.HTLCCanRefund(params.ID)
	if err != nil {
		writeHTLCError(w, req, "htlc_canRefund", err)
		return
	}
	writeResult(w, req.ID, legal)
}

func (s *Server) handleHTLCStats(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	stats, err := s.node.HTLCStats()
	if err != nil {
		writeHTLCError(w, req, "htlc_stats", err)
		return
	}
	writeResult(w, req.ID, statsJSON{
		TotalEscrows:   stats.TotalEscrows,
		HoldingBalance: stats.HoldingBalance.String(),
		CurrentHeight:  stats.CurrentHeight,
		Owner:          crypto.NewAddress(stats.Owner).String(),
	})
}

func (s *Server) handleHTLCBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params htlcAddressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeHTLCInvalidParams, "invalid_params", err.Error())
		return
	}
	balance, err := s.node.Balance(addr)
	if err != nil {
		writeHTLCError(w, req, "htlc_balance", err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}
