package rpc

import (
	"encoding/hex"
	"encoding/json"
	"strconv"

	"critterchain/core/types"
	"critterchain/crypto"
)

// ReceiptResult is the JSON view of an applied transaction.
type ReceiptResult struct {
	Status     string         `json:"status"`
	Error      string         `json:"error,omitempty"`
	CreatureID string         `json:"creatureId,omitempty"`
	Events     []*types.Event `json:"events,omitempty"`
}

// CreatureResult is the JSON view of one registry entry.
type CreatureResult struct {
	ID     string `json:"id"`
	Genome string `json:"genome"`
	Owner  string `json:"owner"`
	Offer  string `json:"offer,omitempty"`
}

// BalanceResult is the JSON view of one ledger account.
type BalanceResult struct {
	Balance  string `json:"balance"`
	Reserved string `json:"reserved"`
	Nonce    uint64 `json:"nonce"`
}

func (s *Server) handleSendTransaction(req *RPCRequest) (interface{}, *RPCError) {
	if len(req.Params) != 1 {
		return nil, &RPCError{Code: codeInvalidParams, Message: "expected one transaction parameter"}
	}
	tx := new(types.Transaction)
	if err := json.Unmarshal(req.Params[0], tx); err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: "malformed transaction: " + err.Error()}
	}

	s.mu.Lock()
	receipts, err := s.executor.Apply([]*types.Transaction{tx})
	s.mu.Unlock()
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}

	receipt := receipts[0]
	if !receipt.Success {
		return ReceiptResult{Status: "failed", Error: receipt.Err.Error()}, nil
	}
	result := ReceiptResult{Status: "ok", Events: receipt.Events}
	if receipt.Created {
		result.CreatureID = strconv.FormatUint(receipt.CreatureID, 10)
	}
	return result, nil
}

func (s *Server) creatureID(req *RPCRequest) (uint64, *RPCError) {
	if len(req.Params) != 1 {
		return 0, &RPCError{Code: codeInvalidParams, Message: "expected one creature id parameter"}
	}
	var raw string
	if err := json.Unmarshal(req.Params[0], &raw); err != nil {
		// Also accept a bare JSON number.
		var num uint64
		if err := json.Unmarshal(req.Params[0], &num); err != nil {
			return 0, &RPCError{Code: codeInvalidParams, Message: "creature id must be a string or number"}
		}
		return num, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &RPCError{Code: codeInvalidParams, Message: "invalid creature id"}
	}
	return id, nil
}

func (s *Server) handleGetCreature(req *RPCRequest) (interface{}, *RPCError) {
	id, rpcErr := s.creatureID(req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	creature, ok, err := s.executor.State().CreatureGet(id)
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}
	if !ok {
		return nil, &RPCError{Code: codeTxRejected, Message: "unknown creature"}
	}
	result := CreatureResult{
		ID:     strconv.FormatUint(creature.ID, 10),
		Genome: hex.EncodeToString(creature.Genome[:]),
	}
	owner, ok, err := s.executor.State().OwnerGet(id)
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}
	if ok {
		result.Owner = crypto.NewAddress(crypto.CritPrefix, owner[:]).String()
	}
	price, ok, err := s.executor.State().OfferGet(id)
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}
	if ok {
		result.Offer = price.String()
	}
	return result, nil
}

func (s *Server) handleGetOwner(req *RPCRequest) (interface{}, *RPCError) {
	id, rpcErr := s.creatureID(req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	s.mu.RLock()
	owner, ok, err := s.executor.State().OwnerGet(id)
	s.mu.RUnlock()
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}
	if !ok {
		return nil, &RPCError{Code: codeTxRejected, Message: "unknown creature"}
	}
	return crypto.NewAddress(crypto.CritPrefix, owner[:]).String(), nil
}

func (s *Server) handleGetOffer(req *RPCRequest) (interface{}, *RPCError) {
	id, rpcErr := s.creatureID(req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	s.mu.RLock()
	price, ok, err := s.executor.State().OfferGet(id)
	s.mu.RUnlock()
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}
	if !ok {
		return nil, nil
	}
	return price.String(), nil
}

func (s *Server) handleCount(req *RPCRequest) (interface{}, *RPCError) {
	if len(req.Params) != 0 {
		return nil, &RPCError{Code: codeInvalidParams, Message: "expected no parameters"}
	}
	s.mu.RLock()
	count, _, err := s.executor.State().CreaturesCount()
	s.mu.RUnlock()
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}
	return strconv.FormatUint(count, 10), nil
}

func (s *Server) handleGetBalance(req *RPCRequest) (interface{}, *RPCError) {
	if len(req.Params) != 1 {
		return nil, &RPCError{Code: codeInvalidParams, Message: "expected one address parameter"}
	}
	var raw string
	if err := json.Unmarshal(req.Params[0], &raw); err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: "address must be a string"}
	}
	decoded, err := crypto.DecodeAddress(raw)
	if err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	var addr [20]byte
	copy(addr[:], decoded.Bytes())
	s.mu.RLock()
	account, err := s.executor.State().GetAccount(addr)
	s.mu.RUnlock()
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}
	return BalanceResult{
		Balance:  account.Balance.String(),
		Reserved: account.Reserved.String(),
		Nonce:    account.Nonce,
	}, nil
}
