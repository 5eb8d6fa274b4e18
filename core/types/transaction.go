package types

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// TxType defines the purpose of a transaction.
type TxType byte

const (
	TxTypeCreate   TxType = 0x01 // Mint a fresh creature, reserving Value from the caller
	TxTypeTransfer TxType = 0x02 // Hand a creature to the address in To
	TxTypeBreed    TxType = 0x03 // Combine CreatureID and PartnerID into a child
	TxTypeOffer    TxType = 0x04 // Put CreatureID up for sale at Value
	TxTypeBuy      TxType = 0x05 // Purchase CreatureID at its offered price
)

var errUnsignedTransaction = errors.New("transaction: missing signature")

// Transaction is the caller-facing envelope for all five registry operations.
// Field use per type:
//
//	Create:   Value = reserve amount
//	Transfer: To = new owner, CreatureID = subject
//	Breed:    CreatureID = first parent, PartnerID = second parent
//	Offer:    CreatureID = subject, Value = asking price
//	Buy:      CreatureID = subject
type Transaction struct {
	Type       TxType   `json:"type"`
	Nonce      uint64   `json:"nonce"`
	To         []byte   `json:"to,omitempty"`
	Value      *big.Int `json:"value,omitempty"`
	CreatureID uint64   `json:"creatureId,omitempty"`
	PartnerID  uint64   `json:"partnerId,omitempty"`

	// Sender's signature
	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
	V *big.Int `json:"v"`

	from []byte
}

// Hash covers every field a signer commits to.
func (tx *Transaction) Hash() ([]byte, error) {
	txData := struct {
		Type       TxType
		Nonce      uint64
		To         []byte
		Value      *big.Int
		CreatureID uint64
		PartnerID  uint64
	}{tx.Type, tx.Nonce, tx.To, tx.Value, tx.CreatureID, tx.PartnerID}

	b, err := json.Marshal(txData)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(b)
	return hash[:], nil
}

func (tx *Transaction) Sign(privKey *ecdsa.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash, privKey)
	if err != nil {
		return err
	}
	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetBytes([]byte{sig[64] + 27})
	tx.from = nil
	return nil
}

// From recovers the sender address from the signature. The result is cached
// on the transaction for repeat lookups within one execution.
func (tx *Transaction) From() ([]byte, error) {
	if tx.from != nil {
		return tx.from, nil
	}
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return nil, errUnsignedTransaction
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	sig := make([]byte, 65)
	copy(sig[32-len(tx.R.Bytes()):32], tx.R.Bytes())
	copy(sig[64-len(tx.S.Bytes()):64], tx.S.Bytes())
	sig[64] = byte(tx.V.Uint64() - 27)
	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	tx.from = crypto.PubkeyToAddress(*pubKey).Bytes()
	return tx.from, nil
}
