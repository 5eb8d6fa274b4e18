package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"critterchain/core/types"
	"critterchain/storage"
)

var (
	// ErrInvalidAmount is returned for nil or negative ledger amounts.
	ErrInvalidAmount = errors.New("state: amount must be non-negative")
	// ErrInsufficientBalance is returned when an account's free balance cannot
	// cover a reserve or transfer.
	ErrInsufficientBalance = errors.New("state: insufficient free balance")
	// ErrWouldDepleteAccount is returned by Transfer when depletion is not
	// allowed and the transfer would leave the source account empty.
	ErrWouldDepleteAccount = errors.New("state: transfer would deplete account")
)

var (
	accountPrefix  = []byte("account:")
	creaturePrefix = []byte("creature:")
	ownerPrefix    = []byte("creature-owner:")
	offerPrefix    = []byte("creature-offer:")
	countKey       = ethcrypto.Keccak256([]byte("creatures-count"))
)

func accountKey(addr [20]byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr[:])
	return ethcrypto.Keccak256(buf)
}

func idKey(prefix []byte, id uint64) []byte {
	buf := make([]byte, len(prefix)+8)
	copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[len(prefix):], id)
	return ethcrypto.Keccak256(buf)
}

type overlayEntry struct {
	value   []byte
	deleted bool
}

type journalEntry struct {
	key     string
	prev    overlayEntry
	existed bool
}

// Manager provides keyed access to the persisted chain state. All writes are
// buffered in an overlay until Commit flushes them to the backing database;
// Snapshot/RevertToSnapshot bracket the overlay so a failed transaction leaves
// no trace.
//
// Manager is not safe for concurrent use; the transaction executor serializes
// all access.
type Manager struct {
	db      storage.Database
	overlay map[string]overlayEntry
	journal []journalEntry
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		overlay: make(map[string]overlayEntry),
	}
}

// Snapshot marks the current write position. The returned value is only valid
// for a matching RevertToSnapshot on the same manager.
func (m *Manager) Snapshot() int {
	return len(m.journal)
}

// RevertToSnapshot undoes every write recorded after the given snapshot.
func (m *Manager) RevertToSnapshot(snap int) {
	if snap < 0 || snap > len(m.journal) {
		return
	}
	for i := len(m.journal) - 1; i >= snap; i-- {
		entry := m.journal[i]
		if entry.existed {
			m.overlay[entry.key] = entry.prev
		} else {
			delete(m.overlay, entry.key)
		}
	}
	m.journal = m.journal[:snap]
}

// Commit flushes the overlay to the backing database and resets the journal.
func (m *Manager) Commit() error {
	for key, entry := range m.overlay {
		if entry.deleted {
			if err := m.db.Delete([]byte(key)); err != nil {
				return err
			}
			continue
		}
		if err := m.db.Put([]byte(key), entry.value); err != nil {
			return err
		}
	}
	m.overlay = make(map[string]overlayEntry)
	m.journal = nil
	return nil
}

func (m *Manager) record(key string) {
	prev, existed := m.overlay[key]
	m.journal = append(m.journal, journalEntry{key: key, prev: prev, existed: existed})
}

func (m *Manager) putRaw(key, value []byte) {
	k := string(key)
	m.record(k)
	m.overlay[k] = overlayEntry{value: append([]byte(nil), value...)}
}

func (m *Manager) deleteRaw(key []byte) {
	k := string(key)
	m.record(k)
	m.overlay[k] = overlayEntry{deleted: true}
}

func (m *Manager) getRaw(key []byte) ([]byte, bool, error) {
	if entry, ok := m.overlay[string(key)]; ok {
		if entry.deleted {
			return nil, false, nil
		}
		return entry.value, true, nil
	}
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// GenesisApplied reports whether the given marker key has been written.
func (m *Manager) GenesisApplied(marker []byte) (bool, error) {
	_, ok, err := m.getRaw(ethcrypto.Keccak256(marker))
	return ok, err
}

// MarkGenesisApplied writes the marker key.
func (m *Manager) MarkGenesisApplied(marker []byte) error {
	m.putRaw(ethcrypto.Keccak256(marker), []byte{1})
	return nil
}

// --- Accounts & currency ledger ---

// GetAccount loads the account for the address, returning a zeroed account
// when none has been persisted yet.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	data, ok, err := m.getRaw(accountKey(addr))
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&types.Account{}).Normalize(), nil
	}
	account := new(types.Account)
	if err := rlp.DecodeBytes(data, account); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	return account.Normalize(), nil
}

// PutAccount persists the account record.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	encoded, err := rlp.EncodeToBytes(account.Normalize())
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	m.putRaw(accountKey(addr), encoded)
	return nil
}

// Reserve earmarks amount from the account's free balance without moving it
// to another party.
func (m *Manager) Reserve(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	account, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	if account.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	account.Balance = new(big.Int).Sub(account.Balance, amount)
	account.Reserved = new(big.Int).Add(account.Reserved, amount)
	return m.PutAccount(addr, account)
}

// Transfer moves free balance between accounts. When allowDepletion is false
// the transfer is rejected if it would leave the source account completely
// empty.
func (m *Manager) Transfer(from, to [20]byte, amount *big.Int, allowDepletion bool) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	sender, err := m.GetAccount(from)
	if err != nil {
		return err
	}
	if sender.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	remaining := new(big.Int).Sub(sender.Balance, amount)
	if !allowDepletion && remaining.Sign() == 0 && sender.Reserved.Sign() == 0 {
		return ErrWouldDepleteAccount
	}
	if from == to {
		return nil
	}
	recipient, err := m.GetAccount(to)
	if err != nil {
		return err
	}
	sender.Balance = remaining
	recipient.Balance = new(big.Int).Add(recipient.Balance, amount)
	if err := m.PutAccount(from, sender); err != nil {
		return err
	}
	return m.PutAccount(to, recipient)
}
