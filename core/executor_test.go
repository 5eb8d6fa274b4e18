package core

import (
	"errors"
	"math/big"
	"testing"

	"critterchain/core/state"
	"critterchain/core/types"
	"critterchain/crypto"
	"critterchain/native/creatures"
	"critterchain/storage"
)

type testAccount struct {
	key  *crypto.PrivateKey
	addr [20]byte
}

func newTestAccount(t *testing.T) *testAccount {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var addr [20]byte
	copy(addr[:], key.PubKey().Address().Bytes())
	return &testAccount{key: key, addr: addr}
}

func (a *testAccount) sign(t *testing.T, tx *types.Transaction) *types.Transaction {
	t.Helper()
	if err := tx.Sign(a.key.PrivateKey); err != nil {
		t.Fatalf("sign tx: %v", err)
	}
	return tx
}

func newTestExecutor(t *testing.T, allocs ...GenesisAccount) (*Executor, *storage.MemDB) {
	t.Helper()
	db := storage.NewMemDB()
	manager := state.NewManager(db)
	if err := SetupGenesis(manager, allocs); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	return NewExecutor(manager, NewRotatingBeacon([32]byte{0x5E, 0xED})), db
}

func applyOne(t *testing.T, ex *Executor, tx *types.Transaction) *Receipt {
	t.Helper()
	receipts, err := ex.Apply([]*types.Transaction{tx})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(receipts) != 1 {
		t.Fatalf("expected one receipt, got %d", len(receipts))
	}
	return receipts[0]
}

func TestApplyCreateReservesAndMints(t *testing.T) {
	alice := newTestAccount(t)
	ex, _ := newTestExecutor(t, GenesisAccount{Address: alice.addr, Balance: big.NewInt(100)})

	receipt := applyOne(t, ex, alice.sign(t, &types.Transaction{
		Type:  types.TxTypeCreate,
		Nonce: 0,
		Value: big.NewInt(10),
	}))
	if !receipt.Success {
		t.Fatalf("create failed: %v", receipt.Err)
	}
	if !receipt.Created || receipt.CreatureID != 0 {
		t.Fatalf("expected creature 0 in receipt, got %+v", receipt)
	}
	if len(receipt.Events) != 1 || receipt.Events[0].Type != creatures.EventTypeCreated {
		t.Fatalf("expected one created event, got %+v", receipt.Events)
	}

	account, err := ex.State().GetAccount(alice.addr)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.Balance.Cmp(big.NewInt(90)) != 0 {
		t.Fatalf("expected free balance 90, got %s", account.Balance)
	}
	if account.Reserved.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("expected reserved 10, got %s", account.Reserved)
	}
	if account.Nonce != 1 {
		t.Fatalf("expected nonce 1, got %d", account.Nonce)
	}

	owner, ok, err := ex.State().OwnerGet(0)
	if err != nil || !ok {
		t.Fatalf("owner lookup: ok=%v err=%v", ok, err)
	}
	if owner != alice.addr {
		t.Fatalf("creature 0 must belong to the creator")
	}
}

func TestApplyMarketplaceFlow(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	ex, _ := newTestExecutor(t,
		GenesisAccount{Address: alice.addr, Balance: big.NewInt(100)},
		GenesisAccount{Address: bob.addr, Balance: big.NewInt(100)},
	)

	if r := applyOne(t, ex, alice.sign(t, &types.Transaction{Type: types.TxTypeCreate, Nonce: 0, Value: big.NewInt(0)})); !r.Success {
		t.Fatalf("create: %v", r.Err)
	}
	if r := applyOne(t, ex, alice.sign(t, &types.Transaction{Type: types.TxTypeOffer, Nonce: 1, Value: big.NewInt(20), CreatureID: 0})); !r.Success {
		t.Fatalf("offer: %v", r.Err)
	}
	receipt := applyOne(t, ex, bob.sign(t, &types.Transaction{Type: types.TxTypeBuy, Nonce: 0, CreatureID: 0}))
	if !receipt.Success {
		t.Fatalf("buy: %v", receipt.Err)
	}

	buyer, _ := ex.State().GetAccount(bob.addr)
	if buyer.Balance.Cmp(big.NewInt(80)) != 0 {
		t.Fatalf("expected buyer balance 80, got %s", buyer.Balance)
	}
	seller, _ := ex.State().GetAccount(alice.addr)
	if seller.Balance.Cmp(big.NewInt(120)) != 0 {
		t.Fatalf("expected seller balance 120, got %s", seller.Balance)
	}
	owner, ok, _ := ex.State().OwnerGet(0)
	if !ok || owner != bob.addr {
		t.Fatalf("creature 0 must belong to the buyer")
	}
	if _, ok, _ := ex.State().OfferGet(0); ok {
		t.Fatalf("offer must be cleared after buy")
	}
}

func TestApplyBreedAcrossOwners(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	ex, _ := newTestExecutor(t,
		GenesisAccount{Address: alice.addr, Balance: big.NewInt(100)},
		GenesisAccount{Address: bob.addr, Balance: big.NewInt(100)},
	)

	applyOne(t, ex, alice.sign(t, &types.Transaction{Type: types.TxTypeCreate, Nonce: 0, Value: big.NewInt(1)}))
	applyOne(t, ex, bob.sign(t, &types.Transaction{Type: types.TxTypeCreate, Nonce: 0, Value: big.NewInt(1)}))

	receipt := applyOne(t, ex, alice.sign(t, &types.Transaction{
		Type:       types.TxTypeBreed,
		Nonce:      1,
		CreatureID: 0,
		PartnerID:  1,
	}))
	if !receipt.Success {
		t.Fatalf("breed: %v", receipt.Err)
	}
	if receipt.CreatureID != 2 {
		t.Fatalf("expected child id 2, got %d", receipt.CreatureID)
	}
	owner, ok, _ := ex.State().OwnerGet(2)
	if !ok || owner != alice.addr {
		t.Fatalf("child must belong to the breeder")
	}

	receipt = applyOne(t, ex, alice.sign(t, &types.Transaction{
		Type:       types.TxTypeBreed,
		Nonce:      2,
		CreatureID: 1,
		PartnerID:  1,
	}))
	if receipt.Success || !errors.Is(receipt.Err, creatures.ErrIdenticalParents) {
		t.Fatalf("expected ErrIdenticalParents, got %+v", receipt)
	}
}

func TestApplyRejectsTamperedSignature(t *testing.T) {
	alice := newTestAccount(t)
	ex, _ := newTestExecutor(t, GenesisAccount{Address: alice.addr, Balance: big.NewInt(100)})

	tx := alice.sign(t, &types.Transaction{Type: types.TxTypeCreate, Nonce: 0, Value: big.NewInt(1)})
	tx.R = nil

	receipt := applyOne(t, ex, tx)
	if receipt.Success || !errors.Is(receipt.Err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %+v", receipt)
	}
}

func TestApplyRejectsStaleNonce(t *testing.T) {
	alice := newTestAccount(t)
	ex, _ := newTestExecutor(t, GenesisAccount{Address: alice.addr, Balance: big.NewInt(100)})

	applyOne(t, ex, alice.sign(t, &types.Transaction{Type: types.TxTypeCreate, Nonce: 0, Value: big.NewInt(1)}))

	receipt := applyOne(t, ex, alice.sign(t, &types.Transaction{Type: types.TxTypeCreate, Nonce: 0, Value: big.NewInt(1)}))
	if receipt.Success || !errors.Is(receipt.Err, ErrInvalidNonce) {
		t.Fatalf("expected ErrInvalidNonce, got %+v", receipt)
	}
}

func TestFailedTxRollsBackWithinBatch(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	ex, _ := newTestExecutor(t,
		GenesisAccount{Address: alice.addr, Balance: big.NewInt(100)},
		GenesisAccount{Address: bob.addr, Balance: big.NewInt(5)},
	)

	receipts, err := ex.Apply([]*types.Transaction{
		alice.sign(t, &types.Transaction{Type: types.TxTypeCreate, Nonce: 0, Value: big.NewInt(0)}),
		alice.sign(t, &types.Transaction{Type: types.TxTypeOffer, Nonce: 1, Value: big.NewInt(20), CreatureID: 0}),
		bob.sign(t, &types.Transaction{Type: types.TxTypeBuy, Nonce: 0, CreatureID: 0}),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !receipts[0].Success || !receipts[1].Success {
		t.Fatalf("setup txs must succeed: %+v", receipts)
	}
	if receipts[2].Success || !errors.Is(receipts[2].Err, state.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %+v", receipts[2])
	}
	if len(receipts[2].Events) != 0 {
		t.Fatalf("failed tx must carry no events")
	}

	owner, ok, _ := ex.State().OwnerGet(0)
	if !ok || owner != alice.addr {
		t.Fatalf("ownership must be untouched by the failed buy")
	}
	if _, ok, _ := ex.State().OfferGet(0); !ok {
		t.Fatalf("offer must survive the failed buy")
	}
	buyer, _ := ex.State().GetAccount(bob.addr)
	if buyer.Nonce != 0 {
		t.Fatalf("failed tx must not consume the nonce, got %d", buyer.Nonce)
	}
}

func TestStatePersistsAcrossExecutors(t *testing.T) {
	alice := newTestAccount(t)
	ex, db := newTestExecutor(t, GenesisAccount{Address: alice.addr, Balance: big.NewInt(100)})

	applyOne(t, ex, alice.sign(t, &types.Transaction{Type: types.TxTypeCreate, Nonce: 0, Value: big.NewInt(10)}))

	reopened := NewExecutor(state.NewManager(db), NewRotatingBeacon([32]byte{0x5E, 0xED}))
	count, ok, err := reopened.State().CreaturesCount()
	if err != nil || !ok {
		t.Fatalf("count lookup: ok=%v err=%v", ok, err)
	}
	if count != 1 {
		t.Fatalf("expected persisted count 1, got %d", count)
	}

	receipt := applyOne(t, reopened, alice.sign(t, &types.Transaction{Type: types.TxTypeCreate, Nonce: 1, Value: big.NewInt(10)}))
	if !receipt.Success || receipt.CreatureID != 1 {
		t.Fatalf("expected creature 1 after reopen, got %+v", receipt)
	}
}

func TestBeaconRotatesBetweenBatches(t *testing.T) {
	beacon := NewRotatingBeacon([32]byte{0x01})
	first := beacon.Seed()
	beacon.Rotate(nil)
	second := beacon.Seed()
	if first == second {
		t.Fatalf("seed must change between rounds")
	}

	replay := NewRotatingBeacon([32]byte{0x01})
	replay.Rotate(nil)
	if replay.Seed() != second {
		t.Fatalf("rotation must be deterministic")
	}
}
