package bank_test

import (
	"errors"
	"math/big"
	"testing"

	"questhub/core/state"
	"questhub/native/bank"
	"questhub/storage"
)

func newTestLedger(t *testing.T) *bank.Ledger {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return bank.NewLedger(state.NewManager(db))
}

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func mustBalance(t *testing.T, l *bank.Ledger, a [20]byte) *big.Int {
	t.Helper()
	balance, err := l.BalanceOf(a)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance
}

func TestMintAndBalance(t *testing.T) {
	ledger := newTestLedger(t)
	if got := mustBalance(t, ledger, addr(1)); got.Sign() != 0 {
		t.Fatalf("expected zero balance for fresh account, got %s", got)
	}
	if err := ledger.Mint(addr(1), big.NewInt(40)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Mint(addr(1), big.NewInt(2)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got := mustBalance(t, ledger, addr(1)); got.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("expected 42, got %s", got)
	}
	if err := ledger.Mint(addr(1), big.NewInt(-1)); !errors.Is(err, bank.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint(addr(1), big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(addr(1), addr(2), big.NewInt(4)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := mustBalance(t, ledger, addr(1)); got.Cmp(big.NewInt(6)) != 0 {
		t.Fatalf("expected 6, got %s", got)
	}
	if got := mustBalance(t, ledger, addr(2)); got.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("expected 4, got %s", got)
	}
	err := ledger.Transfer(addr(1), addr(2), big.NewInt(100))
	if !errors.Is(err, bank.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	// Self transfer and zero transfer are no-ops.
	if err := ledger.Transfer(addr(1), addr(1), big.NewInt(6)); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	if err := ledger.Transfer(addr(1), addr(2), big.NewInt(0)); err != nil {
		t.Fatalf("zero transfer: %v", err)
	}
	if got := mustBalance(t, ledger, addr(1)); got.Cmp(big.NewInt(6)) != 0 {
		t.Fatalf("no-op transfers must not move value, got %s", got)
	}
}

func TestCollectExact(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint(addr(1), big.NewInt(50)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	fee := big.NewInt(25)
	sink := addr(9)

	err := ledger.CollectExact(bank.Payment{Payer: addr(1), Amount: big.NewInt(26)}, fee, sink)
	if !errors.Is(err, bank.ErrBadPaymentAmount) {
		t.Fatalf("expected ErrBadPaymentAmount, got %v", err)
	}
	err = ledger.CollectExact(bank.Payment{Payer: addr(1)}, fee, sink)
	if !errors.Is(err, bank.ErrBadPaymentAmount) {
		t.Fatalf("expected ErrBadPaymentAmount for nil amount, got %v", err)
	}
	if got := mustBalance(t, ledger, addr(1)); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("rejected payment must leave balances untouched, got %s", got)
	}
	if err := ledger.CollectExact(bank.Payment{Payer: addr(1), Amount: big.NewInt(25)}, fee, sink); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got := mustBalance(t, ledger, sink); got.Cmp(fee) != 0 {
		t.Fatalf("expected fee at sink, got %s", got)
	}
}

func TestWithdrawAll(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint(addr(1), big.NewInt(30)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	amount, err := ledger.WithdrawAll(addr(1), addr(2))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if amount.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("expected 30 withdrawn, got %s", amount)
	}
	if got := mustBalance(t, ledger, addr(1)); got.Sign() != 0 {
		t.Fatalf("expected drained account, got %s", got)
	}
	amount, err = ledger.WithdrawAll(addr(1), addr(2))
	if err != nil {
		t.Fatalf("empty withdraw: %v", err)
	}
	if amount.Sign() != 0 {
		t.Fatalf("expected zero from empty account, got %s", amount)
	}
}
