package bank

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	ErrNegativeAmount      = errors.New("bank: negative amount")
	ErrBadPaymentAmount    = errors.New("bank: payment amount does not match fee")
)

type ledgerState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// Payment is a caller-supplied value voucher. Fee acceptance requires the
// amount to equal the configured fee exactly; excess or deficient payments
// are rejected.
type Payment struct {
	Payer  [20]byte
	Amount *big.Int
}

// Ledger is the minimal value-transfer collaborator used by the quest engine
// to collect fees and pay out the treasury. It tracks one balance per
// address.
type Ledger struct {
	st ledgerState
}

// NewLedger creates a ledger backed by the provided state manager.
func NewLedger(st ledgerState) *Ledger {
	return &Ledger{st: st}
}

func accountKey(addr [20]byte) []byte {
	return append([]byte("bank/acct/"), addr[:]...)
}

// BalanceOf returns the balance held by the address, zero when the account
// has never been funded.
func (l *Ledger) BalanceOf(addr [20]byte) (*big.Int, error) {
	balance := new(big.Int)
	ok, err := l.st.KVGet(accountKey(addr), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

func (l *Ledger) setBalance(addr [20]byte, amount *big.Int) error {
	return l.st.KVPut(accountKey(addr), amount)
}

// Mint credits freshly issued value to the address. Used by genesis funding
// and tests; the quest engine itself never mints.
func (l *Ledger) Mint(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	balance, err := l.BalanceOf(addr)
	if err != nil {
		return err
	}
	return l.setBalance(addr, new(big.Int).Add(balance, amount))
}

// Transfer moves value between two accounts. A zero transfer is a no-op.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBalance, err := l.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, fromBalance, amount)
	}
	toBalance, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := l.setBalance(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.setBalance(to, new(big.Int).Add(toBalance, amount))
}

// CollectExact accepts the payment when its amount equals fee exactly and
// moves it to the recipient. The exactness check runs before any balance is
// touched so a rejected payment leaves no partial effect.
func (l *Ledger) CollectExact(p Payment, fee *big.Int, to [20]byte) error {
	if fee == nil || fee.Sign() < 0 {
		return ErrNegativeAmount
	}
	if p.Amount == nil || p.Amount.Cmp(fee) != 0 {
		return fmt.Errorf("%w: got %s, want %s", ErrBadPaymentAmount, p.Amount, fee)
	}
	return l.Transfer(p.Payer, to, fee)
}

// WithdrawAll transfers the full balance of from to the recipient and zeroes
// it. Withdrawing an empty account transfers zero value and succeeds.
func (l *Ledger) WithdrawAll(from, to [20]byte) (*big.Int, error) {
	balance, err := l.BalanceOf(from)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if err := l.Transfer(from, to, balance); err != nil {
		return nil, err
	}
	return balance, nil
}
