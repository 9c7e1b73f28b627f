package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/xcurrency/internal/account"
	"github.com/mtlprog/xcurrency/internal/currency"
)

type balanceKey struct {
	cur currency.ID
	who account.ID
}

// MemoryLedger is an in-process Store. Safe for concurrent use.
type MemoryLedger struct {
	mu         sync.Mutex
	currencies map[currency.ID]bool
	frozen     map[account.ID]bool
	balances   map[balanceKey]Holding
}

// NewMemoryLedger creates an empty ledger that knows currencies.
func NewMemoryLedger(currencies ...currency.ID) *MemoryLedger {
	l := &MemoryLedger{
		currencies: make(map[currency.ID]bool),
		frozen:     make(map[account.ID]bool),
		balances:   make(map[balanceKey]Holding),
	}
	for _, c := range currencies {
		l.currencies[c] = true
	}
	return l
}

func (l *MemoryLedger) Deposit(_ context.Context, cur currency.ID, who account.ID, amount Balance) error {
	return l.apply(cur, who, amount, credit)
}

func (l *MemoryLedger) Withdraw(_ context.Context, cur currency.ID, who account.ID, amount Balance) error {
	return l.apply(cur, who, amount, debit)
}

func (l *MemoryLedger) apply(cur currency.ID, who account.ID, amount Balance, op func(current, amount Balance) (Balance, error)) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.currencies[cur] {
		return ErrUnknownCurrency
	}
	if l.frozen[who] {
		return ErrAccountFrozen
	}

	k := balanceKey{cur: cur, who: who}
	h, ok := l.balances[k]
	if !ok {
		h = Holding{Currency: cur, Account: who, Amount: decimal.Zero}
	}
	after, err := op(h.Amount, amount)
	if err != nil {
		return err
	}
	h.Amount = after
	h.UpdatedAt = time.Now().UTC()
	l.balances[k] = h
	return nil
}

func (l *MemoryLedger) Balance(_ context.Context, cur currency.ID, who account.ID) (Balance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.balances[balanceKey{cur: cur, who: who}]; ok {
		return h.Amount, nil
	}
	return decimal.Zero, nil
}

func (l *MemoryLedger) RegisterCurrency(_ context.Context, cur currency.ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currencies[cur] = true
	return nil
}

func (l *MemoryLedger) Freeze(_ context.Context, who account.ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frozen[who] = true
	return nil
}

func (l *MemoryLedger) Unfreeze(_ context.Context, who account.ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.frozen, who)
	return nil
}

func (l *MemoryLedger) Holdings(_ context.Context) ([]Holding, error) {
	l.mu.Lock()
	holdings := make([]Holding, 0, len(l.balances))
	for _, h := range l.balances {
		if !h.Amount.IsZero() {
			holdings = append(holdings, h)
		}
	}
	l.mu.Unlock()

	sortHoldings(holdings)
	return holdings, nil
}

func (l *MemoryLedger) Close() error { return nil }

func sortHoldings(holdings []Holding) {
	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].Currency != holdings[j].Currency {
			return holdings[i].Currency < holdings[j].Currency
		}
		return holdings[i].Account.String() < holdings[j].Account.String()
	})
}
