// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/tierstake/accrual"
	"github.com/vechain/tierstake/lvldb"
	"github.com/vechain/tierstake/reverts"
	"github.com/vechain/tierstake/storage"
	"github.com/vechain/tierstake/tier"
	"github.com/vechain/tierstake/types"
)

const day = uint64(86400)

var (
	admin = types.BytesToAddress([]byte("admin"))
	alice = types.BytesToAddress([]byte("alice"))
	bob   = types.BytesToAddress([]byte("bob"))

	errRefused = reverts.New("refused")
	errFault   = errors.New("disk on fire")
)

// fakeLedger is an in-memory value ledger with failure injection.
type fakeLedger struct {
	mu          sync.Mutex
	balances    map[types.Address]*big.Int
	custody     *big.Int
	issued      *big.Int
	failEscrow  bool
	failIssue   bool
	failRelease bool
	fault       error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances: make(map[types.Address]*big.Int),
		custody:  new(big.Int),
		issued:   new(big.Int),
	}
}

func (f *fakeLedger) fund(addr types.Address, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[addr] = new(big.Int).Add(f.balance(addr), big.NewInt(amount))
}

func (f *fakeLedger) balance(addr types.Address) *big.Int {
	if b, ok := f.balances[addr]; ok {
		return b
	}
	return new(big.Int)
}

func (f *fakeLedger) BalanceOf(addr types.Address) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.balance(addr))
}

func (f *fakeLedger) Balance(addr types.Address) (*big.Int, error) {
	return f.BalanceOf(addr), nil
}

func (f *fakeLedger) Escrow(account types.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fault != nil {
		return f.fault
	}
	if f.failEscrow || f.balance(account).Cmp(amount) < 0 {
		return errRefused
	}
	f.balances[account] = new(big.Int).Sub(f.balance(account), amount)
	f.custody.Add(f.custody, amount)
	return nil
}

func (f *fakeLedger) Release(account types.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRelease || f.custody.Cmp(amount) < 0 {
		return errRefused
	}
	f.custody.Sub(f.custody, amount)
	f.balances[account] = new(big.Int).Add(f.balance(account), amount)
	return nil
}

func (f *fakeLedger) Issue(account types.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fault != nil {
		return f.fault
	}
	if f.failIssue {
		return errRefused
	}
	f.issued.Add(f.issued, amount)
	f.balances[account] = new(big.Int).Add(f.balance(account), amount)
	return nil
}

func defaultTiers(t *testing.T) tier.Table {
	tb, err := tier.Uint64s(0, 1000, 5000, 10000, 25000, 50000, 75000, 100000, 500000)
	require.NoError(t, err)
	return tb
}

func newContext(t *testing.T) *storage.Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sctx, err := storage.NewContext(db, 0)
	require.NoError(t, err)
	return sctx
}

type testEnv struct {
	staker *Staker
	ledger *fakeLedger
	clock  *types.ManualClock
}

func newTestEnv(t *testing.T, mode accrual.Mode) *testEnv {
	clock := types.NewManualClock(1_700_000_000)
	ledger := newFakeLedger()
	s := New(newContext(t), ledger, clock.Now)
	require.NoError(t, s.Initialize(&Genesis{
		Admin: admin,
		APR:   10,
		Mode:  mode,
		Tiers: defaultTiers(t),
	}))
	return &testEnv{staker: s, ledger: ledger, clock: clock}
}
