// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"errors"
	"math/big"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tierstake/lvldb"
	"github.com/vechain/tierstake/metrics"
	"github.com/vechain/tierstake/reverts"
	"github.com/vechain/tierstake/storage"
	"github.com/vechain/tierstake/test/datagen"
	"github.com/vechain/tierstake/types"
)

var (
	owner = types.BytesToAddress([]byte("owner"))
	alice = types.BytesToAddress([]byte("alice"))
	bob   = types.BytesToAddress([]byte("bob"))
)

func TestMain(m *testing.M) {
	metrics.InitializePrometheusMetrics()
	os.Exit(m.Run())
}

func issuedCount(t *testing.T, kind string) float64 {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "tierstake_token_issued_count" {
			continue
		}
		for _, m := range mf.Metric {
			for _, l := range m.Label {
				if l.GetName() == "kind" && l.GetValue() == kind {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func amount(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return v
}

func newLedger(t *testing.T) (*Ledger, *storage.Context, *types.ManualClock) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sctx, err := storage.NewContext(db, 0)
	require.NoError(t, err)

	clock := types.NewManualClock(1_600_000_000)
	l := New(sctx, clock.Now)
	require.NoError(t, l.Initialize(&Genesis{
		Owner:             owner,
		Name:              "XStarter",
		Symbol:            "XST",
		Decimals:          8,
		InitialSupply:     amount("10000000000000"),
		InitialPermitRate: 10,
	}))
	return l, sctx, clock
}

func balance(t *testing.T, l *Ledger, addr types.Address) string {
	b, err := l.BalanceOf(addr)
	require.NoError(t, err)
	return b.String()
}

func TestInitialize(t *testing.T) {
	l, _, _ := newLedger(t)

	ok, err := l.Initialized()
	require.NoError(t, err)
	assert.True(t, ok)

	info, err := l.Info()
	require.NoError(t, err)
	assert.Equal(t, "XStarter", info.Name)
	assert.Equal(t, "XST", info.Symbol)
	assert.Equal(t, uint8(8), info.Decimals)
	assert.Equal(t, owner, info.Owner)
	assert.True(t, info.DAO.IsZero())
	assert.Equal(t, "10000000000000", info.TotalSupply.String())
	assert.Equal(t, "1000000000000", info.Quota.String())
	assert.Equal(t, []uint64{10}, info.PermitRates)
	assert.Equal(t, "10000000000000", balance(t, l, owner))

	err = l.Initialize(&Genesis{Owner: alice, InitialSupply: big.NewInt(1)})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestInitializeAllocations(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	sctx, err := storage.NewContext(db, 0)
	require.NoError(t, err)

	l := New(sctx, types.SystemClock)
	err = l.Initialize(&Genesis{
		Owner:         owner,
		InitialSupply: big.NewInt(100),
		Allocations:   map[types.Address]*big.Int{alice: big.NewInt(101)},
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	ok, err := l.Initialized()
	require.NoError(t, err)
	assert.False(t, ok, "failed genesis leaves nothing behind")

	require.NoError(t, l.Initialize(&Genesis{
		Owner:         owner,
		InitialSupply: big.NewInt(100),
		Allocations:   map[types.Address]*big.Int{alice: big.NewInt(30), bob: big.NewInt(20)},
	}))
	assert.Equal(t, "50", balance(t, l, owner))
	assert.Equal(t, "30", balance(t, l, alice))
	assert.Equal(t, "20", balance(t, l, bob))
}

func TestNotInitialized(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	sctx, err := storage.NewContext(db, 0)
	require.NoError(t, err)

	l := New(sctx, types.SystemClock)
	_, err = l.Info()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, l.Mint(owner, owner, big.NewInt(1)), ErrNotInitialized)
}

func TestTransferAndApprove(t *testing.T) {
	l, _, _ := newLedger(t)

	require.NoError(t, l.Transfer(owner, alice, big.NewInt(1000)))
	assert.Equal(t, "1000", balance(t, l, alice))

	err := l.Transfer(alice, bob, big.NewInt(1001))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, reverts.IsRevertErr(err))

	assert.ErrorIs(t, l.Transfer(alice, types.Address{}, big.NewInt(1)), ErrZeroAddress)
	assert.ErrorIs(t, l.Transfer(alice, bob, big.NewInt(-1)), ErrInvalidAmount)

	require.NoError(t, l.Transfer(alice, alice, big.NewInt(1000)))
	assert.Equal(t, "1000", balance(t, l, alice))

	require.NoError(t, l.Approve(alice, bob, big.NewInt(50)))
	allowance, err := l.Allowance(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), allowance)

	assert.ErrorIs(t, l.Approve(alice, types.Address{}, big.NewInt(1)), ErrZeroAddress)
}

func TestTransferConservesSupply(t *testing.T) {
	l, _, _ := newLedger(t)

	holders := make([]types.Address, 16)
	for i := range holders {
		holders[i] = datagen.RandAddress()
		require.NoError(t, l.Transfer(owner, holders[i], big.NewInt(1_000_000)))
	}
	for i := range 200 {
		from := holders[i%len(holders)]
		to := holders[(i*7+3)%len(holders)]
		have, err := l.BalanceOf(from)
		require.NoError(t, err)
		if have.Sign() == 0 {
			continue
		}
		require.NoError(t, l.Transfer(from, to, datagen.RandAmount(have.Int64()+1)))
	}

	sum, err := l.BalanceOf(owner)
	require.NoError(t, err)
	for _, h := range holders {
		b, err := l.BalanceOf(h)
		require.NoError(t, err)
		assert.True(t, b.Sign() >= 0)
		sum.Add(sum, b)
	}
	supply, err := l.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, 0, supply.Cmp(sum))
}

func TestEscrowRelease(t *testing.T) {
	l, sctx, _ := newLedger(t)
	require.NoError(t, l.Transfer(owner, alice, big.NewInt(1000)))

	err := sctx.Exec(func() error { return l.Escrow(alice, big.NewInt(100)) })
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, l.Approve(alice, CustodyAddress, big.NewInt(2000)))
	err = sctx.Exec(func() error { return l.Escrow(alice, big.NewInt(1001)) })
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, sctx.Exec(func() error { return l.Escrow(alice, big.NewInt(400)) }))
	assert.Equal(t, "600", balance(t, l, alice))
	assert.Equal(t, "400", balance(t, l, CustodyAddress))
	allowance, err := l.Allowance(alice, CustodyAddress)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1600), allowance)

	err = sctx.Exec(func() error { return l.Release(alice, big.NewInt(401)) })
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, sctx.Exec(func() error { return l.Release(alice, big.NewInt(400)) }))
	assert.Equal(t, "1000", balance(t, l, alice))
	assert.Equal(t, "0", balance(t, l, CustodyAddress))
}

func TestMintQuota(t *testing.T) {
	l, _, clock := newLedger(t)

	// period 0: 10% of the initial supply
	assert.ErrorIs(t, l.Mint(owner, owner, amount("2000000000000")), ErrExceedsPermit)
	require.NoError(t, l.Mint(owner, owner, amount("500000000000")))
	assert.Equal(t, "10500000000000", balance(t, l, owner))
	assert.ErrorIs(t, l.Mint(owner, owner, amount("500100000000")), ErrExceedsPermit)
	require.NoError(t, l.Mint(owner, owner, amount("500000000000")))
	assert.Equal(t, "11000000000000", balance(t, l, owner))

	assert.ErrorIs(t, l.Mint(alice, alice, big.NewInt(1)), ErrNotOwner)

	// period 1 has no rate yet
	clock.Advance(94608100)
	assert.ErrorIs(t, l.Mint(owner, owner, amount("500100000000")), ErrPermitRateNotAssigned)

	assert.ErrorIs(t, l.GrantDAORole(alice, alice), ErrNotOwner)
	require.NoError(t, l.GrantDAORole(owner, alice))
	assert.ErrorIs(t, l.GrantDAORole(owner, bob), ErrDAOAlreadyGranted)

	assert.ErrorIs(t, l.AssignPermitRate(owner, 20), ErrNotDAO)
	require.NoError(t, l.AssignPermitRate(alice, 20))

	require.NoError(t, l.Mint(owner, owner, amount("1500000000000")))
	assert.ErrorIs(t, l.Mint(owner, owner, amount("500100000000")), ErrExceedsPermit)
	require.NoError(t, l.Mint(owner, owner, amount("500000000000")))
	assert.Equal(t, "13000000000000", balance(t, l, owner))

	// one period ahead only
	require.NoError(t, l.AssignPermitRate(alice, 15))
	assert.ErrorIs(t, l.AssignPermitRate(alice, 15), ErrPermitRateTooEarly)
	assert.ErrorIs(t, l.Mint(owner, owner, amount("500100000000")), ErrExceedsPermit)

	clock.Advance(31536000)
	require.NoError(t, l.Mint(owner, owner, amount("1500000000000")))
	assert.Equal(t, "14500000000000", balance(t, l, owner))

	clock.Advance(31539000)
	assert.ErrorIs(t, l.Mint(owner, owner, big.NewInt(100)), ErrPermitRateNotAssigned)

	assert.ErrorIs(t, l.ChangeDAOAddress(owner, bob), ErrNotDAO)
	require.NoError(t, l.ChangeDAOAddress(alice, bob))
	info, err := l.Info()
	require.NoError(t, err)
	assert.Equal(t, bob, info.DAO)
	assert.Equal(t, uint64(3), info.Period)
	assert.Equal(t, 0, info.Quota.Sign())
	require.NoError(t, l.ChangeDAOAddress(bob, alice))
	info, err = l.Info()
	require.NoError(t, err)
	assert.Equal(t, alice, info.DAO)

	supply, err := l.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, "14500000000000", supply.String())
}

func TestIssueSharesQuota(t *testing.T) {
	l, sctx, _ := newLedger(t)

	require.NoError(t, sctx.Exec(func() error { return l.Issue(alice, amount("600000000000")) }))
	assert.Equal(t, "600000000000", balance(t, l, alice))

	err := sctx.Exec(func() error { return l.Issue(alice, amount("400000000001")) })
	assert.ErrorIs(t, err, ErrExceedsPermit)
	assert.ErrorIs(t, l.Mint(owner, owner, amount("400000000001")), ErrExceedsPermit)
	require.NoError(t, l.Mint(owner, owner, amount("400000000000")))

	info, err := l.Info()
	require.NoError(t, err)
	assert.Equal(t, "1000000000000", info.Minted.String())

	require.NoError(t, sctx.Exec(func() error { return l.Issue(alice, big.NewInt(0)) }))
}

func TestIssuedMetricAfterCommit(t *testing.T) {
	l, sctx, _ := newLedger(t)
	before := issuedCount(t, "reward")

	boom := errors.New("boom")
	err := sctx.Exec(func() error {
		if err := l.Issue(alice, big.NewInt(100)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "0", balance(t, l, alice))
	assert.Equal(t, before, issuedCount(t, "reward"))

	require.NoError(t, sctx.Exec(func() error { return l.Issue(alice, big.NewInt(100)) }))
	assert.Equal(t, before+1, issuedCount(t, "reward"))

	minted := issuedCount(t, "mint")
	assert.ErrorIs(t, l.Mint(owner, owner, amount("2000000000000")), ErrExceedsPermit)
	assert.Equal(t, minted, issuedCount(t, "mint"))
	require.NoError(t, l.Mint(owner, owner, big.NewInt(1)))
	assert.Equal(t, minted+1, issuedCount(t, "mint"))
}

func TestAssetNamespace(t *testing.T) {
	l, sctx, clock := newLedger(t)
	asset := NewAsset(sctx, clock.Now, "TKN")

	ok, err := asset.Initialized()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, asset.Initialize(&Genesis{
		Owner:         bob,
		Name:          "Test Token",
		Symbol:        "TKN",
		Decimals:      18,
		InitialSupply: amount("5000000"),
	}))
	assert.Equal(t, "5000000", balance(t, asset, bob))
	assert.Equal(t, "0", balance(t, l, bob))
	assert.Equal(t, "10000000000000", balance(t, l, owner))

	require.NoError(t, asset.Transfer(bob, alice, big.NewInt(10)))
	assert.Equal(t, "10", balance(t, asset, alice))
	assert.Equal(t, "0", balance(t, l, alice))

	info, err := asset.Info()
	require.NoError(t, err)
	assert.Equal(t, "TKN", info.Symbol)
	assert.Equal(t, uint8(18), info.Decimals)
	assert.Equal(t, 0, info.Quota.Sign())
}

func TestPeriodAt(t *testing.T) {
	assert.Equal(t, uint64(0), PeriodAt(100, 100))
	assert.Equal(t, uint64(0), PeriodAt(100, 100+FirstPeriod-1))
	assert.Equal(t, uint64(1), PeriodAt(100, 100+FirstPeriod))
	assert.Equal(t, uint64(1), PeriodAt(100, 100+FirstPeriod+Period-1))
	assert.Equal(t, uint64(2), PeriodAt(100, 100+FirstPeriod+Period))
	assert.Equal(t, "150", PeriodQuota(big.NewInt(1000), 15).String())
}
