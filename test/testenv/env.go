// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testenv builds an in-memory token ledger, staker and sale factory
// sharing one storage context, for tests of the outer layers.
package testenv

import (
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/vechain/tierstake/accrual"
	"github.com/vechain/tierstake/api/auth"
	"github.com/vechain/tierstake/cry"
	"github.com/vechain/tierstake/lvldb"
	"github.com/vechain/tierstake/sale"
	"github.com/vechain/tierstake/staker"
	"github.com/vechain/tierstake/storage"
	"github.com/vechain/tierstake/tier"
	"github.com/vechain/tierstake/token"
	"github.com/vechain/tierstake/types"
)

// GenesisTime is the initial time of the manual clock.
const GenesisTime = uint64(1_700_000_000)

// AssetSymbol is the asset offered by sales.
const AssetSymbol = "TKN"

var (
	AdminKey    = mustKey("dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65")
	AliceKey    = mustKey("321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51")
	BobKey      = mustKey("2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2")
	StrangerKey = mustKey("593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e")

	Admin    = cry.PubkeyToAddress(AdminKey.PubKey())
	Alice    = cry.PubkeyToAddress(AliceKey.PubKey())
	Bob      = cry.PubkeyToAddress(BobKey.PubKey())
	Stranger = cry.PubkeyToAddress(StrangerKey.PubKey())
)

func mustKey(hex string) *secp256k1.PrivateKey {
	key, err := cry.HexToPrivateKey(hex)
	if err != nil {
		panic(err)
	}
	return key
}

// Env is a ready to use token ledger, staker and sale factory.
type Env struct {
	db      *lvldb.LevelDB
	context *storage.Context
	clock   *types.ManualClock
	ledger  *token.Ledger
	asset   *token.Ledger
	staker  *staker.Staker
	sales   *sale.Factory
	signing *cry.Signing
	auth    *auth.Authenticator
}

// DefaultTiers returns the thresholds 0, 1000, 5000, 10000, 25000, 50000, 75000, 100000, 500000.
func DefaultTiers() tier.Table {
	tb, err := tier.Uint64s(0, 1000, 5000, 10000, 25000, 50000, 75000, 100000, 500000)
	if err != nil {
		panic(err)
	}
	return tb
}

// NewDefault creates an Env where Admin owns the token and the staker, the
// token has a supply of 1e10 with a 10% permit rate, Alice and Bob hold
// 1,000,000 each and the APR is 10.
func NewDefault() (*Env, error) {
	return New(
		&token.Genesis{
			Owner:             Admin,
			Name:              "Tier Token",
			Symbol:            "TIER",
			Decimals:          18,
			InitialSupply:     big.NewInt(10_000_000_000),
			InitialPermitRate: 10,
			Allocations: map[types.Address]*big.Int{
				Alice: big.NewInt(1_000_000),
				Bob:   big.NewInt(1_000_000),
			},
		},
		&staker.Genesis{
			Admin: Admin,
			APR:   10,
			Mode:  accrual.Retroactive,
			Tiers: DefaultTiers(),
		},
	)
}

// New creates an Env on an in-memory database. The stake admin also owns
// 1,000,000 units of the sale asset and administers the sale factory.
func New(tokenGene *token.Genesis, stakerGene *staker.Genesis) (*Env, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	env, err := build(db, tokenGene, stakerGene)
	if err != nil {
		db.Close()
		return nil, err
	}
	return env, nil
}

func build(db *lvldb.LevelDB, tokenGene *token.Genesis, stakerGene *staker.Genesis) (*Env, error) {
	sctx, err := storage.NewContext(db, 0)
	if err != nil {
		return nil, err
	}
	clock := types.NewManualClock(GenesisTime)

	ledger := token.New(sctx, clock.Now)
	if err := ledger.Initialize(tokenGene); err != nil {
		return nil, err
	}
	stk := staker.New(sctx, ledger, clock.Now)
	if err := stk.Initialize(stakerGene); err != nil {
		return nil, err
	}

	asset := token.NewAsset(sctx, clock.Now, AssetSymbol)
	if err := asset.Initialize(&token.Genesis{
		Owner:         stakerGene.Admin,
		Name:          "Sale Token",
		Symbol:        AssetSymbol,
		Decimals:      8,
		InitialSupply: big.NewInt(1_000_000),
	}); err != nil {
		return nil, err
	}
	sales := sale.New(sctx, clock.Now, stk, ledger, map[string]sale.Asset{AssetSymbol: asset})
	if err := sales.Initialize(stakerGene.Admin); err != nil {
		return nil, err
	}

	signing, err := cry.NewSigning(auth.DeriveDomain(stakerGene.Admin, tokenGene.Owner, GenesisTime))
	if err != nil {
		return nil, err
	}
	return &Env{
		db:      db,
		context: sctx,
		clock:   clock,
		ledger:  ledger,
		asset:   asset,
		staker:  stk,
		sales:   sales,
		signing: signing,
		auth:    auth.New(sctx, signing),
	}, nil
}

func (e *Env) Context() *storage.Context          { return e.context }
func (e *Env) Clock() *types.ManualClock          { return e.clock }
func (e *Env) Ledger() *token.Ledger              { return e.ledger }
func (e *Env) Asset() *token.Ledger               { return e.asset }
func (e *Env) Staker() *staker.Staker             { return e.staker }
func (e *Env) Sales() *sale.Factory               { return e.sales }
func (e *Env) Signing() *cry.Signing              { return e.signing }
func (e *Env) Authenticator() *auth.Authenticator { return e.auth }

// Assets returns the asset ledgers by symbol.
func (e *Env) Assets() map[string]*token.Ledger {
	return map[string]*token.Ledger{AssetSymbol: e.asset}
}

// Close ends staker subscriptions and releases the database.
func (e *Env) Close() error {
	e.staker.Close()
	return e.db.Close()
}
