// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/tierstake/accrual"
	"github.com/vechain/tierstake/staker"
	"github.com/vechain/tierstake/tier"
	"github.com/vechain/tierstake/token"
	"github.com/vechain/tierstake/types"
)

// devAccount administers the built-in config.
var devAccount = types.MustParseAddress("0xf077b491b355E64048cE21E3A6Fc4751eEeA77fa")

type TokenConfig struct {
	Owner             types.Address                           `yaml:"owner"`
	Name              string                                  `yaml:"name"`
	Symbol            string                                  `yaml:"symbol"`
	Decimals          uint8                                   `yaml:"decimals"`
	InitialSupply     *math.HexOrDecimal256                   `yaml:"initialSupply"`
	InitialPermitRate uint64                                  `yaml:"initialPermitRate"`
	Allocations       map[types.Address]*math.HexOrDecimal256 `yaml:"allocations,omitempty"`
}

// AssetConfig seeds a token offered in sales. The supply goes to the owner.
type AssetConfig struct {
	Owner         types.Address         `yaml:"owner"`
	Name          string                `yaml:"name"`
	Symbol        string                `yaml:"symbol"`
	Decimals      uint8                 `yaml:"decimals"`
	InitialSupply *math.HexOrDecimal256 `yaml:"initialSupply"`
}

type SaleConfig struct {
	// Admin manages the sale creators, the stake admin if unset.
	Admin  types.Address `yaml:"admin,omitempty"`
	Assets []AssetConfig `yaml:"assets,omitempty"`
}

// Config is the genesis of a ledger instance. It is applied on the first start only.
type Config struct {
	Admin   types.Address           `yaml:"admin"`
	APR     uint64                  `yaml:"apr"`
	Accrual string                  `yaml:"accrual"`
	Tiers   []*math.HexOrDecimal256 `yaml:"tiers"`
	Token   TokenConfig             `yaml:"token"`
	Sale    SaleConfig              `yaml:"sale"`
}

func amounts(values ...int64) []*math.HexOrDecimal256 {
	out := make([]*math.HexOrDecimal256, len(values))
	for i, v := range values {
		out[i] = (*math.HexOrDecimal256)(big.NewInt(v))
	}
	return out
}

func DefaultConfig() *Config {
	return &Config{
		Admin:   devAccount,
		APR:     10,
		Accrual: string(accrual.Retroactive),
		Tiers:   amounts(0, 1000, 5000, 10000, 25000, 50000, 75000, 100000, 500000),
		Token: TokenConfig{
			Owner:             devAccount,
			Name:              "XStarter",
			Symbol:            "XST",
			Decimals:          8,
			InitialSupply:     (*math.HexOrDecimal256)(big.NewInt(10_000_000_000_000)),
			InitialPermitRate: 10,
		},
		Sale: SaleConfig{
			Assets: []AssetConfig{{
				Owner:         devAccount,
				Name:          "Sale Token",
				Symbol:        "TKN",
				Decimals:      18,
				InitialSupply: (*math.HexOrDecimal256)(new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil)),
			}},
		},
	}
}

// LoadConfig reads a YAML config file. Unknown fields are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config can seed the ledgers and the sale factory.
func (c *Config) Validate() error {
	if _, _, err := c.Genesis(); err != nil {
		return err
	}
	_, err := c.AssetGenesis()
	return err
}

// SaleAdmin returns the sale factory admin.
func (c *Config) SaleAdmin() types.Address {
	if c.Sale.Admin.IsZero() {
		return c.Admin
	}
	return c.Sale.Admin
}

// AssetGenesis converts the sale assets into token genesis, keyed by symbol.
func (c *Config) AssetGenesis() (map[string]*token.Genesis, error) {
	genes := make(map[string]*token.Genesis, len(c.Sale.Assets))
	for i, a := range c.Sale.Assets {
		switch {
		case a.Symbol == "":
			return nil, errors.Errorf("sale.assets[%d].symbol: required", i)
		case a.Symbol == c.Token.Symbol:
			return nil, errors.Errorf("sale.assets[%d].symbol: %q is the stake token", i, a.Symbol)
		case genes[a.Symbol] != nil:
			return nil, errors.Errorf("sale.assets[%d].symbol: duplicate %q", i, a.Symbol)
		case a.Owner.IsZero():
			return nil, errors.Errorf("sale.assets[%d].owner: zero address", i)
		case a.InitialSupply == nil:
			return nil, errors.Errorf("sale.assets[%d].initialSupply: required", i)
		}
		genes[a.Symbol] = &token.Genesis{
			Owner:         a.Owner,
			Name:          a.Name,
			Symbol:        a.Symbol,
			Decimals:      a.Decimals,
			InitialSupply: (*big.Int)(a.InitialSupply),
		}
	}
	return genes, nil
}

// Genesis converts the config into the token and staker genesis.
func (c *Config) Genesis() (*token.Genesis, *staker.Genesis, error) {
	if c.Admin.IsZero() {
		return nil, nil, errors.New("admin: zero address")
	}
	if c.Token.Owner.IsZero() {
		return nil, nil, errors.New("token.owner: zero address")
	}
	if c.Token.InitialSupply == nil {
		return nil, nil, errors.New("token.initialSupply: required")
	}
	mode, err := accrual.ParseMode(c.Accrual)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "accrual")
	}

	values := make([]*big.Int, len(c.Tiers))
	for i, v := range c.Tiers {
		if v == nil {
			return nil, nil, errors.Errorf("tiers[%d]: empty", i)
		}
		values[i] = (*big.Int)(v)
	}
	tiers, err := tier.NewTable(values)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "tiers")
	}

	allocations := make(map[types.Address]*big.Int, len(c.Token.Allocations))
	for addr, amount := range c.Token.Allocations {
		if amount == nil || (*big.Int)(amount).Sign() < 0 {
			return nil, nil, errors.Errorf("token.allocations[%v]: invalid amount", addr)
		}
		allocations[addr] = (*big.Int)(amount)
	}

	return &token.Genesis{
			Owner:             c.Token.Owner,
			Name:              c.Token.Name,
			Symbol:            c.Token.Symbol,
			Decimals:          c.Token.Decimals,
			InitialSupply:     (*big.Int)(c.Token.InitialSupply),
			InitialPermitRate: c.Token.InitialPermitRate,
			Allocations:       allocations,
		}, &staker.Genesis{
			Admin: c.Admin,
			APR:   c.APR,
			Mode:  mode,
			Tiers: tiers,
		}, nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
