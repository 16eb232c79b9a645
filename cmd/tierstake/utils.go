// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/tierstake/api/auth"
	"github.com/vechain/tierstake/cmd/tierstake/httpserver"
	"github.com/vechain/tierstake/kv"
	"github.com/vechain/tierstake/log"
	"github.com/vechain/tierstake/lvldb"
	"github.com/vechain/tierstake/sale"
	"github.com/vechain/tierstake/staker"
	"github.com/vechain/tierstake/storage"
	"github.com/vechain/tierstake/token"
	"github.com/vechain/tierstake/types"
)

func initLogger(ctx *cli.Context, w io.Writer) (*slog.LevelVar, error) {
	verbosity := ctx.Int(verbosityFlag.Name)
	if verbosity < 0 {
		return nil, fmt.Errorf("invalid verbosity %d", verbosity)
	}
	logLevel := new(slog.LevelVar)
	logLevel.Set(log.FromLegacyLevel(verbosity))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(w, logLevel)
	} else {
		useColor := false
		if f, ok := w.(*os.File); ok {
			useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
		handler = log.NewTerminalHandlerWithLevel(w, logLevel, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return logLevel, nil
}

// loadEnvFile populates the environment from path. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(godotenv.Load(path), "load env file [%v]", path)
}

func makeDataDir(ctx *cli.Context) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", fmt.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	return dataDir, nil
}

// ledgerBucket prefixes every ledger slot in the main database.
const ledgerBucket = kv.Bucket("ledger/")

// openMainDB opens the ledger database, on disk when --persist is set.
func openMainDB(ctx *cli.Context) (*lvldb.LevelDB, string, error) {
	if !ctx.Bool(persistFlag.Name) {
		db, err := lvldb.NewMem()
		return db, "Memory", err
	}
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return nil, "", err
	}
	return openPersistedDB(filepath.Join(dataDir, "main.db"), ctx.Int(dbCacheFlag.Name), false)
}

func openPersistedDB(dir string, cacheMB int, readOnly bool) (*lvldb.LevelDB, string, error) {
	fdCache, err := suggestFDCache()
	if err != nil {
		return nil, "", err
	}
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              normalizeCacheSize(cacheMB),
		OpenFilesCacheCapacity: fdCache,
		ReadOnly:               readOnly,
	})
	if err != nil {
		return nil, "", errors.Wrapf(err, "open main database [%v]", dir)
	}
	return db, dir, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		log.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			log.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() (int, error) {
	limit, err := fdlimit.Current()
	if err != nil {
		return 0, errors.Wrap(err, "get fd limit")
	}
	if limit <= 1024 {
		log.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 1024 {
		return 1024, nil
	}
	return n, nil
}

func loadConfig(ctx *cli.Context) (*Config, error) {
	path := ctx.String(configFlag.Name)
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// newAssets opens the ledger of every configured sale asset.
func newAssets(cfg *Config, sctx *storage.Context, clock types.Clock) (map[string]*token.Ledger, error) {
	genes, err := cfg.AssetGenesis()
	if err != nil {
		return nil, err
	}
	assets := make(map[string]*token.Ledger, len(genes))
	for symbol := range genes {
		assets[symbol] = token.NewAsset(sctx, clock, symbol)
	}
	return assets, nil
}

// saleAssets narrows the asset ledgers to what the sale factory needs.
func saleAssets(assets map[string]*token.Ledger) map[string]sale.Asset {
	out := make(map[string]sale.Asset, len(assets))
	for symbol, l := range assets {
		out[symbol] = l
	}
	return out
}

// initLedgers applies the genesis on an empty database. Existing state is kept.
func initLedgers(cfg *Config, ledger *token.Ledger, stk *staker.Staker, assets map[string]*token.Ledger, factory *sale.Factory) error {
	tokenGene, stakerGene, err := cfg.Genesis()
	if err != nil {
		return err
	}
	assetGenes, err := cfg.AssetGenesis()
	if err != nil {
		return err
	}

	ok, err := ledger.Initialized()
	if err != nil {
		return err
	}
	if !ok {
		if err := ledger.Initialize(tokenGene); err != nil {
			return errors.WithMessage(err, "initialize token")
		}
		log.Info("token initialized", "owner", tokenGene.Owner, "supply", tokenGene.InitialSupply)
	}

	ok, err = stk.Initialized()
	if err != nil {
		return err
	}
	if !ok {
		if err := stk.Initialize(stakerGene); err != nil {
			return errors.WithMessage(err, "initialize staker")
		}
		log.Info("staker initialized", "admin", stakerGene.Admin, "apr", stakerGene.APR, "mode", stakerGene.Mode, "levels", stakerGene.Tiers.Levels())
	}

	for symbol, asset := range assets {
		ok, err := asset.Initialized()
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		gene := assetGenes[symbol]
		if gene == nil {
			return errors.Errorf("asset %q: not configured", symbol)
		}
		if err := asset.Initialize(gene); err != nil {
			return errors.WithMessagef(err, "initialize asset %q", symbol)
		}
		log.Info("asset initialized", "symbol", symbol, "owner", gene.Owner, "supply", gene.InitialSupply)
	}

	ok, err = factory.Initialized()
	if err != nil {
		return err
	}
	if !ok {
		if err := factory.Initialize(cfg.SaleAdmin()); err != nil {
			return errors.WithMessage(err, "initialize sale factory")
		}
		log.Info("sale factory initialized", "admin", cfg.SaleAdmin())
	}
	return nil
}

// signingDomain derives the request signing domain from the persisted
// genesis, so a config change after the first start does not move it.
func signingDomain(ledger *token.Ledger, stk *staker.Staker) (types.Bytes32, error) {
	admin, err := stk.Admin()
	if err != nil {
		return types.Bytes32{}, err
	}
	info, err := ledger.Info()
	if err != nil {
		return types.Bytes32{}, err
	}
	return auth.DeriveDomain(admin, info.Owner, info.StartTime), nil
}

// ledgerGauges exports the stake and sale counters on each metrics scrape.
func ledgerGauges(stk *staker.Staker, factory *sale.Factory) []httpserver.LedgerGauge {
	return []httpserver.LedgerGauge{
		{Name: "staker_next_stake_id", Read: func() (int64, error) {
			id, err := stk.NextStakeID()
			return int64(id), err
		}},
		{Name: "staker_apr", Read: func() (int64, error) {
			apr, err := stk.APR()
			return int64(apr), err
		}},
		{Name: "sale_count", Read: func() (int64, error) {
			n, err := factory.Count()
			return int64(n), err
		}},
	}
}

// storeCheck reports whether the store answers reads.
func storeCheck(store kv.Getter) func() error {
	return func() error {
		_, err := store.Has([]byte("check"))
		return err
	}
}

func initializedCheck(initialized func() (bool, error)) func() error {
	return func() error {
		ok, err := initialized()
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("not initialized")
		}
		return nil
	}
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.vechain.tierstake")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.tierstake")
		default:
			return filepath.Join(home, ".org.vechain.tierstake")
		}
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
