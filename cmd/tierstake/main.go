// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/tierstake/api"
	"github.com/vechain/tierstake/api/auth"
	"github.com/vechain/tierstake/cmd/tierstake/httpserver"
	"github.com/vechain/tierstake/co"
	"github.com/vechain/tierstake/cry"
	"github.com/vechain/tierstake/health"
	"github.com/vechain/tierstake/log"
	"github.com/vechain/tierstake/metrics"
	"github.com/vechain/tierstake/sale"
	"github.com/vechain/tierstake/staker"
	"github.com/vechain/tierstake/storage"
	"github.com/vechain/tierstake/token"
	"github.com/vechain/tierstake/types"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "TierStake"
	app.Usage = "Tiered staking and reward ledger"
	app.Copyright = "2026 VeChain Foundation <https://vechain.org/>"
	app.Flags = []cli.Flag{
		envFileFlag,
		configFlag,
		dataDirFlag,
		persistFlag,
		cacheFlag,
		dbCacheFlag,
		ntpServerFlag,
		apiAddrFlag,
		apiCorsFlag,
		apiTimeoutFlag,
		apiSlowQueriesThresholdFlag,
		apiLog5xxErrorsFlag,
		enableAPILogsFlag,
		verbosityFlag,
		jsonLogsFlag,
		enableMetricsFlag,
		metricsAddrFlag,
		enableAdminFlag,
		adminAddrFlag,
	}
	app.Before = func(ctx *cli.Context) error {
		return loadEnvFile(ctx.GlobalString(envFileFlag.Name))
	}
	app.Action = defaultAction
	app.Commands = []cli.Command{
		{
			Name:   "default-config",
			Usage:  "print the built-in genesis config",
			Flags:  []cli.Flag{outputFlag},
			Action: defaultConfigAction,
		},
		{
			Name:   "check-config",
			Usage:  "validate a genesis config file",
			Flags:  []cli.Flag{configFlag},
			Action: checkConfigAction,
		},
		{
			Name:   "verify-state",
			Usage:  "recompute the stake aggregates of a persisted ledger and compare them with the stored ones",
			Flags:  []cli.Flag{dataDirFlag, dbCacheFlag, cacheFlag, verbosityFlag, jsonLogsFlag},
			Action: verifyStateAction,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Fatal:", err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()

	logLevel, err := initLogger(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { log.Info("exited") }()

	var goes co.Goes
	defer goes.Wait()
	watchCtx, cancelWatch := context.WithCancel(exitSignal)
	defer cancelWatch()
	if server := ctx.String(ntpServerFlag.Name); server != "" {
		goes.Go(func() { clockWatch(watchCtx, server) })
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	mainDB, dbPath, err := openMainDB(ctx)
	if err != nil {
		return err
	}
	defer func() { log.Info("closing main database..."); mainDB.Close() }()

	sctx, err := storage.NewContext(ledgerBucket.NewStore(mainDB), ctx.Int(cacheFlag.Name))
	if err != nil {
		return err
	}
	clock := types.Clock(types.SystemClock)
	ledger := token.New(sctx, clock)
	stk := staker.New(sctx, ledger, clock)
	defer stk.Close()
	assets, err := newAssets(cfg, sctx, clock)
	if err != nil {
		return err
	}
	factory := sale.New(sctx, clock, stk, ledger, saleAssets(assets))
	if err := initLedgers(cfg, ledger, stk, assets, factory); err != nil {
		return err
	}
	domain, err := signingDomain(ledger, stk)
	if err != nil {
		return err
	}
	signing, err := cry.NewSigning(domain)
	if err != nil {
		return err
	}

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	handler, closeSubs := api.New(stk, ledger, assets, factory, auth.New(sctx, signing), clock, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EnableReqLogger:      apiLogs,
		SlowQueriesThreshold: time.Duration(ctx.Int(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
	})
	apiURL, stopAPI, err := httpserver.StartAPIServer(
		ctx.String(apiAddrFlag.Name),
		handler,
		time.Duration(ctx.Int(apiTimeoutFlag.Name))*time.Millisecond,
	)
	if err != nil {
		closeSubs()
		return err
	}
	defer func() { log.Info("stopping API server..."); closeSubs(); stopAPI() }()

	healthStatus := health.New(
		health.Check{Name: "store", Run: storeCheck(mainDB)},
		health.Check{Name: "token", Run: initializedCheck(ledger.Initialized)},
		health.Check{Name: "staker", Run: initializedCheck(stk.Initialized)},
		health.Check{Name: "sale", Run: initializedCheck(factory.Initialized)},
	)
	healthStatus.Serving(true)
	defer healthStatus.Serving(false)

	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		url, stop, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name), ledgerGauges(stk, factory)...)
		if err != nil {
			return err
		}
		defer func() { log.Info("stopping metrics server..."); stop() }()
		metricsURL = url
	}

	adminURL := ""
	if ctx.Bool(enableAdminFlag.Name) {
		url, stop, err := httpserver.StartAdminServer(ctx.String(adminAddrFlag.Name), logLevel, healthStatus, apiLogs)
		if err != nil {
			return errors.WithMessage(err, "start admin server")
		}
		defer func() { log.Info("stopping admin server..."); stop() }()
		adminURL = url
	}

	params, err := stk.Params()
	if err != nil {
		return err
	}
	printStartupMessage(params, domain, dbPath, apiURL, metricsURL, adminURL)

	<-exitSignal.Done()
	return nil
}

func printStartupMessage(params *staker.Params, domain types.Bytes32, dbPath, apiURL, metricsURL, adminURL string) {
	fmt.Printf(`Starting %v
    Admin        [ %v ]
    APR          [ %v%% %v ]
    Tiers        [ %v levels ]
    Next stake   [ #%v ]
    Signing      [ %v ]
    Database     [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
    Admin portal [ %v ]
`,
		"TierStake/"+fullVersion(),
		params.Admin,
		params.APR, params.Mode,
		params.Levels,
		params.NextStakeID,
		domain,
		dbPath,
		apiURL,
		orDisabled(metricsURL),
		orDisabled(adminURL),
	)
}

func orDisabled(url string) string {
	if url == "" {
		return "Disabled"
	}
	return url
}

func defaultConfigAction(ctx *cli.Context) error {
	data, err := DefaultConfig().Marshal()
	if err != nil {
		return err
	}
	if out := ctx.String(outputFlag.Name); out != "" {
		return errors.Wrap(os.WriteFile(out, data, 0o600), "write config")
	}
	_, err = os.Stdout.Write(data)
	return err
}

func checkConfigAction(ctx *cli.Context) error {
	path := ctx.String(configFlag.Name)
	if path == "" {
		return errors.New("config file not specified")
	}
	if _, err := LoadConfig(path); err != nil {
		return err
	}
	fmt.Println("config OK")
	return nil
}
