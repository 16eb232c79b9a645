// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	envFileFlag = cli.StringFlag{
		Name:  "env-file",
		Value: ".env",
		Usage: "file of KEY=VALUE pairs loaded into the environment before reading flags",
	}
	configFlag = cli.StringFlag{
		Name:   "config",
		Usage:  "path to the genesis config file (YAML), the built-in default is used if not set",
		EnvVar: "TIERSTAKE_CONFIG",
	}
	dataDirFlag = cli.StringFlag{
		Name:   "data-dir",
		Value:  defaultDataDir(),
		Usage:  "directory for the ledger database",
		EnvVar: "TIERSTAKE_DATA_DIR",
	}
	persistFlag = cli.BoolFlag{
		Name:   "persist",
		Usage:  "store the ledger on disk, otherwise it lives in memory",
		EnvVar: "TIERSTAKE_PERSIST",
	}
	cacheFlag = cli.IntFlag{
		Name:   "cache",
		Value:  4096,
		Usage:  "number of ledger slots kept in the read cache",
		EnvVar: "TIERSTAKE_CACHE",
	}
	dbCacheFlag = cli.IntFlag{
		Name:   "db-cache",
		Value:  128,
		Usage:  "megabytes of RAM allocated to the database, capped at half of the physical memory",
		EnvVar: "TIERSTAKE_DB_CACHE",
	}
	ntpServerFlag = cli.StringFlag{
		Name:   "ntp-server",
		Value:  "pool.ntp.org",
		Usage:  "NTP server used to watch the local clock, empty to disable",
		EnvVar: "TIERSTAKE_NTP_SERVER",
	}
	apiAddrFlag = cli.StringFlag{
		Name:   "api-addr",
		Value:  "localhost:8669",
		Usage:  "API service listening address",
		EnvVar: "TIERSTAKE_API_ADDR",
	}
	apiCorsFlag = cli.StringFlag{
		Name:   "api-cors",
		Value:  "",
		Usage:  "comma separated list of domains from which to accept cross origin requests to API",
		EnvVar: "TIERSTAKE_API_CORS",
	}
	apiTimeoutFlag = cli.IntFlag{
		Name:   "api-timeout",
		Value:  10000,
		Usage:  "API request timeout value in milliseconds",
		EnvVar: "TIERSTAKE_API_TIMEOUT",
	}
	apiSlowQueriesThresholdFlag = cli.IntFlag{
		Name:   "api-slow-queries-threshold",
		Value:  0,
		Usage:  "all queries with duration(ms) above the threshold will be logged",
		EnvVar: "TIERSTAKE_API_SLOW_QUERIES_THRESHOLD",
	}
	apiLog5xxErrorsFlag = cli.BoolFlag{
		Name:   "api-log-5xx-errors",
		Usage:  "log all requests answered with a 5xx status",
		EnvVar: "TIERSTAKE_API_LOG_5XX_ERRORS",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:   "enable-api-logs",
		Usage:  "enables API requests logging",
		EnvVar: "TIERSTAKE_ENABLE_API_LOGS",
	}
	verbosityFlag = cli.IntFlag{
		Name:   "verbosity",
		Value:  3,
		Usage:  "log verbosity (0-5)",
		EnvVar: "TIERSTAKE_VERBOSITY",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:   "json-logs",
		Usage:  "output logs in JSON format",
		EnvVar: "TIERSTAKE_JSON_LOGS",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:   "enable-metrics",
		Usage:  "enables metrics collection",
		EnvVar: "TIERSTAKE_ENABLE_METRICS",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:   "metrics-addr",
		Value:  "localhost:2112",
		Usage:  "metrics service listening address",
		EnvVar: "TIERSTAKE_METRICS_ADDR",
	}
	enableAdminFlag = cli.BoolFlag{
		Name:   "enable-admin",
		Usage:  "enables admin server",
		EnvVar: "TIERSTAKE_ENABLE_ADMIN",
	}
	adminAddrFlag = cli.StringFlag{
		Name:   "admin-addr",
		Value:  "localhost:2113",
		Usage:  "admin service listening address",
		EnvVar: "TIERSTAKE_ADMIN_ADDR",
	}
	outputFlag = cli.StringFlag{
		Name:  "output",
		Usage: "write the config to this file instead of stdout",
	}
)
