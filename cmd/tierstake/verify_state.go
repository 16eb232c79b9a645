// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/tierstake/staker"
	"github.com/vechain/tierstake/storage"
	"github.com/vechain/tierstake/token"
	"github.com/vechain/tierstake/types"
)

// amounts are kept in decimal form so that states compare by value.
type accountState struct {
	Address types.Address
	Locked  string
	Stakes  []uint64
}

type ledgerState struct {
	TotalLocked   string
	MintedRewards string
	Accounts      []*accountState
}

func verifyStateAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()

	if _, err := initLogger(ctx, os.Stderr); err != nil {
		return err
	}

	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return fmt.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	db, _, err := openPersistedDB(filepath.Join(dataDir, "main.db"), ctx.Int(dbCacheFlag.Name), true)
	if err != nil {
		return err
	}
	defer db.Close()

	sctx, err := storage.NewContext(ledgerBucket.NewStore(db), ctx.Int(cacheFlag.Name))
	if err != nil {
		return err
	}
	clock := types.Clock(types.SystemClock)
	stk := staker.New(sctx, token.New(sctx, clock), clock)
	defer stk.Close()

	ok, err := stk.Initialized()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("ledger not initialized")
	}
	return verifyState(exitSignal, stk, os.Stdout)
}

// verifyState rebuilds the holder aggregates and engine totals from the
// stake records and compares them with the stored ones.
func verifyState(ctx context.Context, stk *staker.Staker, out io.Writer) error {
	fmt.Fprintln(out, ">> Verifying ledger state <<")

	next, err := stk.NextStakeID()
	if err != nil {
		return err
	}

	bar := pb.New64(int64(next)).
		Set64(0).
		SetMaxWidth(90)
	bar.Output = out
	bar.Start()
	defer bar.Finish()

	var (
		totalLocked = new(big.Int)
		minted      = new(big.Int)
		locked      = make(map[types.Address]*big.Int)
		stakes      = make(map[types.Address][]uint64)
	)
	for id := uint64(0); id < next; id++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		stake, err := stk.GetStake(id)
		if err != nil {
			return errors.Wrapf(err, "get stake #%v", id)
		}
		if locked[stake.Owner] == nil {
			locked[stake.Owner] = new(big.Int)
		}
		stakes[stake.Owner] = append(stakes[stake.Owner], id)
		if stake.Active {
			locked[stake.Owner].Add(locked[stake.Owner], stake.Amount)
			totalLocked.Add(totalLocked, stake.Amount)
		} else if stake.Reward != nil {
			minted.Add(minted, stake.Reward)
		}
		bar.Add64(1)
	}
	bar.Finish()

	params, err := stk.Params()
	if err != nil {
		return err
	}
	expected := &ledgerState{TotalLocked: totalLocked.String(), MintedRewards: minted.String()}
	actual := &ledgerState{TotalLocked: params.TotalLocked.String(), MintedRewards: params.MintedRewards.String()}
	for addr, amount := range locked {
		expected.Accounts = append(expected.Accounts, &accountState{Address: addr, Locked: amount.String(), Stakes: stakes[addr]})

		stored, err := stk.UserStakeAmount(addr)
		if err != nil {
			return err
		}
		ids, err := stk.StakesOf(addr)
		if err != nil {
			return err
		}
		actual.Accounts = append(actual.Accounts, &accountState{Address: addr, Locked: stored.String(), Stakes: ids})
	}
	sortAccounts(expected.Accounts)
	sortAccounts(actual.Accounts)

	if !reflect.DeepEqual(expected, actual) {
		fmt.Fprintln(out, "\nDiff ledger state")
		fmt.Fprintln(out, jsonDiff(expected, actual))
		return errors.New("incorrect ledger state")
	}
	fmt.Fprintf(out, "ledger state OK, %v stakes, %v accounts\n", next, len(locked))
	return nil
}

func sortAccounts(accs []*accountState) {
	sort.Slice(accs, func(i, j int) bool {
		return bytes.Compare(accs[i].Address[:], accs[j].Address[:]) < 0
	})
}

func jsonDiff(expected, actual any) string {
	e, _ := json.MarshalIndent(expected, "", "  ")
	a, _ := json.MarshalIndent(actual, "", "  ")
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(e)),
		B:        difflib.SplitLines(string(a)),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	return diff
}
