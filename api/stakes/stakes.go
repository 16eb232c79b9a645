// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/tierstake/api/auth"
	"github.com/vechain/tierstake/api/utils"
	"github.com/vechain/tierstake/staker"
	"github.com/vechain/tierstake/types"
)

type Stakes struct {
	staker *staker.Staker
	auth   *auth.Authenticator
}

func New(staker *staker.Staker, auth *auth.Authenticator) *Stakes {
	return &Stakes{
		staker: staker,
		auth:   auth,
	}
}

var errStatus = map[error]int{
	staker.ErrStakeNotFound: http.StatusNotFound,
	staker.ErrNotOwner:      http.StatusForbidden,
	staker.ErrNotAuthorized: http.StatusForbidden,
}

func convertError(err error) error {
	return utils.Revert(err, errStatus)
}

func parseID(req *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

func parseAddress(req *http.Request) (types.Address, error) {
	addr, err := types.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return types.Address{}, utils.BadRequest(errors.WithMessage(err, "address"))
	}
	return *addr, nil
}

func (s *Stakes) handleStake(w http.ResponseWriter, req *http.Request) error {
	var body StakeRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return utils.BadRequest(errors.New("amount: required"))
	}
	id, err := s.staker.Stake(auth.Caller(req), (*big.Int)(body.Amount))
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &StakeID{ID: id})
}

func (s *Stakes) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	stake, err := s.staker.GetStake(id)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, convertStake(id, stake))
}

func (s *Stakes) handleGetInterest(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	interest, err := s.staker.CalculateInterestAmount(id)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &Interest{ID: id, Interest: (*math.HexOrDecimal256)(interest)})
}

func (s *Stakes) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	reward, err := s.staker.Withdraw(auth.Caller(req), id)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &Withdrawal{ID: id, Reward: (*math.HexOrDecimal256)(reward)})
}

func (s *Stakes) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req)
	if err != nil {
		return err
	}
	acc, err := s.staker.Account(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Account{
		Address: addr,
		Balance: (*math.HexOrDecimal256)(acc.Balance),
		Staked:  (*math.HexOrDecimal256)(acc.Locked),
		Tier:    acc.Tier,
		Stakes:  acc.Stakes,
	})
}

func (s *Stakes) handleRefreshTier(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req)
	if err != nil {
		return err
	}
	level, err := s.staker.UpdateSenderTier(auth.Caller(req), addr)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &Tier{Tier: level})
}

func (s *Stakes) writeTiers(w http.ResponseWriter) error {
	table, err := s.staker.Thresholds()
	if err != nil {
		return convertError(err)
	}
	values := make([]*math.HexOrDecimal256, len(table))
	for i, v := range table {
		values[i] = (*math.HexOrDecimal256)(v)
	}
	return utils.WriteJSON(w, &Tiers{Levels: table.Levels(), Values: values})
}

func (s *Stakes) handleGetTiers(w http.ResponseWriter, _ *http.Request) error {
	return s.writeTiers(w)
}

func (s *Stakes) handleReplaceTiers(w http.ResponseWriter, req *http.Request) error {
	var body TiersRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.staker.UpdateTierValues(auth.Caller(req), body.values()); err != nil {
		return convertError(err)
	}
	return s.writeTiers(w)
}

func (s *Stakes) handleUpdateTier(w http.ResponseWriter, req *http.Request) error {
	index, err := strconv.Atoi(mux.Vars(req)["index"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "index"))
	}
	var body TierValueRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Value == nil {
		return utils.BadRequest(errors.New("value: required"))
	}
	if err := s.staker.UpdateSpecificTierValue(auth.Caller(req), (*big.Int)(body.Value), index); err != nil {
		return convertError(err)
	}
	return s.writeTiers(w)
}

func (s *Stakes) handleGetParams(w http.ResponseWriter, _ *http.Request) error {
	params, err := s.staker.Params()
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, convertParams(params))
}

func (s *Stakes) handleChangeAPR(w http.ResponseWriter, req *http.Request) error {
	var body APRRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.staker.ChangeAPR(auth.Caller(req), body.Rate); err != nil {
		return convertError(err)
	}
	return s.handleGetParams(w, req)
}

// Mount registers the stake, account, tier and parameter routes on root.
func (s *Stakes) Mount(root *mux.Router) {
	stakes := root.PathPrefix("/stakes").Subrouter()
	stakes.Path("").
		Methods(http.MethodPost).
		Name("stakes_create").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleStake)))
	stakes.Path("/{id}").
		Methods(http.MethodGet).
		Name("stakes_get").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStake))
	stakes.Path("/{id}/interest").
		Methods(http.MethodGet).
		Name("stakes_get_interest").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetInterest))
	stakes.Path("/{id}/withdraw").
		Methods(http.MethodPost).
		Name("stakes_withdraw").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleWithdraw)))

	accounts := root.PathPrefix("/accounts").Subrouter()
	accounts.Path("/{address}").
		Methods(http.MethodGet).
		Name("accounts_get").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetAccount))
	accounts.Path("/{address}/tier").
		Methods(http.MethodPost).
		Name("accounts_refresh_tier").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleRefreshTier)))

	tiers := root.PathPrefix("/tiers").Subrouter()
	tiers.Path("").
		Methods(http.MethodGet).
		Name("tiers_get").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetTiers))
	tiers.Path("").
		Methods(http.MethodPut).
		Name("tiers_replace").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleReplaceTiers)))
	tiers.Path("/{index}").
		Methods(http.MethodPut).
		Name("tiers_update").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleUpdateTier)))

	params := root.PathPrefix("/params").Subrouter()
	params.Path("").
		Methods(http.MethodGet).
		Name("params_get").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetParams))
	params.Path("/apr").
		Methods(http.MethodPut).
		Name("params_change_apr").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleChangeAPR)))
}
