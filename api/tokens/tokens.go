// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/tierstake/api/auth"
	"github.com/vechain/tierstake/api/utils"
	"github.com/vechain/tierstake/token"
	"github.com/vechain/tierstake/types"
)

type Tokens struct {
	ledger *token.Ledger
	auth   *auth.Authenticator
	name   string
}

// New serves ledger. name prefixes the route names.
func New(ledger *token.Ledger, auth *auth.Authenticator, name string) *Tokens {
	return &Tokens{ledger: ledger, auth: auth, name: name}
}

var errStatus = map[error]int{
	token.ErrNotOwner: http.StatusForbidden,
	token.ErrNotDAO:   http.StatusForbidden,
}

func convertError(err error) error {
	return utils.Revert(err, errStatus)
}

func (t *Tokens) handleGetInfo(w http.ResponseWriter, _ *http.Request) error {
	info, err := t.ledger.Info()
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, convertInfo(info))
}

func (t *Tokens) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := types.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	balance, err := t.ledger.BalanceOf(*addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Balance{Address: *addr, Balance: (*math.HexOrDecimal256)(balance)})
}

func (t *Tokens) handleGetAllowance(w http.ResponseWriter, req *http.Request) error {
	owner, err := types.ParseAddress(mux.Vars(req)["owner"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "owner"))
	}
	spender, err := types.ParseAddress(mux.Vars(req)["spender"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "spender"))
	}
	allowance, err := t.ledger.Allowance(*owner, *spender)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Allowance{Owner: *owner, Spender: *spender, Allowance: (*math.HexOrDecimal256)(allowance)})
}

func parseTransfer(req *http.Request) (*TransferRequest, error) {
	var body TransferRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return nil, utils.BadRequest(errors.New("amount: required"))
	}
	return &body, nil
}

func (t *Tokens) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	body, err := parseTransfer(req)
	if err != nil {
		return err
	}
	caller := auth.Caller(req)
	if err := t.ledger.Transfer(caller, body.To, (*big.Int)(body.Amount)); err != nil {
		return convertError(err)
	}
	return t.writeBalance(w, caller)
}

func (t *Tokens) handleApprove(w http.ResponseWriter, req *http.Request) error {
	body, err := parseTransfer(req)
	if err != nil {
		return err
	}
	caller := auth.Caller(req)
	if err := t.ledger.Approve(caller, body.To, (*big.Int)(body.Amount)); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &Allowance{Owner: caller, Spender: body.To, Allowance: body.Amount})
}

func (t *Tokens) handleMint(w http.ResponseWriter, req *http.Request) error {
	body, err := parseTransfer(req)
	if err != nil {
		return err
	}
	if err := t.ledger.Mint(auth.Caller(req), body.To, (*big.Int)(body.Amount)); err != nil {
		return convertError(err)
	}
	return t.writeBalance(w, body.To)
}

func (t *Tokens) writeBalance(w http.ResponseWriter, addr types.Address) error {
	balance, err := t.ledger.BalanceOf(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Balance{Address: addr, Balance: (*math.HexOrDecimal256)(balance)})
}

func (t *Tokens) handleGrantDAO(w http.ResponseWriter, req *http.Request) error {
	var body DAORequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := t.ledger.GrantDAORole(auth.Caller(req), body.DAO); err != nil {
		return convertError(err)
	}
	return t.handleGetInfo(w, req)
}

func (t *Tokens) handleChangeDAO(w http.ResponseWriter, req *http.Request) error {
	var body DAORequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := t.ledger.ChangeDAOAddress(auth.Caller(req), body.DAO); err != nil {
		return convertError(err)
	}
	return t.handleGetInfo(w, req)
}

func (t *Tokens) handleAssignPermitRate(w http.ResponseWriter, req *http.Request) error {
	var body PermitRateRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := t.ledger.AssignPermitRate(auth.Caller(req), body.Rate); err != nil {
		return convertError(err)
	}
	return t.handleGetInfo(w, req)
}

func (t *Tokens) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	get := func(path, name string, h utils.HandlerFunc) {
		sub.Path(path).Methods(http.MethodGet).Name(t.name + name).HandlerFunc(utils.WrapHandlerFunc(h))
	}
	post := func(path, name string, h utils.HandlerFunc) {
		sub.Path(path).Methods(http.MethodPost).Name(t.name + name).HandlerFunc(utils.WrapHandlerFunc(t.auth.Signed(h)))
	}

	get("", "_get", t.handleGetInfo)
	get("/balances/{address}", "_get_balance", t.handleGetBalance)
	get("/allowances/{owner}/{spender}", "_get_allowance", t.handleGetAllowance)
	post("/transfer", "_transfer", t.handleTransfer)
	post("/approve", "_approve", t.handleApprove)
	post("/mint", "_mint", t.handleMint)
	post("/dao", "_grant_dao", t.handleGrantDAO)
	post("/dao/transfer", "_change_dao", t.handleChangeDAO)
	post("/permit-rate", "_assign_permit_rate", t.handleAssignPermitRate)
}
