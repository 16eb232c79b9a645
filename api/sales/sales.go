// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sales

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/tierstake/api/auth"
	"github.com/vechain/tierstake/api/utils"
	"github.com/vechain/tierstake/sale"
	"github.com/vechain/tierstake/types"
)

type Sales struct {
	factory *sale.Factory
	auth    *auth.Authenticator
	clock   types.Clock
}

func New(factory *sale.Factory, auth *auth.Authenticator, clock types.Clock) *Sales {
	return &Sales{
		factory: factory,
		auth:    auth,
		clock:   clock,
	}
}

var errStatus = map[error]int{
	sale.ErrSaleNotFound: http.StatusNotFound,
	sale.ErrNotAdmin:     http.StatusForbidden,
	sale.ErrNotCreator:   http.StatusForbidden,
	sale.ErrNotSaleAdmin: http.StatusForbidden,
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

func parseAmount(req *http.Request) (*big.Int, error) {
	var body AmountRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return nil, utils.BadRequest(errors.New("amount: required"))
	}
	return (*big.Int)(body.Amount), nil
}

func (s *Sales) handleGetFactory(w http.ResponseWriter, _ *http.Request) error {
	admin, err := s.factory.Admin()
	if err != nil {
		return convertError(err)
	}
	n, err := s.factory.Count()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Factory{Admin: admin, Count: n})
}

func (s *Sales) handleChangeAdmin(w http.ResponseWriter, req *http.Request) error {
	var body AdminRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.factory.ChangeAdmin(auth.Caller(req), body.Admin); err != nil {
		return convertError(err)
	}
	return s.handleGetFactory(w, req)
}

func (s *Sales) handleGetCreator(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req)
	if err != nil {
		return err
	}
	ok, err := s.factory.IsCreator(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Creator{Address: addr, Allowed: ok})
}

func (s *Sales) handleSetCreator(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req)
	if err != nil {
		return err
	}
	var body CreatorRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.factory.SetSaleCreator(auth.Caller(req), addr, body.Allowed); err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &Creator{Address: addr, Allowed: body.Allowed})
}

func (s *Sales) handleCreate(w http.ResponseWriter, req *http.Request) error {
	var body CreateRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	id, err := s.factory.CreateSale(auth.Caller(req), body.params())
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &SaleID{ID: id})
}

func (s *Sales) writeSale(w http.ResponseWriter, id uint64) error {
	sl, err := s.factory.GetSale(id)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, convertSale(id, sl, s.clock()))
}

func (s *Sales) handleGetSale(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	return s.writeSale(w, id)
}

func (s *Sales) handleApprove(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	if err := s.factory.Approve(auth.Caller(req), id); err != nil {
		return convertError(err)
	}
	return s.writeSale(w, id)
}

func (s *Sales) handleAddTokens(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req)
	if err != nil {
		return err
	}
	if err := s.factory.AddTokensForSale(auth.Caller(req), id, amount); err != nil {
		return convertError(err)
	}
	return s.writeSale(w, id)
}

func (s *Sales) handleChangePrice(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body PriceRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Price == nil {
		return utils.BadRequest(errors.New("price: required"))
	}
	if err := s.factory.ChangePrice(auth.Caller(req), id, (*big.Int)(body.Price)); err != nil {
		return convertError(err)
	}
	return s.writeSale(w, id)
}

func (s *Sales) handleChangeSaleAdmin(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	var body AdminRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := s.factory.ChangeSaleAdmin(auth.Caller(req), id, body.Admin); err != nil {
		return convertError(err)
	}
	return s.writeSale(w, id)
}

func (s *Sales) handleBuy(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	payment, err := parseAmount(req)
	if err != nil {
		return err
	}
	amount, err := s.factory.Buy(auth.Caller(req), id, payment)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &Amount{ID: id, Amount: (*math.HexOrDecimal256)(amount)})
}

func (s *Sales) handleGetPurchase(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	buyer, err := parseAddress(req)
	if err != nil {
		return err
	}
	p, err := s.factory.GetPurchase(id, buyer)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &Purchase{
		ID:     id,
		Buyer:  buyer,
		Paid:   (*math.HexOrDecimal256)(p.Paid),
		Bought: (*math.HexOrDecimal256)(p.Bought),
	})
}

func (s *Sales) handleWithdrawTokens(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	amount, err := s.factory.WithdrawBoughtTokens(auth.Caller(req), id)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &Amount{ID: id, Amount: (*math.HexOrDecimal256)(amount)})
}

func (s *Sales) handleWithdrawFunds(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	refund, err := s.factory.WithdrawFunds(auth.Caller(req), id)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &Amount{ID: id, Amount: (*math.HexOrDecimal256)(refund)})
}

func (s *Sales) handleWithdrawResult(w http.ResponseWriter, req *http.Request) error {
	id, err := parseID(req)
	if err != nil {
		return err
	}
	result, err := s.factory.WithdrawSaleResult(auth.Caller(req), id)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &Result{
		ID:       id,
		Proceeds: (*math.HexOrDecimal256)(result.Proceeds),
		Unsold:   (*math.HexOrDecimal256)(result.Unsold),
	})
}

// Mount registers the factory and sale routes.
func (s *Sales) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("sales_get_factory").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetFactory))
	sub.Path("").
		Methods(http.MethodPost).
		Name("sales_create").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleCreate)))
	sub.Path("/admin").
		Methods(http.MethodPut).
		Name("sales_change_admin").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleChangeAdmin)))
	sub.Path("/creators/{address}").
		Methods(http.MethodGet).
		Name("sales_get_creator").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetCreator))
	sub.Path("/creators/{address}").
		Methods(http.MethodPut).
		Name("sales_set_creator").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleSetCreator)))

	sub.Path("/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("sales_get").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetSale))
	sub.Path("/{id:[0-9]+}/approve").
		Methods(http.MethodPost).
		Name("sales_approve").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleApprove)))
	sub.Path("/{id:[0-9]+}/tokens").
		Methods(http.MethodPost).
		Name("sales_add_tokens").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleAddTokens)))
	sub.Path("/{id:[0-9]+}/price").
		Methods(http.MethodPut).
		Name("sales_change_price").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleChangePrice)))
	sub.Path("/{id:[0-9]+}/admin").
		Methods(http.MethodPut).
		Name("sales_change_sale_admin").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleChangeSaleAdmin)))
	sub.Path("/{id:[0-9]+}/buy").
		Methods(http.MethodPost).
		Name("sales_buy").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleBuy)))
	sub.Path("/{id:[0-9]+}/purchases/{address}").
		Methods(http.MethodGet).
		Name("sales_get_purchase").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetPurchase))
	sub.Path("/{id:[0-9]+}/withdraw-tokens").
		Methods(http.MethodPost).
		Name("sales_withdraw_tokens").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleWithdrawTokens)))
	sub.Path("/{id:[0-9]+}/withdraw-funds").
		Methods(http.MethodPost).
		Name("sales_withdraw_funds").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleWithdrawFunds)))
	sub.Path("/{id:[0-9]+}/withdraw-result").
		Methods(http.MethodPost).
		Name("sales_withdraw_result").
		HandlerFunc(utils.WrapHandlerFunc(s.auth.Signed(s.handleWithdrawResult)))
}
