// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sales

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tierstake/sale"
	"github.com/vechain/tierstake/test/testenv"
	"github.com/vechain/tierstake/token"
)

type salesServer struct {
	env    *testenv.Env
	client *testenv.Client
}

func initSalesServer(t *testing.T) *salesServer {
	env, err := testenv.NewDefault()
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })

	router := mux.NewRouter()
	New(env.Sales(), env.Authenticator(), env.Clock().Now).Mount(router, "/sales")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return &salesServer{env: env, client: env.NewClient(ts.URL)}
}

// do sends a request signed by key, unsigned if key is nil.
func (s *salesServer) do(t *testing.T, method, path string, key *secp256k1.PrivateKey, body any) ([]byte, int) {
	data, code, err := s.client.Do(method, path, key, body)
	require.NoError(t, err)
	return data, code
}

func amount(v int64) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(big.NewInt(v))
}

// openSale creates an approved sale of 100,000 asset units administered by
// Admin, where one unit of payment buys one unit of the asset. Alice stakes
// into tier 7 and may buy up to 10,000, Bob has no tier.
func (s *salesServer) openSale(t *testing.T, softcap int64) string {
	env := s.env
	now := env.Clock().Now()
	require.NoError(t, env.Sales().SetSaleCreator(testenv.Admin, testenv.Admin, true))
	id, err := env.Sales().CreateSale(testenv.Admin, &sale.Params{
		Name:    "Sale Token",
		Asset:   testenv.AssetSymbol,
		Admin:   testenv.Admin,
		Softcap: big.NewInt(softcap),
		Limits:  []*big.Int{big.NewInt(0), big.NewInt(10000)},
		Start:   now + 100,
		End:     now + 200,
		Price:   big.NewInt(200_000_000),
	})
	require.NoError(t, err)
	require.NoError(t, env.Asset().Approve(testenv.Admin, token.CustodyAddress, big.NewInt(100_000)))
	require.NoError(t, env.Ledger().Approve(testenv.Alice, token.CustodyAddress, big.NewInt(200_000)))
	_, err = env.Staker().Stake(testenv.Alice, big.NewInt(100_000))
	require.NoError(t, err)

	path := "/sales/" + strconv.FormatUint(id, 10)
	data, code := s.do(t, http.MethodPost, path+"/approve", testenv.AdminKey, nil)
	require.Equal(t, http.StatusOK, code, string(data))
	data, code = s.do(t, http.MethodPost, path+"/tokens", testenv.AdminKey, AmountRequest{Amount: amount(100_000)})
	require.Equal(t, http.StatusOK, code, string(data))
	data, code = s.do(t, http.MethodPut, path+"/price", testenv.AdminKey, PriceRequest{Price: amount(100_000_000)})
	require.Equal(t, http.StatusOK, code, string(data))
	return path
}

func TestFactoryRoutes(t *testing.T) {
	srv := initSalesServer(t)
	alice := testenv.Alice.String()

	data, code := srv.do(t, http.MethodGet, "/sales", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var factory Factory
	require.NoError(t, json.Unmarshal(data, &factory))
	assert.Equal(t, testenv.Admin, factory.Admin)
	assert.Zero(t, factory.Count)

	_, code = srv.do(t, http.MethodPut, "/sales/creators/"+alice, testenv.BobKey, CreatorRequest{Allowed: true})
	assert.Equal(t, http.StatusForbidden, code)
	_, code = srv.do(t, http.MethodPut, "/sales/creators/"+alice, testenv.AdminKey, CreatorRequest{Allowed: true})
	require.Equal(t, http.StatusOK, code)

	data, code = srv.do(t, http.MethodGet, "/sales/creators/"+alice, nil, nil)
	require.Equal(t, http.StatusOK, code)
	var creator Creator
	require.NoError(t, json.Unmarshal(data, &creator))
	assert.True(t, creator.Allowed)

	create := CreateRequest{
		Name:    "Alice Token",
		Asset:   testenv.AssetSymbol,
		Admin:   testenv.Alice,
		Softcap: amount(10),
		Limits:  []*math.HexOrDecimal256{amount(0), amount(100)},
		Start:   testenv.GenesisTime + 10,
		End:     testenv.GenesisTime + 20,
		Price:   amount(1),
	}
	_, code = srv.do(t, http.MethodPost, "/sales", testenv.BobKey, create)
	assert.Equal(t, http.StatusForbidden, code)
	_, code = srv.do(t, http.MethodPost, "/sales", nil, create)
	assert.Equal(t, http.StatusUnauthorized, code)

	data, code = srv.do(t, http.MethodPost, "/sales", testenv.AliceKey, create)
	require.Equal(t, http.StatusOK, code, string(data))
	var id SaleID
	require.NoError(t, json.Unmarshal(data, &id))
	assert.Equal(t, uint64(0), id.ID)

	data, code = srv.do(t, http.MethodGet, "/sales/0", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var s Sale
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, "Alice Token", s.Name)
	assert.Equal(t, testenv.Alice, s.Admin)
	assert.Equal(t, uint8(8), s.Decimals)
	assert.False(t, s.Approved)

	// only the sale admin approves, the factory admin has no say
	_, code = srv.do(t, http.MethodPost, "/sales/0/approve", testenv.AdminKey, nil)
	assert.Equal(t, http.StatusForbidden, code)

	_, code = srv.do(t, http.MethodGet, "/sales/1", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	data, code = srv.do(t, http.MethodPut, "/sales/admin", testenv.AdminKey, AdminRequest{Admin: testenv.Bob})
	require.Equal(t, http.StatusOK, code, string(data))
	require.NoError(t, json.Unmarshal(data, &factory))
	assert.Equal(t, testenv.Bob, factory.Admin)
	assert.Equal(t, uint64(1), factory.Count)
}

func TestSaleSettlement(t *testing.T) {
	srv := initSalesServer(t)
	path := srv.openSale(t, 5000)
	clock := srv.env.Clock()

	_, code := srv.do(t, http.MethodPut, path+"/price", testenv.BobKey, PriceRequest{Price: amount(1)})
	assert.Equal(t, http.StatusForbidden, code)
	_, code = srv.do(t, http.MethodPut, path+"/admin", testenv.AdminKey, AdminRequest{Admin: testenv.Admin})
	assert.Equal(t, http.StatusBadRequest, code)

	clock.Advance(100)
	data, code := srv.do(t, http.MethodPut, path+"/price", testenv.AdminKey, PriceRequest{Price: amount(1)})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(data), "Sale has already started.")

	_, code = srv.do(t, http.MethodPost, path+"/buy", testenv.BobKey, AmountRequest{Amount: amount(1)})
	assert.Equal(t, http.StatusBadRequest, code)
	_, code = srv.do(t, http.MethodPost, path+"/buy", testenv.AliceKey, AmountRequest{Amount: amount(10_001)})
	assert.Equal(t, http.StatusBadRequest, code)

	data, code = srv.do(t, http.MethodPost, path+"/buy", testenv.AliceKey, AmountRequest{Amount: amount(6000)})
	require.Equal(t, http.StatusOK, code, string(data))
	var bought Amount
	require.NoError(t, json.Unmarshal(data, &bought))
	assert.Equal(t, big.NewInt(6000), (*big.Int)(bought.Amount))

	_, code = srv.do(t, http.MethodPost, path+"/withdraw-tokens", testenv.AliceKey, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	clock.Advance(100)
	_, code = srv.do(t, http.MethodPost, path+"/withdraw-funds", testenv.AliceKey, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	data, code = srv.do(t, http.MethodPost, path+"/withdraw-tokens", testenv.AliceKey, nil)
	require.Equal(t, http.StatusOK, code, string(data))
	require.NoError(t, json.Unmarshal(data, &bought))
	assert.Equal(t, big.NewInt(6000), (*big.Int)(bought.Amount))

	data, code = srv.do(t, http.MethodPost, path+"/withdraw-tokens", testenv.AliceKey, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(data), "Insufficient funds.")

	balance, err := srv.env.Asset().BalanceOf(testenv.Alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(6000), balance)

	_, code = srv.do(t, http.MethodPost, path+"/withdraw-result", testenv.BobKey, nil)
	assert.Equal(t, http.StatusForbidden, code)

	data, code = srv.do(t, http.MethodPost, path+"/withdraw-result", testenv.AdminKey, nil)
	require.Equal(t, http.StatusOK, code, string(data))
	var result Result
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, big.NewInt(6000), (*big.Int)(result.Proceeds))
	assert.Equal(t, big.NewInt(94_000), (*big.Int)(result.Unsold))

	_, code = srv.do(t, http.MethodPost, path+"/withdraw-result", testenv.AdminKey, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSaleRefund(t *testing.T) {
	srv := initSalesServer(t)
	path := srv.openSale(t, 50_000)
	clock := srv.env.Clock()

	clock.Advance(100)
	_, code := srv.do(t, http.MethodPost, path+"/buy", testenv.AliceKey, AmountRequest{Amount: amount(6000)})
	require.Equal(t, http.StatusOK, code)

	data, code := srv.do(t, http.MethodGet, path+"/purchases/"+testenv.Alice.String(), nil, nil)
	require.Equal(t, http.StatusOK, code)
	var purchase Purchase
	require.NoError(t, json.Unmarshal(data, &purchase))
	assert.Equal(t, big.NewInt(6000), (*big.Int)(purchase.Paid))
	assert.Equal(t, big.NewInt(6000), (*big.Int)(purchase.Bought))

	clock.Advance(100)
	_, code = srv.do(t, http.MethodPost, path+"/withdraw-tokens", testenv.AliceKey, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	data, code = srv.do(t, http.MethodPost, path+"/withdraw-funds", testenv.AliceKey, nil)
	require.Equal(t, http.StatusOK, code, string(data))
	var refund Amount
	require.NoError(t, json.Unmarshal(data, &refund))
	assert.Equal(t, big.NewInt(6000), (*big.Int)(refund.Amount))

	balance, err := srv.env.Ledger().BalanceOf(testenv.Alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(900_000), balance)

	data, code = srv.do(t, http.MethodPost, path+"/withdraw-result", testenv.AdminKey, nil)
	require.Equal(t, http.StatusOK, code, string(data))
	var result Result
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Zero(t, (*big.Int)(result.Proceeds).Sign())
	assert.Equal(t, big.NewInt(100_000), (*big.Int)(result.Unsold))
}
