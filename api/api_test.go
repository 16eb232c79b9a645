// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tierstake/api/auth"
	"github.com/vechain/tierstake/api/middleware"
	"github.com/vechain/tierstake/api/sales"
	"github.com/vechain/tierstake/api/stakes"
	"github.com/vechain/tierstake/api/subscriptions"
	"github.com/vechain/tierstake/api/tokens"
	"github.com/vechain/tierstake/api/utils"
	"github.com/vechain/tierstake/test/testenv"
	"github.com/vechain/tierstake/token"
)

type apiServer struct {
	env    *testenv.Env
	url    string
	client *testenv.Client
}

func initAPIServer(t *testing.T, opts Options) *apiServer {
	env, err := testenv.NewDefault()
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })

	handler, closeSubs := New(
		env.Staker(),
		env.Ledger(),
		env.Assets(),
		env.Sales(),
		env.Authenticator(),
		env.Clock().Now,
		opts,
	)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	t.Cleanup(closeSubs)
	return &apiServer{env: env, url: ts.URL, client: env.NewClient(ts.URL)}
}

// do sends a request signed by key, unsigned if key is nil.
func (s *apiServer) do(t *testing.T, method, path string, key *secp256k1.PrivateKey, body any) ([]byte, int) {
	data, code, err := s.client.Do(method, path, key, body)
	require.NoError(t, err)
	return data, code
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return data, res.StatusCode
}

func amount(v int64) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(big.NewInt(v))
}

func TestStakeLifecycle(t *testing.T) {
	srv := initAPIServer(t, Options{})
	alice := testenv.Alice.String()

	_, code := srv.do(t, http.MethodPost, "/token/approve", testenv.AliceKey, tokens.TransferRequest{
		To:     token.CustodyAddress,
		Amount: amount(100000),
	})
	require.Equal(t, http.StatusOK, code)

	data, code := srv.do(t, http.MethodPost, "/stakes", testenv.AliceKey, stakes.StakeRequest{Amount: amount(100000)})
	require.Equal(t, http.StatusOK, code, string(data))
	var id stakes.StakeID
	require.NoError(t, json.Unmarshal(data, &id))
	assert.Equal(t, uint64(0), id.ID)

	data, code = httpGet(t, srv.url+"/accounts/"+alice)
	require.Equal(t, http.StatusOK, code)
	var account stakes.Account
	require.NoError(t, json.Unmarshal(data, &account))
	assert.Equal(t, uint8(7), account.Tier)
	assert.Equal(t, big.NewInt(100000), (*big.Int)(account.Staked))
	assert.Equal(t, big.NewInt(900000), (*big.Int)(account.Balance))
	assert.Equal(t, []uint64{0}, account.Stakes)

	srv.env.Clock().Advance(365 * 86400)

	data, code = httpGet(t, srv.url+"/stakes/0/interest")
	require.Equal(t, http.StatusOK, code)
	var interest stakes.Interest
	require.NoError(t, json.Unmarshal(data, &interest))
	assert.Equal(t, big.NewInt(10000), (*big.Int)(interest.Interest))

	_, code = srv.do(t, http.MethodPost, "/stakes/0/withdraw", testenv.BobKey, nil)
	assert.Equal(t, http.StatusForbidden, code)

	data, code = srv.do(t, http.MethodPost, "/stakes/0/withdraw", testenv.AliceKey, nil)
	require.Equal(t, http.StatusOK, code)
	var withdrawal stakes.Withdrawal
	require.NoError(t, json.Unmarshal(data, &withdrawal))
	assert.Equal(t, big.NewInt(10000), (*big.Int)(withdrawal.Reward))

	data, code = srv.do(t, http.MethodPost, "/stakes/0/withdraw", testenv.AliceKey, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(data), "not active")

	data, code = httpGet(t, srv.url+"/token/balances/"+alice)
	require.Equal(t, http.StatusOK, code)
	var balance tokens.Balance
	require.NoError(t, json.Unmarshal(data, &balance))
	assert.Equal(t, big.NewInt(1_010_000), (*big.Int)(balance.Balance))

	// three signed requests by alice succeeded, one failed after authentication
	data, code = httpGet(t, srv.url+"/auth/nonces/"+alice)
	require.Equal(t, http.StatusOK, code)
	var nonce auth.Nonce
	require.NoError(t, json.Unmarshal(data, &nonce))
	assert.Equal(t, uint64(4), nonce.Nonce)
}

func TestErrorStatus(t *testing.T) {
	srv := initAPIServer(t, Options{})

	_, code := httpGet(t, srv.url+"/stakes/99")
	assert.Equal(t, http.StatusNotFound, code)

	_, code = httpGet(t, srv.url+"/stakes/abc")
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = httpGet(t, srv.url+"/accounts/0xzz")
	assert.Equal(t, http.StatusBadRequest, code)

	data, code := srv.do(t, http.MethodPost, "/stakes", testenv.AliceKey, stakes.StakeRequest{Amount: amount(0)})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(data), "amount must be positive")

	_, code = srv.do(t, http.MethodPost, "/stakes", testenv.AliceKey, utils.M{"caller": testenv.Alice, "amount": amount(1)})
	assert.Equal(t, http.StatusBadRequest, code, "the caller is never taken from the body")

	data, code = srv.do(t, http.MethodPost, "/accounts/"+testenv.Alice.String()+"/tier", testenv.AliceKey, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(data), "no coins staked")

	data, code = srv.do(t, http.MethodPost, "/stakes", nil, stakes.StakeRequest{Amount: amount(10)})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, string(data), "signature required")

	_, code = httpGet(t, srv.url+"/nowhere")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUnsignedCallerRejected(t *testing.T) {
	srv := initAPIServer(t, Options{})

	// a stranger cannot act as alice or as the admin
	_, code := srv.do(t, http.MethodPost, "/token/transfer", testenv.StrangerKey, tokens.TransferRequest{
		To:     testenv.Stranger,
		Amount: amount(1000),
	})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = srv.do(t, http.MethodPut, "/params/apr", testenv.StrangerKey, stakes.APRRequest{Rate: 99})
	assert.Equal(t, http.StatusForbidden, code)

	// nor by replaying a request alice signed
	req, err := http.NewRequest(http.MethodPost, srv.url+"/token/transfer", strings.NewReader(`{"to":"`+testenv.Stranger.String()+`","amount":"1000"}`))
	require.NoError(t, err)
	require.NoError(t, auth.Sign(req, srv.env.Signing(), testenv.AliceKey, 0))
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	replay, err := http.NewRequest(http.MethodPost, srv.url+"/token/transfer", strings.NewReader(`{"to":"`+testenv.Stranger.String()+`","amount":"1000"}`))
	require.NoError(t, err)
	replay.Header = req.Header.Clone()
	res, err = http.DefaultClient.Do(replay)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	balance, err := srv.env.Ledger().BalanceOf(testenv.Alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(999_000), balance)
	balance, err = srv.env.Ledger().BalanceOf(testenv.Stranger)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), balance)
	apr, err := srv.env.Staker().APR()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), apr)
}

func TestAdminRoutes(t *testing.T) {
	srv := initAPIServer(t, Options{})

	_, code := srv.do(t, http.MethodPut, "/params/apr", testenv.BobKey, stakes.APRRequest{Rate: 20})
	assert.Equal(t, http.StatusForbidden, code)

	srv.env.Clock().Advance(10)
	data, code := srv.do(t, http.MethodPut, "/params/apr", testenv.AdminKey, stakes.APRRequest{Rate: 20})
	require.Equal(t, http.StatusOK, code)
	var params stakes.Params
	require.NoError(t, json.Unmarshal(data, &params))
	assert.Equal(t, uint64(20), params.APR)
	assert.Len(t, params.RateHistory, 2)

	data, code = srv.do(t, http.MethodPut, "/tiers/7", testenv.AdminKey, stakes.TierValueRequest{Value: amount(120000)})
	require.Equal(t, http.StatusOK, code)
	var tiers stakes.Tiers
	require.NoError(t, json.Unmarshal(data, &tiers))
	assert.Equal(t, 9, tiers.Levels)
	assert.Equal(t, big.NewInt(120000), (*big.Int)(tiers.Values[7]))

	_, code = srv.do(t, http.MethodPut, "/tiers/0", testenv.AdminKey, stakes.TierValueRequest{Value: amount(1)})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = srv.do(t, http.MethodPut, "/tiers", testenv.AdminKey, stakes.TiersRequest{
		Values: []*math.HexOrDecimal256{amount(0), amount(10), amount(5)},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = srv.do(t, http.MethodPut, "/tiers", testenv.BobKey, stakes.TiersRequest{Values: tiers.Values})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestTokenRoutes(t *testing.T) {
	srv := initAPIServer(t, Options{})

	data, code := httpGet(t, srv.url+"/token")
	require.Equal(t, http.StatusOK, code)
	var info tokens.Info
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, "TIER", info.Symbol)
	assert.Equal(t, testenv.Admin, info.Owner)
	assert.Equal(t, token.CustodyAddress, info.Custody)

	_, code = srv.do(t, http.MethodPost, "/token/transfer", testenv.AliceKey, tokens.TransferRequest{To: testenv.Bob, Amount: amount(5)})
	require.Equal(t, http.StatusOK, code)

	data, code = srv.do(t, http.MethodPost, "/token/transfer", testenv.AliceKey, tokens.TransferRequest{To: testenv.Bob, Amount: amount(10_000_000)})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(data), "transfer amount exceeds balance")

	_, code = srv.do(t, http.MethodPost, "/token/mint", testenv.BobKey, tokens.TransferRequest{To: testenv.Bob, Amount: amount(1)})
	assert.Equal(t, http.StatusForbidden, code)

	_, code = srv.do(t, http.MethodPost, "/token/approve", testenv.AliceKey, tokens.TransferRequest{To: testenv.Bob, Amount: amount(7)})
	require.Equal(t, http.StatusOK, code)
	data, code = httpGet(t, srv.url+"/token/allowances/"+testenv.Alice.String()+"/"+testenv.Bob.String())
	require.Equal(t, http.StatusOK, code)
	var allowance tokens.Allowance
	require.NoError(t, json.Unmarshal(data, &allowance))
	assert.Equal(t, big.NewInt(7), (*big.Int)(allowance.Allowance))

	data, code = httpGet(t, srv.url+"/assets/"+testenv.AssetSymbol)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, testenv.AssetSymbol, info.Symbol)
	assert.Equal(t, uint8(8), info.Decimals)
}

func TestSaleRoutes(t *testing.T) {
	srv := initAPIServer(t, Options{})
	now := srv.env.Clock().Now()

	// alice reaches tier 7
	_, code := srv.do(t, http.MethodPost, "/token/approve", testenv.AliceKey, tokens.TransferRequest{To: token.CustodyAddress, Amount: amount(200000)})
	require.Equal(t, http.StatusOK, code)
	_, code = srv.do(t, http.MethodPost, "/stakes", testenv.AliceKey, stakes.StakeRequest{Amount: amount(100000)})
	require.Equal(t, http.StatusOK, code)

	create := sales.CreateRequest{
		Name:    "Sale Token",
		Asset:   testenv.AssetSymbol,
		Admin:   testenv.Admin,
		Softcap: amount(1000),
		Limits:  []*math.HexOrDecimal256{amount(0), amount(10), amount(100), amount(1000), amount(1500), amount(2000), amount(3000), amount(10000), amount(20000)},
		Start:   now + 86400,
		End:     now + 2*86400,
		// one unit of payment buys one unit of the asset
		Price: amount(100_000_000),
	}
	_, code = srv.do(t, http.MethodPost, "/sales", testenv.AdminKey, create)
	assert.Equal(t, http.StatusForbidden, code)

	_, code = srv.do(t, http.MethodPut, "/sales/creators/"+testenv.Admin.String(), testenv.BobKey, sales.CreatorRequest{Allowed: true})
	assert.Equal(t, http.StatusForbidden, code)
	_, code = srv.do(t, http.MethodPut, "/sales/creators/"+testenv.Admin.String(), testenv.AdminKey, sales.CreatorRequest{Allowed: true})
	require.Equal(t, http.StatusOK, code)

	data, code := srv.do(t, http.MethodPost, "/sales", testenv.AdminKey, create)
	require.Equal(t, http.StatusOK, code, string(data))
	var id sales.SaleID
	require.NoError(t, json.Unmarshal(data, &id))
	assert.Equal(t, uint64(0), id.ID)

	path := "/sales/0"
	_, code = srv.do(t, http.MethodPost, "/assets/"+testenv.AssetSymbol+"/approve", testenv.AdminKey, tokens.TransferRequest{To: token.CustodyAddress, Amount: amount(1_000_000)})
	require.Equal(t, http.StatusOK, code)
	_, code = srv.do(t, http.MethodPost, path+"/approve", testenv.AdminKey, nil)
	require.Equal(t, http.StatusOK, code)
	data, code = srv.do(t, http.MethodPost, path+"/tokens", testenv.AdminKey, sales.AmountRequest{Amount: amount(1_000_000)})
	require.Equal(t, http.StatusOK, code, string(data))
	var sl sales.Sale
	require.NoError(t, json.Unmarshal(data, &sl))
	assert.Equal(t, big.NewInt(1_000_000), (*big.Int)(sl.Hardcap))
	assert.True(t, sl.Approved)
	assert.False(t, sl.Active)

	data, code = srv.do(t, http.MethodPost, path+"/buy", testenv.AliceKey, sales.AmountRequest{Amount: amount(100)})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(data), "This sale has already ended or not started.")

	srv.env.Clock().Set(create.Start)
	_, code = srv.do(t, http.MethodPost, path+"/buy", testenv.BobKey, sales.AmountRequest{Amount: amount(1)})
	assert.Equal(t, http.StatusBadRequest, code, "bob has no tier")
	data, code = srv.do(t, http.MethodPost, path+"/buy", testenv.AliceKey, sales.AmountRequest{Amount: amount(10000)})
	require.Equal(t, http.StatusOK, code, string(data))
	var bought sales.Amount
	require.NoError(t, json.Unmarshal(data, &bought))
	assert.Equal(t, big.NewInt(10000), (*big.Int)(bought.Amount))

	srv.env.Clock().Set(create.End)
	data, code = httpGet(t, srv.url+path+"/purchases/"+testenv.Alice.String())
	require.Equal(t, http.StatusOK, code)
	var purchase sales.Purchase
	require.NoError(t, json.Unmarshal(data, &purchase))
	assert.Equal(t, big.NewInt(10000), (*big.Int)(purchase.Paid))

	data, code = httpGet(t, srv.url+path)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(data, &sl))
	assert.True(t, sl.Ended)
	assert.Equal(t, uint64(1), sl.Participants)
}

func TestCORSAndRequestID(t *testing.T) {
	srv := initAPIServer(t, Options{AllowedOrigins: "https://Example.org"})

	req, err := http.NewRequest(http.MethodGet, srv.url+"/tiers", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.org")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "https://example.org", res.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, res.Header.Get(middleware.RequestIDHeader))
}

func TestSubscriptionsThroughMiddleware(t *testing.T) {
	enabled := &atomic.Bool{}
	enabled.Store(true)
	srv := initAPIServer(t, Options{AllowedOrigins: "*", EnableReqLogger: enabled})

	u := "ws" + strings.TrimPrefix(srv.url, "http") + "/subscriptions/stakes"
	conn, resp, err := websocket.DefaultDialer.Dial(u, http.Header{"Origin": {"https://example.org"}})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	_, code := srv.do(t, http.MethodPut, "/params/apr", testenv.AdminKey, stakes.APRRequest{Rate: 12})
	require.Equal(t, http.StatusOK, code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg subscriptions.EventMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "aprChanged", msg.Kind)
	assert.Equal(t, uint64(12), *msg.APR)
}
