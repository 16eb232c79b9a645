// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testenv

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/vechain/tierstake/api/auth"
	"github.com/vechain/tierstake/cry"
	"github.com/vechain/tierstake/types"
)

// Client sends API requests signed with the env's signing domain and
// tracks the nonce of every key it signs with.
type Client struct {
	url     string
	signing *cry.Signing

	mu     sync.Mutex
	nonces map[types.Address]uint64
}

// NewClient returns a client for the API served at url.
func (e *Env) NewClient(url string) *Client {
	return &Client{
		url:     url,
		signing: e.signing,
		nonces:  make(map[types.Address]uint64),
	}
}

// Do sends body as JSON to path and returns the response body and status.
// The request is signed by key unless key is nil.
func (c *Client) Do(method, path string, key *secp256k1.PrivateKey, body any) ([]byte, int, error) {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return nil, 0, err
		}
	}
	req, err := http.NewRequest(method, c.url+path, bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	var signer types.Address
	if key != nil {
		signer = cry.PubkeyToAddress(key.PubKey())
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := auth.Sign(req, c.signing, key, c.nonces[signer]); err != nil {
			return nil, 0, err
		}
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()
	if key != nil && res.StatusCode != http.StatusUnauthorized {
		c.nonces[signer]++
	}
	out, err := io.ReadAll(res.Body)
	return out, res.StatusCode, err
}
