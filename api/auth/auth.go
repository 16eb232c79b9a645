// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package auth authenticates mutating API requests. A request is signed
// over its method, path, nonce and body; the recovered signer is the caller
// of the operation. Each account's nonce increases by one per accepted
// request, whether or not the operation succeeds.
package auth

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"strconv"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/tierstake/api/utils"
	"github.com/vechain/tierstake/cry"
	"github.com/vechain/tierstake/log"
	"github.com/vechain/tierstake/storage"
	"github.com/vechain/tierstake/types"
)

const (
	SignatureHeader = "X-Signature"
	NonceHeader     = "X-Nonce"
)

var (
	logger = log.WithContext("pkg", "auth")

	slotNonces = types.BytesToBytes32([]byte("auth-nonces"))

	ErrMissingSignature = errors.New("signature required")
	ErrNonceMismatch    = errors.New("nonce mismatch")
)

type signerKey struct{}

// Authenticator verifies signed requests.
type Authenticator struct {
	sctx    *storage.Context
	signing *cry.Signing
	nonces  *storage.Mapping[types.Address, uint64]
}

func New(sctx *storage.Context, signing *cry.Signing) *Authenticator {
	return &Authenticator{
		sctx:    sctx,
		signing: signing,
		nonces:  storage.NewMapping[types.Address, uint64](sctx, slotNonces),
	}
}

// DeriveDomain binds signatures to one deployment, identified by its stake
// admin, token owner and token start time.
func DeriveDomain(admin, owner types.Address, startTime uint64) types.Bytes32 {
	return types.Blake2b(
		[]byte("tierstake"),
		admin.Bytes(),
		owner.Bytes(),
		binary.BigEndian.AppendUint64(nil, startTime),
	)
}

// SigningHash returns the hash a request signature covers.
func SigningHash(method, path string, nonce uint64, body []byte) types.Bytes32 {
	return types.Blake2bFn(func(w io.Writer) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], nonce)
		w.Write([]byte(method))
		w.Write([]byte{' '})
		w.Write([]byte(path))
		w.Write(n[:])
		w.Write(body)
	})
}

// Sign sets the signature headers of req. The body is buffered so req can still be sent.
func Sign(req *http.Request, signing *cry.Signing, key *secp256k1.PrivateKey, nonce uint64) error {
	body, err := readBody(req)
	if err != nil {
		return err
	}
	sig := signing.Sign(SigningHash(req.Method, req.URL.Path, nonce, body), key)
	req.Header.Set(SignatureHeader, hexutil.Encode(sig))
	req.Header.Set(NonceHeader, strconv.FormatUint(nonce, 10))
	return nil
}

// Caller returns the authenticated signer of req, the zero address if unsigned.
func Caller(req *http.Request) types.Address {
	addr, _ := req.Context().Value(signerKey{}).(types.Address)
	return addr
}

// Nonce returns the nonce the next request of account must carry.
func (a *Authenticator) Nonce(account types.Address) (nonce uint64, err error) {
	err = a.sctx.View(func() error {
		nonce, err = a.nonces.Get(account)
		return err
	})
	return
}

// Signed rejects requests without a valid signature and nonce with 401,
// then runs f with the signer available through Caller.
func (a *Authenticator) Signed(f utils.HandlerFunc) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		signer, err := a.authenticate(req)
		if err != nil {
			return utils.HTTPError(err, http.StatusUnauthorized)
		}
		return f(w, req.WithContext(context.WithValue(req.Context(), signerKey{}, signer)))
	}
}

func (a *Authenticator) authenticate(req *http.Request) (types.Address, error) {
	header := req.Header.Get(SignatureHeader)
	if header == "" {
		return types.Address{}, ErrMissingSignature
	}
	sig, err := hexutil.Decode(header)
	if err != nil {
		return types.Address{}, errors.WithMessage(cry.ErrInvalidSignature, err.Error())
	}
	nonce, err := strconv.ParseUint(req.Header.Get(NonceHeader), 10, 64)
	if err != nil {
		return types.Address{}, errors.WithMessage(err, "nonce")
	}
	body, err := readBody(req)
	if err != nil {
		return types.Address{}, err
	}
	signer, err := a.signing.Signer(SigningHash(req.Method, req.URL.Path, nonce, body), sig)
	if err != nil {
		return types.Address{}, err
	}
	if err := a.consume(signer, nonce); err != nil {
		logger.Debug("rejected request", "signer", signer, "nonce", nonce, "err", err)
		return types.Address{}, err
	}
	return signer, nil
}

func (a *Authenticator) consume(signer types.Address, nonce uint64) error {
	return a.sctx.Exec(func() error {
		want, err := a.nonces.Get(signer)
		if err != nil {
			return errors.Wrap(err, "failed to get nonce")
		}
		if nonce != want {
			return errors.WithMessagef(ErrNonceMismatch, "want %d", want)
		}
		return a.nonces.Set(signer, want+1)
	})
}

// readBody reads the whole body and puts an unread copy back on req.
func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func (a *Authenticator) handleGetNonce(w http.ResponseWriter, req *http.Request) error {
	addr, err := types.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	nonce, err := a.Nonce(*addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Nonce{Address: *addr, Nonce: nonce})
}

func (a *Authenticator) handleGetDomain(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, &Domain{Domain: a.signing.Domain()})
}

// Mount registers the signing domain and nonce routes.
func (a *Authenticator) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("auth_get_domain").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetDomain))
	sub.Path("/nonces/{address}").
		Methods(http.MethodGet).
		Name("auth_get_nonce").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetNonce))
}

type Nonce struct {
	Address types.Address `json:"address"`
	Nonce   uint64        `json:"nonce"`
}

type Domain struct {
	Domain types.Bytes32 `json:"domain"`
}
