// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvo-network/arvo/api"
	"github.com/arvo-network/arvo/app"
	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/genesis"
	"github.com/arvo-network/arvo/mempool"
	"github.com/arvo-network/arvo/store"
	"github.com/arvo-network/arvo/tx"
)

func newTestServer(t *testing.T) (*httptest.Server, *mempool.Pool) {
	s, err := store.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	a := app.New(s, app.DefaultComponents(), app.Options{})
	_, err = a.InitChain(genesis.NewDevnet())
	require.NoError(t, err)

	pool := mempool.New(s, mempool.Options{Limit: 16, LimitPerAccount: 4})
	srv := httptest.NewServer(api.New(a, pool))
	t.Cleanup(srv.Close)
	return srv, pool
}

func httpGetJSON(t *testing.T, url string, out interface{}) int {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	var status api.StatusResponse
	code := httpGetJSON(t, srv.URL+"/node/status", &status)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "arvo-dev", status.ChainID)
	assert.Equal(t, uint64(1), status.Version)
	assert.False(t, status.Root.IsZero())
}

func TestAccounts(t *testing.T) {
	srv, _ := newTestServer(t)
	dev := genesis.DevAccounts()[0].Address.Text(genesis.DevAddressPrefix)

	var balance api.BalanceResponse
	code := httpGetJSON(t, srv.URL+"/accounts/"+dev+"/balances/nria", &balance)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1000000000000000", balance.Balance)

	// unknown asset reads as zero
	code = httpGetJSON(t, srv.URL+"/accounts/"+dev+"/balances/unknown", &balance)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0", balance.Balance)

	var nonce api.NonceResponse
	code = httpGetJSON(t, srv.URL+"/accounts/"+dev+"/nonce", &nonce)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint32(0), nonce.Nonce)

	// foreign prefix rejected
	foreign := genesis.DevAccounts()[0].Address.Text("other")
	code = httpGetJSON(t, srv.URL+"/accounts/"+foreign+"/nonce", &nonce)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSubmitTransaction(t *testing.T) {
	srv, pool := newTestServer(t)
	dev := genesis.DevAccounts()[0]

	trx, err := tx.New("arvo-dev", 0, dev.Address, []tx.Action{
		&tx.Transfer{
			To:       arvo.BytesToAddress([]byte("recipient")).Text(genesis.DevAddressPrefix),
			Asset:    "nria",
			Amount:   uint256.NewInt(100),
			FeeAsset: "nria",
		},
	})
	require.NoError(t, err)
	raw, err := rlp.EncodeToBytes(trx)
	require.NoError(t, err)

	body, err := json.Marshal(&api.RawTx{Raw: hexutil.Encode(raw)})
	require.NoError(t, err)

	res, err := http.Post(srv.URL+"/transactions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var submitted api.SubmitTxResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&submitted))
	assert.Equal(t, trx.ID(), submitted.ID)
	assert.Equal(t, 1, pool.Len())

	// resubmission rejected
	res, err = http.Post(srv.URL+"/transactions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// garbage rejected, with the error rendered as a JSON body
	res, err = http.Post(srv.URL+"/transactions", "application/json", bytes.NewReader([]byte(`{"raw":"0xdead"}`)))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "application/json")

	var fail api.ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&fail))
	assert.NotEmpty(t, fail.Error)
}
