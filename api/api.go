// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api exposes the node over HTTP, for solo runs and tooling.
package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/arvo-network/arvo/action"
	"github.com/arvo-network/arvo/app"
	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/component/accounts"
	"github.com/arvo-network/arvo/mempool"
	"github.com/arvo-network/arvo/tx"
)

type api struct {
	app  *app.App
	pool *mempool.Pool
}

// New builds the HTTP handler serving the node API.
func New(a *app.App, pool *mempool.Pool) http.Handler {
	h := &api{a, pool}

	router := mux.NewRouter()
	router.Path("/transactions").
		Methods(http.MethodPost).
		HandlerFunc(WrapHandlerFunc(h.handleSubmitTransaction))
	router.Path("/accounts/{address}/balances/{asset}").
		Methods(http.MethodGet).
		HandlerFunc(WrapHandlerFunc(h.handleGetBalance))
	router.Path("/accounts/{address}/nonce").
		Methods(http.MethodGet).
		HandlerFunc(WrapHandlerFunc(h.handleGetNonce))
	router.Path("/node/status").
		Methods(http.MethodGet).
		HandlerFunc(WrapHandlerFunc(h.handleGetStatus))

	return handlers.CompressHandler(router)
}

// RawTx a RLP encoded transaction in hex form.
type RawTx struct {
	Raw string `json:"raw"`
}

// SubmitTxResponse the id of an admitted transaction.
type SubmitTxResponse struct {
	ID arvo.Bytes32 `json:"id"`
}

func (a *api) handleSubmitTransaction(w http.ResponseWriter, r *http.Request) error {
	var raw RawTx
	if err := ParseJSON(r.Body, &raw); err != nil {
		return BadRequest(errors.WithMessage(err, "body"))
	}
	data, err := hexutil.Decode(raw.Raw)
	if err != nil {
		return BadRequest(errors.WithMessage(err, "raw"))
	}
	var trx tx.Transaction
	if err := rlp.DecodeBytes(data, &trx); err != nil {
		return BadRequest(errors.WithMessage(err, "raw"))
	}
	if err := a.pool.Add(&trx); err != nil {
		if err == mempool.ErrKnownTx || err == mempool.ErrPoolFull || err == mempool.ErrAccountQuota || action.IsExpected(err) {
			return BadRequest(err)
		}
		return err
	}
	return WriteJSON(w, &SubmitTxResponse{ID: trx.ID()})
}

// BalanceResponse an account balance in decimal form.
type BalanceResponse struct {
	Balance string `json:"balance"`
}

func (a *api) handleGetBalance(w http.ResponseWriter, r *http.Request) error {
	addr, err := a.parseAddress(mux.Vars(r)["address"])
	if err != nil {
		return err
	}
	snap, err := a.app.Store().LatestSnapshot()
	if err != nil {
		return err
	}
	balance, err := accounts.GetBalance(snap, addr, mux.Vars(r)["asset"])
	if err != nil {
		return err
	}
	return WriteJSON(w, &BalanceResponse{Balance: balance.Dec()})
}

// NonceResponse an account nonce.
type NonceResponse struct {
	Nonce uint32 `json:"nonce"`
}

func (a *api) handleGetNonce(w http.ResponseWriter, r *http.Request) error {
	addr, err := a.parseAddress(mux.Vars(r)["address"])
	if err != nil {
		return err
	}
	snap, err := a.app.Store().LatestSnapshot()
	if err != nil {
		return err
	}
	nonce, err := accounts.GetNonce(snap, addr)
	if err != nil {
		return err
	}
	return WriteJSON(w, &NonceResponse{Nonce: nonce})
}

// StatusResponse summary of the committed chain state.
type StatusResponse struct {
	ChainID string       `json:"chainId"`
	Version uint64       `json:"version"`
	Root    arvo.Bytes32 `json:"root"`
}

func (a *api) handleGetStatus(w http.ResponseWriter, _ *http.Request) error {
	s := a.app.Store()
	version := s.LatestVersion()
	root, err := s.RootAt(version)
	if err != nil {
		return err
	}
	snap, err := s.LatestSnapshot()
	if err != nil {
		return err
	}
	chainID, err := accounts.ChainID(snap)
	if err != nil {
		return err
	}
	return WriteJSON(w, &StatusResponse{ChainID: chainID, Version: version, Root: root})
}

func (a *api) parseAddress(s string) (arvo.Address, error) {
	prefix, addr, err := arvo.ParseAddress(s)
	if err != nil {
		return arvo.Address{}, BadRequest(errors.WithMessage(err, "address"))
	}
	snap, err := a.app.Store().LatestSnapshot()
	if err != nil {
		return arvo.Address{}, err
	}
	base, err := accounts.BasePrefix(snap)
	if err != nil {
		return arvo.Address{}, err
	}
	if prefix != base {
		return arvo.Address{}, BadRequest(errors.Errorf("address: prefix %q not accepted", prefix))
	}
	return addr, nil
}
