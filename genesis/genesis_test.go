// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvo-network/arvo/genesis"
)

func TestDevnetValid(t *testing.T) {
	app := genesis.NewDevnet()
	require.NoError(t, app.Validate())
	assert.Equal(t, "arvo-dev", app.ChainID)
	assert.Len(t, genesis.DevAccounts(), 8)
}

func TestLoadRoundTrip(t *testing.T) {
	app := genesis.NewDevnet()
	raw, err := json.Marshal(app)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	loaded, err := genesis.Load(path)
	require.NoError(t, err)
	assert.Equal(t, app, loaded)

	_, err = genesis.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	mutate := func(f func(*genesis.AppState)) error {
		app := genesis.NewDevnet()
		f(app)
		return app.Validate()
	}

	assert.Error(t, mutate(func(a *genesis.AppState) { a.ChainID = "" }))
	assert.Error(t, mutate(func(a *genesis.AppState) { a.AddressPrefix = "" }))
	assert.Error(t, mutate(func(a *genesis.AppState) { a.SudoAddress = "bogus" }))
	assert.Error(t, mutate(func(a *genesis.AppState) {
		// prefix mismatch
		a.SudoAddress = "other1" + "00000000000000000000000000000000000000aa"
	}))
	assert.Error(t, mutate(func(a *genesis.AppState) { a.Validators[0].Power = 0 }))
	assert.Error(t, mutate(func(a *genesis.AppState) {
		a.Accounts[0].Balance = big.NewInt(-1)
	}))
}

func TestParseAddressPrefix(t *testing.T) {
	app := genesis.NewDevnet()
	addr := genesis.DevAccounts()[0].Address

	got, err := app.ParseAddress(addr.Text(genesis.DevAddressPrefix))
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	_, err = app.ParseAddress(addr.Text("other"))
	assert.Error(t, err)
}
