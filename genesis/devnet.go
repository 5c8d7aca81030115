// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/arvo-network/arvo/arvo"
)

// DevAddressPrefix is the address prefix of the development network.
const DevAddressPrefix = "arvodev"

// DevAccount account for development.
type DevAccount struct {
	Address    arvo.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevAccounts returns pre-alloced accounts for solo mode.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"99f0500549792796c14fed62011a51081dc5b5e68fe8bd8a13b86be829c4fd36",
		"7b067f53d350f1cf20ec13df416b7b73e88a1dc7331bc904b92108b1e76a08b1",
		"f4a1a17039216f535d42ec23732c79943ffb45a089fbb78a14daad0dae93e991",
		"35b5cc144faca7d7f220fca7ad3420090861d5231d80eb23e1013426847371c1",
		"10c851d8d6c6ed9e6f625742063f292f4cf57c2dbeea8099fa3aca53ef90aef1",
		"2dd2c5b5d65913214783a6bd5679d8c6ef29ca9f2e2eae98b4add061d5b42934",
		"e1b72a1b03173b2e05560105872963b4f9e1b776b0cbebd1b7ad92103c7962e3",
		"35cbc5ac0c3a2de0eb4f230ced958fd6a6c19ed36b5d2b1803a9f11978f96072",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		accs = append(accs, DevAccount{arvo.BytesToAddress(addr.Bytes()), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// NewDevnet creates the genesis app state for solo mode.
func NewDevnet() *AppState {
	accs := DevAccounts()

	const nativeAsset = "nria"

	accounts := make([]Account, 0, len(accs))
	for _, a := range accs {
		accounts = append(accounts, Account{
			Address: a.Address.Text(DevAddressPrefix),
			Balance: new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000_000)),
		})
	}

	return &AppState{
		ChainID:          "arvo-dev",
		AddressPrefix:    DevAddressPrefix,
		NativeAsset:      nativeAsset,
		SudoAddress:      accs[0].Address.Text(DevAddressPrefix),
		IBCSudoAddress:   accs[0].Address.Text(DevAddressPrefix),
		IBCRelayers:      []string{accs[1].Address.Text(DevAddressPrefix)},
		AllowedFeeAssets: []string{nativeAsset},
		Accounts:         accounts,
		Validators: []Validator{
			{Address: accs[0].Address.Text(DevAddressPrefix), Power: 10},
		},
		Fees: map[string]FeeComponents{
			"transfer":               {Base: big.NewInt(12), Multiplier: big.NewInt(0)},
			"rollup_data_submission": {Base: big.NewInt(32), Multiplier: big.NewInt(1)},
			"bridge_lock":            {Base: big.NewInt(12), Multiplier: big.NewInt(1)},
			"init_bridge_account":    {Base: big.NewInt(48), Multiplier: big.NewInt(0)},
		},
	}
}
