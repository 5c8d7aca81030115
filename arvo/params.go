// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package arvo

// Constants of the chain.
const (
	// MaxTxSize max size of a transaction accepted for admission.
	MaxTxSize = 64 * 1024

	// MaxActionsPerTx cap on actions bundled into one transaction.
	MaxActionsPerTx = 256
)
