// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

type noopMetrics struct{}

type noopMeters struct{}

var noopMeter noopMeters

func (n *noopMetrics) GetOrCreateCountMeter(string) CountMeter { return &noopMeter }
func (n *noopMetrics) GetOrCreateCountVecMeter(string, []string) CountVecMeter {
	return &noopMeter
}
func (n *noopMetrics) GetOrCreateGaugeMeter(string) GaugeMeter { return &noopMeter }
func (n *noopMetrics) GetOrCreateHandler() http.Handler        { return nil }

func (n noopMeters) Add(int64)                              {}
func (n noopMeters) AddWithLabel(int64, map[string]string)  {}
func (n noopMeters) Set(int64)                              {}
