// Copyright (c) 2025 The Arvo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/arvo-network/arvo/action"
	"github.com/arvo-network/arvo/api"
	"github.com/arvo-network/arvo/app"
	"github.com/arvo-network/arvo/arvo"
	"github.com/arvo-network/arvo/component/accounts"
	"github.com/arvo-network/arvo/genesis"
	"github.com/arvo-network/arvo/mempool"
	"github.com/arvo-network/arvo/metrics"
	"github.com/arvo-network/arvo/store"
	"github.com/arvo-network/arvo/xenv"
)

var (
	version   string
	gitCommit string
	release   = "dev"
	logger    = log.New("pkg", "solo")
)

type solo struct {
	store    *store.Store
	app      *app.App
	pool     *mempool.Pool
	chainID  string
	onDemand bool
	interval time.Duration
}

func newCLIApp() *cli.App {
	ca := cli.NewApp()
	ca.Version = fmt.Sprintf("%s-%s-commit%s", release, version, gitCommit)
	ca.Name = "arvo-solo"
	ca.Usage = "single node Arvo sequencer for test & dev"
	ca.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "addr",
			Value: ":8669",
			Usage: "API listen address",
		},
		cli.StringFlag{
			Name:  "data-dir",
			Usage: "directory for chain data (omit for in-memory)",
		},
		cli.StringFlag{
			Name:  "genesis",
			Usage: "path to genesis app state JSON (omit for built-in devnet)",
		},
		cli.IntFlag{
			Name:  "block-interval",
			Value: 1,
			Usage: "seconds between blocks",
		},
		cli.BoolFlag{
			Name:  "on-demand",
			Usage: "produce a block only when transactions are pending",
		},
		cli.IntFlag{
			Name:  "verbosity",
			Value: 3,
			Usage: "log verbosity (0-5)",
		},
	}
	ca.Action = run
	return ca
}

func main() {
	if err := newCLIApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	initLog(ctx.Int("verbosity"))
	metrics.InitializePrometheusMetrics()

	listener, err := net.Listen("tcp", ctx.String("addr"))
	if err != nil {
		return errors.WithMessage(err, "listen")
	}

	s, err := prepare(ctx)
	if err != nil {
		return errors.WithMessage(err, "prepare")
	}
	defer s.store.Close()

	router := http.NewServeMux()
	router.Handle("/metrics", metrics.HTTPHandler())
	router.Handle("/", api.New(s.app, s.pool))
	srv := &http.Server{Handler: router}
	defer srv.Shutdown(context.Background())

	go func() {
		// ignore error from http server
		_ = srv.Serve(listener)
	}()
	logger.Info("API served", "addr", listener.Addr())

	quit, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	s.loop(quit)
	logger.Info("interrupted, shutting down")
	return nil
}

func prepare(ctx *cli.Context) (*solo, error) {
	var (
		s   *store.Store
		err error
	)
	if dataDir := ctx.String("data-dir"); dataDir != "" {
		s, err = store.Open(filepath.Join(dataDir, "main.db"), store.DefaultOptions)
	} else {
		s, err = store.NewMem()
	}
	if err != nil {
		return nil, err
	}

	a := app.New(s, app.DefaultComponents(), app.Options{})
	if s.LatestVersion() == 0 {
		appState := genesis.NewDevnet()
		if path := ctx.String("genesis"); path != "" {
			if appState, err = genesis.Load(path); err != nil {
				s.Close()
				return nil, err
			}
		}
		root, err := a.InitChain(appState)
		if err != nil {
			s.Close()
			return nil, err
		}
		logger.Info("chain initialized", "chainId", appState.ChainID, "root", root.AbbrevString())
		if ctx.String("genesis") == "" {
			for _, acc := range genesis.DevAccounts() {
				logger.Info("devnet account", "address", acc.Address.Text(appState.AddressPrefix))
			}
		}
	}

	snap, err := s.LatestSnapshot()
	if err != nil {
		s.Close()
		return nil, err
	}
	chainID, err := accounts.ChainID(snap)
	if err != nil {
		s.Close()
		return nil, err
	}

	return &solo{
		store:    s,
		app:      a,
		pool:     mempool.New(s, mempool.Options{Limit: 10000, LimitPerAccount: 128}),
		chainID:  chainID,
		onDemand: ctx.Bool("on-demand"),
		interval: time.Duration(ctx.Int("block-interval")) * time.Second,
	}, nil
}

func (s *solo) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.onDemand && s.pool.Len() == 0 {
				continue
			}
			if err := s.pack(); err != nil {
				logger.Error("packing failed", "err", fmt.Sprintf("%+v", err))
			}
		}
	}
}

func (s *solo) pack() error {
	number := s.store.LatestVersion() + 1
	parent, err := s.store.RootAt(number - 1)
	if err != nil {
		return err
	}

	var meta [16]byte
	now := uint64(time.Now().Unix())
	binary.BigEndian.PutUint64(meta[:8], number)
	binary.BigEndian.PutUint64(meta[8:], now)
	blk := &xenv.BlockContext{
		ChainID: s.chainID,
		Number:  number,
		Time:    now,
		Hash:    arvo.Blake2b(parent.Bytes(), meta[:]),
	}

	if err := s.app.BeginBlock(blk, nil); err != nil {
		return err
	}

	executed := 0
	for _, trx := range s.pool.Dump() {
		if _, err := s.app.ExecuteTx(trx); err != nil {
			if !action.IsExpected(err) {
				s.app.Abort()
				return err
			}
			logger.Debug("transaction dropped", "id", trx.ID().AbbrevString(), "err", err)
		} else {
			executed++
		}
		s.pool.Remove(trx.ID())
	}

	if _, _, err := s.app.EndBlock(); err != nil {
		s.app.Abort()
		return err
	}
	root, err := s.app.Commit()
	if err != nil {
		s.app.Abort()
		return err
	}
	if evicted, err := s.pool.Wash(); err != nil {
		logger.Warn("pool wash failed", "err", err)
	} else if evicted > 0 {
		logger.Debug("pool washed", "evicted", evicted)
	}

	logger.Info("packed block", "number", number, "txs", executed, "root", root.AbbrevString())
	return nil
}

func initLog(verbosity int) {
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(verbosity), false)
	log.SetDefault(log.NewLogger(handler))
}
