// Command cached runs the TCP key-value cache server: it recovers state
// from its write-ahead log, then serves GET/SET/DELETE/KEYS requests
// over the length-prefixed binary protocol, persisting every mutation to
// the WAL and fanning it out to configured replica peers before
// acknowledging it to the client.
package main

import (
	"net/http"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/cc-backend/cached/internal/cache"
	"github.com/cc-backend/cached/internal/config"
	"github.com/cc-backend/cached/internal/metrics"
	"github.com/cc-backend/cached/internal/reactor"
	"github.com/cc-backend/cached/internal/replica"
	"github.com/cc-backend/cached/internal/runtimeenv"
	"github.com/cc-backend/cached/internal/store"
	"github.com/cc-backend/cached/internal/wal"
	"github.com/google/gops/agent"
)

func main() {
	flags := parseFlags()

	config.Init(flags.configFile)

	if flags.gops || config.Keys.Debug.EnableGops {
		// See https://github.com/google/gops (runtime overhead is almost zero).
		if err := agent.Listen(agent.Options{}); err != nil {
			cclog.Fatalf("gops/agent.Listen failed: %s", err)
		}
	}

	s := store.New()

	if n, err := wal.Recover(config.Keys.WAL, s); err != nil {
		cclog.Fatalf("WAL recovery failed: %s", err)
	} else if n > 0 {
		cclog.Infof("recovered %d record(s) from %s before accepting connections", n, config.Keys.WAL)
	}

	walSink, err := wal.Open(config.Keys.WAL)
	if err != nil {
		cclog.Fatalf("opening WAL at %s: %s", config.Keys.WAL, err)
	}

	var metricsReg *metrics.Registry
	if config.Keys.Metrics.Enabled {
		metricsReg = metrics.New()
		go func() {
			cclog.Infof("metrics listening on %s", config.Keys.Metrics.Addr)
			if err := http.ListenAndServe(config.Keys.Metrics.Addr, metricsReg.Handler()); err != nil {
				cclog.Errorf("metrics server stopped: %s", err)
			}
		}()
		go pollGauges(s, walSink, metricsReg)
	}

	middlewares := []cache.Middleware{cache.Logger(config.Keys.Verbose), cache.WALTap(walSink)}

	if len(config.Keys.Replicas) > 0 {
		var opts []replica.Option
		if metricsReg != nil {
			opts = append(opts, replica.WithStatusHook(metricsReg.SetPeerUp))
		}

		replicaSink, err := replica.Open(config.Keys.Replicas, opts...)
		if err != nil {
			// A peer-connect failure at startup is fatal.
			cclog.Fatalf("connecting to replicas: %s", err)
		}
		middlewares = append(middlewares, cache.ReplicatorTap(replicaSink))
	}

	chain := cache.NewChain(cache.Terminal(s), middlewares...)

	var reactorOpts []reactor.Option
	if config.Keys.Debug.MaxAcceptRate > 0 {
		reactorOpts = append(reactorOpts, reactor.WithAcceptRate(config.Keys.Debug.MaxAcceptRate, config.Keys.Debug.AcceptBurst))
	}
	if metricsReg != nil {
		reactorOpts = append(reactorOpts, reactor.WithRecorder(metricsReg))
	}

	srv, err := reactor.New(config.Keys.Addr, chain, reactorOpts...)
	if err != nil {
		cclog.Fatalf("binding %s: %s", config.Keys.Addr, err)
	}

	if err := runtimeenv.DropPrivileges(config.Keys); err != nil {
		cclog.Fatalf("dropping privileges: %s", err)
	}

	cclog.Infof("cached listening on %s", config.Keys.Addr)
	runtimeenv.Ready(config.Keys.Addr)

	if err := srv.Serve(); err != nil {
		cclog.Fatalf("reactor stopped: %s", err)
	}
}

func pollGauges(s *store.Store, sink *wal.Sink, reg *metrics.Registry) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		reg.SetWALQueueDepth(sink.QueueDepth())
		reg.SetStoreKeys(s.Len())
	}
}
