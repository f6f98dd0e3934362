// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command yate-module is a sample Yate external module driver: it wires
// a transport, the engine loop, and the optional ambient services
// (metrics, audit, admin HTTP, housekeeping) together from a config
// file, the way cmd/cc-backend wires its own server together.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/gops/agent"
	"github.com/yate-project/goyate/internal/rmanager"
	"github.com/yate-project/goyate/internal/yateadmin"
	"github.com/yate-project/goyate/internal/yateaudit"
	"github.com/yate-project/goyate/internal/yatecmd"
	"github.com/yate-project/goyate/internal/yateconfig"
	"github.com/yate-project/goyate/internal/yateengine"
	"github.com/yate-project/goyate/internal/yatehousekeeping"
	"github.com/yate-project/goyate/internal/yatesnapshot"
	"github.com/yate-project/goyate/internal/yatetransport"
	"github.com/yate-project/goyate/pkg/yatelog"
)

func main() {
	var flagConfigFile, flagEnvFile string
	var flagGops bool
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Specify alternative path to `config.json`")
	flag.StringVar(&flagEnvFile, "env", "./.env", "Specify alternative path to a .env overlay file")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.Parse()

	// See https://github.com/google/gops (runtime overhead is almost zero).
	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			fmt.Fprintf(os.Stderr, "gops/agent.Listen failed: %s\n", err.Error())
			os.Exit(1)
		}
	}

	if err := yateconfig.LoadEnv(flagEnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "loading %q failed: %s\n", flagEnvFile, err.Error())
		os.Exit(1)
	}

	cfg, err := yateconfig.Load(flagConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading %q failed: %s\n", flagConfigFile, err.Error())
		os.Exit(1)
	}

	yatelog.SetLevel(yatelog.ParseLevel(cfg.LogLevel))

	transport, err := buildTransport(cfg.Transport)
	if err != nil {
		yatelog.Critf("yate-module: %v", err)
		os.Exit(1)
	}

	policy := yateengine.Sequential
	if cfg.Engine.Policy == "parallel" {
		policy = yateengine.Parallel
	}

	engine := yateengine.New(yateengine.Config{
		Transport: transport,
		Policy:    policy,
		QueueSize: cfg.Engine.QueueSize,
	})

	var trail *yateaudit.Trail
	if cfg.Audit.Enabled {
		trail, err = yateaudit.Open(cfg.Audit.DBPath)
		if err != nil {
			yatelog.Critf("yate-module: opening audit trail: %v", err)
			os.Exit(1)
		}
		defer trail.Close()
		engine.AuditHook = trail.RecordHandlerEvent
	}

	var sess *rmanager.Session
	if cfg.RManager.Enabled {
		sess, err = rmanager.Dial(cfg.RManager.Host, cfg.RManager.Port, cfg.RManager.Password)
		if err != nil {
			yatelog.Warnf("yate-module: rmanager dial failed, continuing without it: %v", err)
		} else {
			defer sess.Close()
			if trail != nil {
				sess.AuditHook = trail.RecordCommand
			}
		}
	}

	var exporter *yatesnapshot.Exporter
	if cfg.Snapshot.Enabled {
		exporter, err = buildSnapshotExporter(cfg.Snapshot, engine)
		if err != nil {
			yatelog.Warnf("yate-module: snapshot exporter disabled: %v", err)
			exporter = nil
		}
	}

	var hk *yatehousekeeping.Scheduler
	if sess != nil || exporter != nil {
		hkCfg, err := housekeepingConfig(cfg.Housekeeping, cfg.Snapshot)
		if err != nil {
			yatelog.Warnf("yate-module: housekeeping disabled: %v", err)
		} else {
			hk, err = yatehousekeeping.New(hkCfg, sess, exporter)
			if err != nil {
				yatelog.Warnf("yate-module: housekeeping failed to start: %v", err)
			} else {
				defer hk.Shutdown()
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Admin.Enabled {
		admin := yateadmin.New(engine, yateadmin.Config{
			ListenAddr:    cfg.Admin.ListenAddr,
			JWTSigningKey: cfg.Admin.JWTSigningKey,
			Reconnect: func() error {
				return nil
			},
		})
		go func() {
			if err := admin.Run(ctx); err != nil {
				yatelog.Warnf("yate-module: admin server stopped: %v", err)
			}
		}()
	}

	registerSampleHandler(engine)

	if err := engine.Run(ctx); err != nil {
		yatelog.Critf("yate-module: engine run failed: %v", err)
		os.Exit(1)
	}
}

func buildTransport(cfg yateconfig.Transport) (yatetransport.Transport, error) {
	switch cfg.Kind {
	case "stdio", "":
		return yatetransport.NewStdio(os.Stdin, os.Stdout), nil
	case "socket":
		return yatetransport.DialSocket(cfg.SocketHost, cfg.SocketPort)
	case "nats":
		return yatetransport.DialNATS(cfg.NATSURL, cfg.NATSSubject, cfg.NATSReplySubject)
	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
	}
}

func buildSnapshotExporter(cfg yateconfig.Snapshot, engine *yateengine.Engine) (*yatesnapshot.Exporter, error) {
	fileTarget, err := yatesnapshot.NewFileTarget(cfg.Dir)
	if err != nil {
		return nil, err
	}

	targets := []yatesnapshot.Target{fileTarget}
	if cfg.S3Bucket != "" {
		s3Target, err := yatesnapshot.NewS3Target(yatesnapshot.S3TargetConfig{
			Bucket: cfg.S3Bucket,
			Region: cfg.S3Region,
		})
		if err != nil {
			return nil, err
		}
		targets = append(targets, s3Target)
	}

	return yatesnapshot.New(engine.SnapshotSource(), targets...)
}

// registerSampleHandler installs a single demonstration handler for
// "engine.timer" so the module has something to dispatch out of the box;
// real deployments replace this with their own Install calls.
func registerSampleHandler(engine *yateengine.Engine) {
	_ = engine.Install("engine.timer", func(msg *yatecmd.Message) *yatecmd.MessageReply {
		return nil
	}, nil, nil, nil)
}

// housekeepingConfig translates the config file's string durations into
// the time.Duration pair yatehousekeeping.Config expects. The rmanager
// poll cadence comes from Housekeeping.UptimePollInterval; the snapshot
// export cadence comes from Snapshot.Interval, since that's the knob the
// config schema already exposes for it.
func housekeepingConfig(hk yateconfig.Housekeeping, snap yateconfig.Snapshot) (yatehousekeeping.Config, error) {
	var cfg yatehousekeeping.Config

	if hk.UptimePollInterval != "" {
		d, err := time.ParseDuration(hk.UptimePollInterval)
		if err != nil {
			return cfg, fmt.Errorf("parsing uptime-poll-interval: %w", err)
		}
		cfg.RManagerPoll = d
	}

	if snap.Interval != "" {
		d, err := time.ParseDuration(snap.Interval)
		if err != nil {
			return cfg, fmt.Errorf("parsing snapshot interval: %w", err)
		}
		cfg.SnapshotExport = d
	}

	return cfg, nil
}
