// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yatehousekeeping runs the module's periodic background jobs -
// rmanager status/uptime polling and snapshot export - on a gocron
// scheduler, the same library the teacher's taskManager package uses for
// its own cron-scheduled jobs.
package yatehousekeeping

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/yate-project/goyate/internal/rmanager"
	"github.com/yate-project/goyate/internal/yatesnapshot"
	"github.com/yate-project/goyate/pkg/yatelog"
)

// Config controls which jobs are registered and how often they run.
// Zero-value durations disable their job.
type Config struct {
	RManagerPoll   time.Duration
	SnapshotExport time.Duration
}

// Scheduler owns the gocron.Scheduler and the jobs registered on it.
type Scheduler struct {
	s gocron.Scheduler
}

// New creates and starts a Scheduler, registering an rmanager status/
// uptime poll job (when sess and cfg.RManagerPoll are both set) and a
// snapshot export job (when exporter and cfg.SnapshotExport are both
// set). To audit polled commands, set sess.AuditHook before calling New.
func New(cfg Config, sess *rmanager.Session, exporter *yatesnapshot.Exporter) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("yatehousekeeping: create scheduler: %w", err)
	}
	sched := &Scheduler{s: s}

	if sess != nil && cfg.RManagerPoll > 0 {
		if err := sched.registerRManagerPoll(sess, cfg.RManagerPoll); err != nil {
			return nil, err
		}
	}
	if exporter != nil && cfg.SnapshotExport > 0 {
		if err := sched.registerSnapshotExport(exporter, cfg.SnapshotExport); err != nil {
			return nil, err
		}
	}

	s.Start()
	return sched, nil
}

func (sched *Scheduler) registerRManagerPoll(sess *rmanager.Session, interval time.Duration) error {
	_, err := sched.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			uptime, err := sess.Uptime()
			if err != nil {
				yatelog.Warnf("yatehousekeeping: uptime poll failed: %v", err)
				return
			}
			yatelog.Infof("yatehousekeeping: uptime total=%.0fs user=%.3fs kernel=%.3fs",
				uptime.Total, uptime.User, uptime.Kernel)

			if _, err := sess.Status("", false); err != nil {
				yatelog.Warnf("yatehousekeeping: status poll failed: %v", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("yatehousekeeping: register rmanager poll job: %w", err)
	}
	return nil
}

func (sched *Scheduler) registerSnapshotExport(exporter *yatesnapshot.Exporter, interval time.Duration) error {
	_, err := sched.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := exporter.Export(); err != nil {
				yatelog.Warnf("yatehousekeeping: snapshot export failed: %v", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("yatehousekeeping: register snapshot export job: %w", err)
	}
	return nil
}

// Shutdown stops the scheduler, waiting for any in-flight job to finish.
func (sched *Scheduler) Shutdown() error {
	return sched.s.Shutdown()
}
