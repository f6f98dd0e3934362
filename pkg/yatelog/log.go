// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package yatelog provides leveled logging with the same sd-daemon-style
// numeric priority prefixes systemd understands, so the module's stderr
// composes with journald without a separate logging dependency.
package yatelog

import (
	"fmt"
	"io"
	"log"
	"os"
)

var (
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
	CritWriter  io.Writer = os.Stderr
)

var (
	DebugPrefix = "<7>[DEBUG]    "
	InfoPrefix  = "<6>[INFO]     "
	WarnPrefix  = "<4>[WARNING]  "
	ErrPrefix   = "<3>[ERROR]    "
	CritPrefix  = "<2>[CRITICAL] "
)

var (
	debugLog = log.New(DebugWriter, DebugPrefix, log.LstdFlags)
	infoLog  = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	warnLog  = log.New(WarnWriter, WarnPrefix, log.LstdFlags)
	errLog   = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Lshortfile)
	critLog  = log.New(CritWriter, CritPrefix, log.LstdFlags|log.Lshortfile)
)

// Level selects which loggers actually write; loggers below the
// configured level write to io.Discard.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

var levelNames = map[string]Level{
	"debug": LevelDebug, "info": LevelInfo, "warn": LevelWarn,
	"error": LevelError, "critical": LevelCritical,
}

// ParseLevel parses a level name ("debug", "info", "warn", "error",
// "critical"); unrecognized names default to LevelInfo.
func ParseLevel(s string) Level {
	if l, ok := levelNames[s]; ok {
		return l
	}
	return LevelInfo
}

// SetLevel reconfigures each logger's writer so that only messages at or
// above level are actually emitted.
func SetLevel(level Level) {
	set := func(l *log.Logger, w io.Writer, threshold Level) {
		if level > threshold {
			l.SetOutput(io.Discard)
		} else {
			l.SetOutput(w)
		}
	}
	set(debugLog, DebugWriter, LevelDebug)
	set(infoLog, InfoWriter, LevelInfo)
	set(warnLog, WarnWriter, LevelWarn)
	set(errLog, ErrWriter, LevelError)
	set(critLog, CritWriter, LevelCritical)
}

func Debugf(format string, args ...any) { debugLog.Output(2, fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { infoLog.Output(2, fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { warnLog.Output(2, fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { errLog.Output(2, fmt.Sprintf(format, args...)) }
func Critf(format string, args ...any)  { critLog.Output(2, fmt.Sprintf(format, args...)) }

func Debug(args ...any) { debugLog.Output(2, fmt.Sprint(args...)) }
func Info(args ...any)  { infoLog.Output(2, fmt.Sprint(args...)) }
func Warn(args ...any)  { warnLog.Output(2, fmt.Sprint(args...)) }
func Error(args ...any) { errLog.Output(2, fmt.Sprint(args...)) }
func Crit(args ...any)  { critLog.Output(2, fmt.Sprint(args...)) }
