// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command yate-rmanager is a small interactive/one-shot CLI around
// internal/rmanager: dial a running Yate engine's remote-management
// port and either run a single command or drop into a line-oriented
// REPL, the way a telnet client to the same port would behave.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yate-project/goyate/internal/rmanager"
	"github.com/yate-project/goyate/pkg/yatelog"
)

func main() {
	var flagHost, flagPassword, flagLogLevel string
	var flagPort int
	flag.StringVar(&flagHost, "host", "127.0.0.1", "rmanager host to connect to")
	flag.IntVar(&flagPort, "port", 5038, "rmanager port to connect to")
	flag.StringVar(&flagPassword, "password", "", "rmanager password, if the server requires authentication")
	flag.StringVar(&flagLogLevel, "loglevel", "warn", "Sets the logging level: `[debug, info, warn, error, critical]`")
	flag.Parse()

	yatelog.SetLevel(yatelog.ParseLevel(flagLogLevel))

	sess, err := rmanager.Dial(flagHost, flagPort, flagPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "yate-rmanager: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	fmt.Printf("connected: %s (auth level: %s)\n", sess.Greeting, sess.AuthLevel())

	if command := strings.Join(flag.Args(), " "); command != "" {
		if err := runOne(sess, command); err != nil {
			fmt.Fprintf(os.Stderr, "yate-rmanager: %v\n", err)
			os.Exit(1)
		}
		return
	}

	repl(sess)
}

// runOne sends a single command and prints its reply, for non-interactive
// use such as `yate-rmanager -host ... status engine`.
func runOne(sess *rmanager.Session, command string) error {
	reply, err := sess.SendCmd(command)
	if err != nil {
		return err
	}
	printReply(reply)
	return nil
}

// repl reads commands from stdin until EOF or "quit"/"exit", printing each
// reply as it comes back.
func repl(sess *rmanager.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("rmanager> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}

		reply, err := sess.SendCmd(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		printReply(reply)

		if line == "status" || strings.HasPrefix(line, "status ") {
			printParsedStatus(reply)
		}
	}
}

func printReply(reply rmanager.Reply) {
	if !reply.Multi {
		fmt.Println(reply.Line)
		return
	}
	for _, line := range reply.Lines {
		fmt.Println(line)
	}
}

// printParsedStatus additionally decodes a status reply's definition/
// status/details groups, as a demonstration of rmanager.ParseStatus.
func printParsedStatus(reply rmanager.Reply) {
	lines := reply.Lines
	if !reply.Multi {
		lines = []string{reply.Line}
	}
	for i, rec := range rmanager.ParseStatus(lines) {
		fmt.Printf("  [%d] status=%d details=%d\n", i, len(rec.Status), len(rec.Details))
	}
}
