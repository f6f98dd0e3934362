// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package rmanager

import (
	"regexp"
	"strconv"
	"strings"
)

// DetailValue is one entry of a StatusRecord's Details map. Raw is the
// '|'-delimited value as it appeared on the wire; Fields holds it
// re-parsed against the definition's "format" attribute, or is nil if the
// definition carried no format.
type DetailValue struct {
	Raw    string
	Fields map[string]string
}

// StatusRecord is one module's line from a "status" reply: three
// ';'-separated, comma-delimited key=value groups.
type StatusRecord struct {
	Definition map[string]string
	Status     map[string]string
	Details    map[string]DetailValue
}

// ParseStatus parses every line of a "status" reply (one per module).
func ParseStatus(lines []string) []StatusRecord {
	records := make([]StatusRecord, 0, len(lines))
	for _, line := range lines {
		records = append(records, parseStatusLine(line))
	}
	return records
}

func parseStatusLine(line string) StatusRecord {
	definitionPart, rest, _ := strings.Cut(line, ";")
	statusPart, detailsPart, _ := strings.Cut(rest, ";")

	definition := parseKVCommaList(definitionPart)
	status := parseKVCommaList(statusPart)

	var format []string
	if f, ok := definition["format"]; ok && f != "" {
		format = strings.Split(f, "|")
	}

	rawDetails := parseKVCommaList(detailsPart)
	details := make(map[string]DetailValue, len(rawDetails))
	for k, v := range rawDetails {
		dv := DetailValue{Raw: v}
		if format != nil {
			dv.Fields = zipFields(format, strings.Split(v, "|"))
		}
		details[k] = dv
	}

	return StatusRecord{Definition: definition, Status: status, Details: details}
}

func parseKVCommaList(s string) map[string]string {
	out := make(map[string]string)
	if s == "" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		k, v, _ := strings.Cut(part, "=")
		out[k] = v
	}
	return out
}

func zipFields(names, values []string) map[string]string {
	out := make(map[string]string, len(names))
	for i, name := range names {
		if i < len(values) {
			out[name] = values[i]
		} else {
			out[name] = ""
		}
	}
	return out
}

// Status sends "status [overview] [module]" and parses the reply into one
// StatusRecord per line.
func (s *Session) Status(module string, details bool) ([]StatusRecord, error) {
	cmd := "status"
	if !details {
		cmd += " overview"
	}
	if module != "" {
		cmd += " " + module
	}

	reply, err := s.SendCmd(cmd)
	if err != nil {
		return nil, err
	}

	lines := reply.Lines
	if !reply.Multi {
		lines = []string{reply.Line}
	}
	return ParseStatus(lines), nil
}

// Uptime is the engine's parsed "uptime" reply: total, user, and kernel
// time in seconds (kernel/user carry millisecond precision).
type Uptime struct {
	Total  float64
	User   float64
	Kernel float64
}

var uptimeRe = regexp.MustCompile(
	`^Uptime: \d+ \d{2}:\d{2}:\d{2} \((?P<total>\d+)\) user: (?P<user>\d+\.\d{3}) kernel: (?P<kernel>\d+\.\d{3})$`)

// Uptime sends "uptime" and parses the reply.
func (s *Session) Uptime() (Uptime, error) {
	reply, err := s.SendCmd("uptime")
	if err != nil {
		return Uptime{}, err
	}

	m := uptimeRe.FindStringSubmatch(reply.Line)
	if m == nil {
		return Uptime{}, &RuntimeError{Text: "unrecognized uptime response: " + reply.Line}
	}

	total, _ := strconv.ParseFloat(m[1], 64)
	user, _ := strconv.ParseFloat(m[2], 64)
	kernel, _ := strconv.ParseFloat(m[3], 64)
	return Uptime{Total: total, User: user, Kernel: kernel}, nil
}
