// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package yatecmd

import (
	"strconv"
	"time"

	"github.com/yate-project/goyate/internal/yatecodec"
)

func renderEncoded(s string) string       { return yatecodec.Encode(s) }
func renderOptEncoded(s *string) string   { return yatecodec.Encode(optStr(s)) }
func decodeEncoded(s string) (string, error) { return yatecodec.Decode(s) }

// Connect is the "%%>connect" command: attach to a socket interface.
type Connect struct {
	Role string
	ID   *string
	Type *string
}

func NewConnect(role string, id, typ *string) (*Connect, error) {
	if role == "" {
		return nil, &fieldError{field: "role", err: ErrMissingRequiredField}
	}
	return &Connect{Role: role, ID: id, Type: typ}, nil
}

func (c *Connect) Kind() Kind         { return KindConnect }
func (c *Connect) Keyword() string    { return "%%>connect" }
func (c *Connect) RenderFields() []string {
	return []string{renderEncoded(c.Role), renderOptEncoded(c.ID), renderOptEncoded(c.Type)}
}

func parseConnect(fields []string) (Command, error) {
	fields = padFields(fields, 3)
	role, err := decodeEncoded(fields[0])
	if err != nil {
		return nil, &fieldError{"role", err}
	}
	if role == "" {
		return nil, &fieldError{"role", ErrMissingRequiredField}
	}
	id, err := decodeOptEncoded(fields[1])
	if err != nil {
		return nil, &fieldError{"id", err}
	}
	typ, err := decodeOptEncoded(fields[2])
	if err != nil {
		return nil, &fieldError{"type", err}
	}
	return &Connect{Role: role, ID: id, Type: typ}, nil
}

func decodeOptEncoded(s string) (*string, error) {
	if s == "" {
		return nil, nil
	}
	v, err := yatecodec.Decode(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Error is the "Error in" command: reports a malformed command line
// previously sent by this module.
type Error struct {
	Original string
}

func (c *Error) Kind() Kind             { return KindError }
func (c *Error) Keyword() string        { return "Error in" }
func (c *Error) RenderFields() []string { return []string{c.Original} }

func parseError(fields []string) (Command, error) {
	fields = padFields(fields, 1)
	return &Error{Original: fields[0]}, nil
}

// Install is the "%%>install" command: install a message handler.
type Install struct {
	Priority     *int
	Name         string
	FilterName   *string
	FilterValue  *string
}

func NewInstall(name string, priority *int, filterName, filterValue *string) (*Install, error) {
	if name == "" {
		return nil, &fieldError{"name", ErrMissingRequiredField}
	}
	return &Install{Priority: priority, Name: name, FilterName: filterName, FilterValue: filterValue}, nil
}

func (c *Install) Kind() Kind      { return KindInstall }
func (c *Install) Keyword() string { return "%%>install" }
func (c *Install) RenderFields() []string {
	return []string{
		renderOptInt(c.Priority), renderEncoded(c.Name),
		renderOptEncoded(c.FilterName), renderOptEncoded(c.FilterValue),
	}
}

func parseInstall(fields []string) (Command, error) {
	fields = padFields(fields, 4)
	priority, err := parseOptIntField(fields[0])
	if err != nil {
		return nil, &fieldError{"priority", err}
	}
	name, err := decodeEncoded(fields[1])
	if err != nil {
		return nil, &fieldError{"name", err}
	}
	if name == "" {
		return nil, &fieldError{"name", ErrMissingRequiredField}
	}
	filterName, err := decodeOptEncoded(fields[2])
	if err != nil {
		return nil, &fieldError{"filter_name", err}
	}
	filterValue, err := decodeOptEncoded(fields[3])
	if err != nil {
		return nil, &fieldError{"filter_value", err}
	}
	return &Install{Priority: priority, Name: name, FilterName: filterName, FilterValue: filterValue}, nil
}

// InstallReply is the "%%<install" reply to Install.
type InstallReply struct {
	Priority int
	Name     string
	Success  bool
}

func (c *InstallReply) Kind() Kind      { return KindInstallReply }
func (c *InstallReply) Keyword() string { return "%%<install" }
func (c *InstallReply) RenderFields() []string {
	return []string{strconv.Itoa(c.Priority), renderEncoded(c.Name), renderBool(c.Success)}
}

func parseInstallReply(fields []string) (Command, error) {
	fields = padFields(fields, 3)
	priority, err := parseIntField(fields[0])
	if err != nil {
		return nil, &fieldError{"priority", err}
	}
	name, err := decodeEncoded(fields[1])
	if err != nil {
		return nil, &fieldError{"name", err}
	}
	success, err := parseBoolField(fields[2])
	if err != nil {
		return nil, &fieldError{"success", err}
	}
	return &InstallReply{Priority: priority, Name: name, Success: success}, nil
}

// Message is the "%%>message" command: inject a message into the engine.
type Message struct {
	ID       string
	Time     time.Time
	Name     string
	RetValue *string
	KVP      KVP
}

func NewMessage(id string, t time.Time, name string, retValue *string, kvp KVP) (*Message, error) {
	if id == "" {
		return nil, &fieldError{"id", ErrMissingRequiredField}
	}
	if name == "" {
		return nil, &fieldError{"name", ErrMissingRequiredField}
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return &Message{ID: id, Time: t, Name: name, RetValue: retValue, KVP: kvp}, nil
}

func (c *Message) Kind() Kind      { return KindMessage }
func (c *Message) Keyword() string { return "%%>message" }
func (c *Message) RenderFields() []string {
	return []string{
		renderEncoded(c.ID), renderDateTime(c.Time), renderEncoded(c.Name),
		renderOptEncoded(c.RetValue), c.KVP.render(),
	}
}

// Reply builds a MessageReply echoing this message's ID, with
// processed=false unless overridden. A supplied kvp fully replaces the
// reply's key-value list; to delete a key-value pair from the originating
// message, include the key with no value.
func (c *Message) Reply(processed bool, name, retValue *string, kvp KVP) *MessageReply {
	return &MessageReply{ID: &c.ID, Processed: processed, Name: name, RetValue: retValue, KVP: kvp}
}

func parseMessage(fields []string) (Command, error) {
	fields = padFields(fields, 5)
	id, err := decodeEncoded(fields[0])
	if err != nil {
		return nil, &fieldError{"id", err}
	}
	if id == "" {
		return nil, &fieldError{"id", ErrMissingRequiredField}
	}
	t, err := parseDateTimeField(fields[1])
	if err != nil {
		return nil, &fieldError{"time", err}
	}
	name, err := decodeEncoded(fields[2])
	if err != nil {
		return nil, &fieldError{"name", err}
	}
	if name == "" {
		return nil, &fieldError{"name", ErrMissingRequiredField}
	}
	retValue, err := decodeOptEncoded(fields[3])
	if err != nil {
		return nil, &fieldError{"retvalue", err}
	}
	kvp, err := parseKVP(fields[4])
	if err != nil {
		return nil, &fieldError{"kvp", err}
	}
	return &Message{ID: id, Time: t, Name: name, RetValue: retValue, KVP: kvp}, nil
}

// MessageReply is the "%%<message" reply to Message, or an unsolicited
// notification from an installed watcher (in which case ID is nil).
type MessageReply struct {
	ID        *string
	Processed bool
	Name      *string
	RetValue  *string
	KVP       KVP
}

func (c *MessageReply) Kind() Kind      { return KindMessageReply }
func (c *MessageReply) Keyword() string { return "%%<message" }
func (c *MessageReply) RenderFields() []string {
	return []string{
		renderOptEncoded(c.ID), renderBool(c.Processed), renderOptEncoded(c.Name),
		renderOptEncoded(c.RetValue), c.KVP.render(),
	}
}

func parseMessageReply(fields []string) (Command, error) {
	fields = padFields(fields, 5)
	id, err := decodeOptEncoded(fields[0])
	if err != nil {
		return nil, &fieldError{"id", err}
	}
	processed, err := parseBoolField(fields[1])
	if err != nil {
		return nil, &fieldError{"processed", err}
	}
	name, err := decodeOptEncoded(fields[2])
	if err != nil {
		return nil, &fieldError{"name", err}
	}
	retValue, err := decodeOptEncoded(fields[3])
	if err != nil {
		return nil, &fieldError{"retvalue", err}
	}
	kvp, err := parseKVP(fields[4])
	if err != nil {
		return nil, &fieldError{"kvp", err}
	}
	return &MessageReply{ID: id, Processed: processed, Name: name, RetValue: retValue, KVP: kvp}, nil
}

// Output is the "%%>output" command: arbitrary unescaped logging text.
type Output struct {
	Text string
}

func (c *Output) Kind() Kind             { return KindOutput }
func (c *Output) Keyword() string        { return "%%>output" }
func (c *Output) RenderFields() []string { return []string{c.Text} }

func parseOutput(fields []string) (Command, error) {
	fields = padFields(fields, 1)
	return &Output{Text: fields[0]}, nil
}

// SetLocal is the "%%>setlocal" command: query or set an engine-local
// parameter.
type SetLocal struct {
	Name  string
	Value *string
}

func NewSetLocal(name string, value *string) (*SetLocal, error) {
	if name == "" {
		return nil, &fieldError{"name", ErrMissingRequiredField}
	}
	return &SetLocal{Name: name, Value: value}, nil
}

func (c *SetLocal) Kind() Kind      { return KindSetLocal }
func (c *SetLocal) Keyword() string { return "%%>setlocal" }
func (c *SetLocal) RenderFields() []string {
	return []string{renderEncoded(c.Name), renderOptEncoded(c.Value)}
}

func parseSetLocal(fields []string) (Command, error) {
	fields = padFields(fields, 2)
	name, err := decodeEncoded(fields[0])
	if err != nil {
		return nil, &fieldError{"name", err}
	}
	if name == "" {
		return nil, &fieldError{"name", ErrMissingRequiredField}
	}
	value, err := decodeOptEncoded(fields[1])
	if err != nil {
		return nil, &fieldError{"value", err}
	}
	return &SetLocal{Name: name, Value: value}, nil
}

// SetLocalReply is the "%%<setlocal" reply to SetLocal.
type SetLocalReply struct {
	Name    string
	Value   string
	Success bool
}

func (c *SetLocalReply) Kind() Kind      { return KindSetLocalReply }
func (c *SetLocalReply) Keyword() string { return "%%<setlocal" }
func (c *SetLocalReply) RenderFields() []string {
	return []string{renderEncoded(c.Name), renderEncoded(c.Value), renderBool(c.Success)}
}

func parseSetLocalReply(fields []string) (Command, error) {
	fields = padFields(fields, 3)
	name, err := decodeEncoded(fields[0])
	if err != nil {
		return nil, &fieldError{"name", err}
	}
	value, err := decodeEncoded(fields[1])
	if err != nil {
		return nil, &fieldError{"value", err}
	}
	success, err := parseBoolField(fields[2])
	if err != nil {
		return nil, &fieldError{"success", err}
	}
	return &SetLocalReply{Name: name, Value: value, Success: success}, nil
}

// UnInstall is the "%%>uninstall" command: remove a previously installed
// message handler.
type UnInstall struct {
	Name string
}

func NewUnInstall(name string) (*UnInstall, error) {
	if name == "" {
		return nil, &fieldError{"name", ErrMissingRequiredField}
	}
	return &UnInstall{Name: name}, nil
}

func (c *UnInstall) Kind() Kind             { return KindUnInstall }
func (c *UnInstall) Keyword() string        { return "%%>uninstall" }
func (c *UnInstall) RenderFields() []string { return []string{renderEncoded(c.Name)} }

func parseUnInstall(fields []string) (Command, error) {
	fields = padFields(fields, 1)
	name, err := decodeEncoded(fields[0])
	if err != nil {
		return nil, &fieldError{"name", err}
	}
	if name == "" {
		return nil, &fieldError{"name", ErrMissingRequiredField}
	}
	return &UnInstall{Name: name}, nil
}

// UnInstallReply is the "%%<uninstall" reply to UnInstall.
type UnInstallReply struct {
	Priority int
	Name     string
	Success  bool
}

func (c *UnInstallReply) Kind() Kind      { return KindUnInstallReply }
func (c *UnInstallReply) Keyword() string { return "%%<uninstall" }
func (c *UnInstallReply) RenderFields() []string {
	return []string{strconv.Itoa(c.Priority), renderEncoded(c.Name), renderBool(c.Success)}
}

func parseUnInstallReply(fields []string) (Command, error) {
	fields = padFields(fields, 3)
	priority, err := parseIntField(fields[0])
	if err != nil {
		return nil, &fieldError{"priority", err}
	}
	name, err := decodeEncoded(fields[1])
	if err != nil {
		return nil, &fieldError{"name", err}
	}
	success, err := parseBoolField(fields[2])
	if err != nil {
		return nil, &fieldError{"success", err}
	}
	return &UnInstallReply{Priority: priority, Name: name, Success: success}, nil
}

// UnWatch is the "%%>unwatch" command: remove a previously installed
// message watcher.
type UnWatch struct {
	Name string
}

func NewUnWatch(name string) (*UnWatch, error) {
	if name == "" {
		return nil, &fieldError{"name", ErrMissingRequiredField}
	}
	return &UnWatch{Name: name}, nil
}

func (c *UnWatch) Kind() Kind             { return KindUnWatch }
func (c *UnWatch) Keyword() string        { return "%%>unwatch" }
func (c *UnWatch) RenderFields() []string { return []string{renderEncoded(c.Name)} }

func parseUnWatch(fields []string) (Command, error) {
	fields = padFields(fields, 1)
	name, err := decodeEncoded(fields[0])
	if err != nil {
		return nil, &fieldError{"name", err}
	}
	if name == "" {
		return nil, &fieldError{"name", ErrMissingRequiredField}
	}
	return &UnWatch{Name: name}, nil
}

// UnWatchReply is the "%%<unwatch" reply to UnWatch.
type UnWatchReply struct {
	Name    string
	Success bool
}

func (c *UnWatchReply) Kind() Kind      { return KindUnWatchReply }
func (c *UnWatchReply) Keyword() string { return "%%<unwatch" }
func (c *UnWatchReply) RenderFields() []string {
	return []string{renderEncoded(c.Name), renderBool(c.Success)}
}

func parseUnWatchReply(fields []string) (Command, error) {
	fields = padFields(fields, 2)
	name, err := decodeEncoded(fields[0])
	if err != nil {
		return nil, &fieldError{"name", err}
	}
	success, err := parseBoolField(fields[1])
	if err != nil {
		return nil, &fieldError{"success", err}
	}
	return &UnWatchReply{Name: name, Success: success}, nil
}

// Watch is the "%%>watch" command: install a message watcher.
type Watch struct {
	Name string
}

func NewWatch(name string) (*Watch, error) {
	if name == "" {
		return nil, &fieldError{"name", ErrMissingRequiredField}
	}
	return &Watch{Name: name}, nil
}

func (c *Watch) Kind() Kind             { return KindWatch }
func (c *Watch) Keyword() string        { return "%%>watch" }
func (c *Watch) RenderFields() []string { return []string{renderEncoded(c.Name)} }

func parseWatch(fields []string) (Command, error) {
	fields = padFields(fields, 1)
	name, err := decodeEncoded(fields[0])
	if err != nil {
		return nil, &fieldError{"name", err}
	}
	if name == "" {
		return nil, &fieldError{"name", ErrMissingRequiredField}
	}
	return &Watch{Name: name}, nil
}

// WatchReply is the "%%<watch" reply to Watch.
type WatchReply struct {
	Name    string
	Success bool
}

func (c *WatchReply) Kind() Kind      { return KindWatchReply }
func (c *WatchReply) Keyword() string { return "%%<watch" }
func (c *WatchReply) RenderFields() []string {
	return []string{renderEncoded(c.Name), renderBool(c.Success)}
}

func parseWatchReply(fields []string) (Command, error) {
	fields = padFields(fields, 2)
	name, err := decodeEncoded(fields[0])
	if err != nil {
		return nil, &fieldError{"name", err}
	}
	success, err := parseBoolField(fields[1])
	if err != nil {
		return nil, &fieldError{"success", err}
	}
	return &WatchReply{Name: name, Success: success}, nil
}

func init() {
	register("%%>connect", 3, parseConnect)
	register("Error in", 1, parseError)
	register("%%>install", 4, parseInstall)
	register("%%<install", 3, parseInstallReply)
	register("%%>message", 5, parseMessage)
	register("%%<message", 5, parseMessageReply)
	register("%%>output", 1, parseOutput)
	register("%%>setlocal", 2, parseSetLocal)
	register("%%<setlocal", 3, parseSetLocalReply)
	register("%%>uninstall", 1, parseUnInstall)
	register("%%<uninstall", 3, parseUnInstallReply)
	register("%%>unwatch", 1, parseUnWatch)
	register("%%<unwatch", 2, parseUnWatchReply)
	register("%%>watch", 1, parseWatch)
	register("%%<watch", 2, parseWatchReply)
}
