package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	zmq "github.com/wippyai/zmq-runtime"
	"github.com/wippyai/zmq-runtime/options"
)

const usage = `commands:
  socket NAME TYPE          create a socket
  bind NAME ENDPOINT        bind a socket
  connect NAME ENDPOINT     connect a socket
  send NAME [-n] [-m] TEXT  send one frame (-n non-blocking, -m more follows)
  sendm NAME PART...        send a multi-part message
  recv NAME [-n]            receive a whole message
  sub NAME [TOPIC]          subscribe a SUB socket
  unsub NAME [TOPIC]        drop a subscription
  get NAME OPTION           read a socket option
  set NAME OPTION VALUE     write a socket option
  close NAME                close a socket
  list                      list sockets
  version                   show the engine version
  help                      show this text`

// Session owns one context and the named sockets created in it.
type Session struct {
	ctx     *zmq.Context
	table   *options.Table
	logger  *zap.Logger
	sockets map[string]*zmq.Socket
	names   []string
}

// NewSession opens the configured engine and creates the declared sockets.
func NewSession(cfg *Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lib, err := cfg.Library()
	if err != nil {
		return nil, err
	}
	ctx, err := zmq.NewContext(
		zmq.WithLibrary(lib),
		zmq.WithIOThreads(cfg.IOThreads),
		zmq.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ctx:     ctx,
		table:   options.ForVersion(ctx.Version()),
		logger:  logger,
		sockets: make(map[string]*zmq.Socket),
	}
	for _, sc := range cfg.Sockets {
		if err := s.open(sc); err != nil {
			_ = ctx.Close()
			return nil, fmt.Errorf("socket %s: %w", sc.Name, err)
		}
	}
	return s, nil
}

func (s *Session) open(sc SocketConfig) error {
	kind, _ := zmq.ParseSocketType(sc.Type)
	sock, err := s.create(sc.Name, kind)
	if err != nil {
		return err
	}
	if id := sc.identity(); id != "" {
		if err := sock.SetIdentity(id); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(sc.Options))
	for name := range sc.Options {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := s.setOption(sock, name, sc.Options[name]); err != nil {
			return err
		}
	}

	for _, topic := range sc.Subscribe {
		if err := sock.Subscribe(topic); err != nil {
			return err
		}
	}
	for _, ep := range sc.Bind {
		if err := sock.Bind(ep); err != nil {
			return err
		}
	}
	for _, ep := range sc.Connect {
		if err := sock.Connect(ep); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) create(name string, kind zmq.SocketType) (*zmq.Socket, error) {
	if _, ok := s.sockets[name]; ok {
		return nil, fmt.Errorf("socket %s already exists", name)
	}
	sock, err := s.ctx.NewSocket(kind)
	if err != nil {
		return nil, err
	}
	s.sockets[name] = sock
	s.names = append(s.names, name)
	s.logger.Debug("socket opened", zap.String("name", name), zap.Stringer("type", kind))
	return sock, nil
}

// Close closes every socket and the context.
func (s *Session) Close() error {
	s.sockets = map[string]*zmq.Socket{}
	s.names = nil
	return s.ctx.Close()
}

// Names lists the open sockets in creation order.
func (s *Session) Names() []string {
	return slices.Clone(s.names)
}

// Describe renders a socket as "name TYPE".
func (s *Session) Describe(name string) string {
	sock, ok := s.sockets[name]
	if !ok {
		return name
	}
	return name + " " + sock.Type().String()
}

// Version is the engine version of the session.
func (s *Session) Version() string {
	return s.ctx.Version().String()
}

func (s *Session) socket(name string) (*zmq.Socket, error) {
	sock, ok := s.sockets[name]
	if !ok {
		return nil, fmt.Errorf("no socket named %q", name)
	}
	return sock, nil
}

// Exec runs one command line and returns its output.
func (s *Session) Exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		return usage, nil
	case "version":
		return s.Version(), nil
	case "list":
		out := make([]string, 0, len(s.names))
		for _, name := range s.names {
			out = append(out, s.Describe(name))
		}
		return strings.Join(out, "\n"), nil
	case "socket":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: socket NAME TYPE")
		}
		kind, ok := zmq.ParseSocketType(args[1])
		if !ok {
			return "", fmt.Errorf("unknown socket type %q", args[1])
		}
		if _, err := s.create(args[0], kind); err != nil {
			return "", err
		}
		return "", nil
	}

	if !isCommand(cmd) {
		return "", fmt.Errorf("unknown command %q (try help)", cmd)
	}
	if len(args) == 0 {
		return "", fmt.Errorf("%s: missing socket name", cmd)
	}
	sock, err := s.socket(args[0])
	if err != nil {
		return "", err
	}
	args = args[1:]

	switch cmd {
	case "bind", "connect":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: %s NAME ENDPOINT", cmd)
		}
		if cmd == "bind" {
			return "", sock.Bind(args[0])
		}
		return "", sock.Connect(args[0])

	case "send":
		flags, rest := parseFlags(args)
		return "", sock.SendString(strings.Join(rest, " "), flags)

	case "sendm":
		if len(args) == 0 {
			return "", fmt.Errorf("usage: sendm NAME PART...")
		}
		parts := make([][]byte, len(args))
		for i, a := range args {
			parts[i] = []byte(a)
		}
		return "", sock.SendMultipart(parts, 0)

	case "recv":
		flags, _ := parseFlags(args)
		parts, err := sock.RecvMultipart(flags)
		if err != nil {
			return "", err
		}
		out := make([]string, len(parts))
		for i, p := range parts {
			out[i] = formatFrame(p)
		}
		return strings.Join(out, " | "), nil

	case "sub", "unsub":
		topic := strings.Join(args, " ")
		if cmd == "sub" {
			return "", sock.Subscribe(topic)
		}
		return "", sock.Unsubscribe(topic)

	case "get":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: get NAME OPTION")
		}
		return s.getOption(sock, args[0])

	case "set":
		if len(args) < 2 {
			return "", fmt.Errorf("usage: set NAME OPTION VALUE")
		}
		return "", s.setOption(sock, args[0], strings.Join(args[1:], " "))

	case "close":
		name := fields[1]
		delete(s.sockets, name)
		s.names = slices.DeleteFunc(s.names, func(n string) bool { return n == name })
		return "", sock.Close()
	}
	return "", fmt.Errorf("unknown command %q", cmd)
}

func isCommand(cmd string) bool {
	switch cmd {
	case "bind", "connect", "send", "sendm", "recv", "sub", "unsub", "get", "set", "close":
		return true
	}
	return false
}

// parseFlags consumes leading -n and -m switches.
func parseFlags(args []string) (zmq.Flag, []string) {
	var flags zmq.Flag
	for len(args) > 0 {
		switch args[0] {
		case "-n":
			flags |= zmq.DontWait
		case "-m":
			flags |= zmq.SndMore
		default:
			return flags, args
		}
		args = args[1:]
	}
	return flags, args
}

func (s *Session) lookup(name string) (options.Entry, error) {
	e, ok := s.table.Lookup(options.Option(strings.ToLower(name)))
	if !ok {
		return options.Entry{}, fmt.Errorf("unknown option %q for engine %s", name, s.Version())
	}
	return e, nil
}

func (s *Session) getOption(sock *zmq.Socket, name string) (string, error) {
	e, err := s.lookup(name)
	if err != nil {
		return "", err
	}
	if e.Encoding == options.Bytes {
		b, err := sock.GetBytes(e.Name)
		if err != nil {
			return "", err
		}
		return formatFrame(b), nil
	}
	v, err := sock.GetInt(e.Name)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(v, 10), nil
}

func (s *Session) setOption(sock *zmq.Socket, name, value string) error {
	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	if e.Encoding == options.Bytes {
		return sock.SetString(e.Name, value)
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		b, berr := strconv.ParseBool(value)
		if berr != nil {
			return fmt.Errorf("option %s: %q is not an integer", name, value)
		}
		v = 0
		if b {
			v = 1
		}
	}
	return sock.SetInt(e.Name, v)
}

// formatFrame prints text frames as-is and anything else as hex.
func formatFrame(b []byte) string {
	if len(b) == 0 {
		return `""`
	}
	if utf8.Valid(b) && !strings.ContainsFunc(string(b), func(r rune) bool { return !unicode.IsPrint(r) }) {
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}

// runScript executes one command per line. Blank lines and lines starting
// with # are skipped; "quit" and "exit" stop early.
func runScript(r io.Reader, w io.Writer, sess *Session) error {
	scanner := bufio.NewScanner(r)
	failed := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		out, err := sess.Exec(line)
		if err != nil {
			failed++
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		if out != "" {
			fmt.Fprintln(w, out)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read commands: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d command(s) failed", failed)
	}
	return nil
}
