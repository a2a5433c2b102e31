// Package sh is an interactive shell talking to a board over its link.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/miniboard/pkg/l0/comm"
	"github.com/robotalks/miniboard/pkg/l0/regs"
	"github.com/robotalks/miniboard/pkg/l0/trigger"
	"github.com/robotalks/miniboard/pkg/transport"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *Config
	Table  *regs.Table
	Conn   *Conn
}

// Conn is a connected board link.
type Conn struct {
	URL    string
	Link   io.ReadWriteCloser
	Client *comm.Client
	Cancel func()
}

// Close stops the client and closes the link.
func (c *Conn) Close() error {
	c.Cancel()
	return c.Link.Close()
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&PortsCmd,
		&RegsCmd,
		&ReadCmd,
		&WriteCmd,
		&TriggerCmd,
		&DebugCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
		Table:  regs.LayoutTable(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect dials the board link.
func (s *Shell) Connect(linkURL string) error {
	link, err := transport.Dial(linkURL)
	if err != nil {
		return err
	}
	s.Attach(linkURL, link)
	return nil
}

// Attach uses an opened link as the current connection.
func (s *Shell) Attach(name string, link io.ReadWriteCloser) {
	conn := &Conn{URL: name, Link: link, Client: comm.NewClient(link)}
	ctx, cancel := context.WithCancel(context.Background())
	conn.Cancel = cancel
	go conn.Client.Run(ctx)
	s.Disconnect()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
}

// Disconnect disconnects current link.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Register resolves a register by name or ID, e.g. battery_voltage or 0x01.
func (s *Shell) Register(arg string) (*regs.Register, error) {
	if id, err := strconv.ParseUint(arg, 0, 8); err == nil {
		return s.Table.Lookup(byte(id))
	}
	return s.Table.LookupName(arg)
}

func (s *Shell) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.Config.Timeout)
}

// Read reads a register.
func (s *Shell) Read(arg string) (*regs.Register, []byte, error) {
	r, err := s.Register(arg)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := s.requestContext()
	defer cancel()
	val, err := s.Conn.Client.Read(ctx, r.ID)
	return r, val, err
}

// Write parses value by the register type and writes it.
func (s *Shell) Write(arg, value string) (*regs.Register, []byte, error) {
	r, err := s.Register(arg)
	if err != nil {
		return nil, nil, err
	}
	encoded, err := r.Type.Parse(value)
	if err != nil {
		return r, nil, fmt.Errorf("invalid %s value %q: %v", r.Type, value, err)
	}
	ctx, cancel := s.requestContext()
	defer cancel()
	return r, encoded, s.Conn.Client.Write(ctx, r.ID, encoded)
}

// Trigger fires the trigger of a register.
func (s *Shell) Trigger(arg string) (*regs.Register, []byte, error) {
	r, err := s.Register(arg)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := s.requestContext()
	defer cancel()
	val, err := s.Conn.Client.Trigger(ctx, r.ID)
	return r, val, err
}

// Debug fires the debug dump.
func (s *Shell) Debug() (*trigger.DebugInfo, error) {
	_, val, err := s.Trigger("debug_info")
	if err != nil {
		return nil, err
	}
	return trigger.DecodeDebugInfo(val)
}

// PrintValue prints a register value.
func (s *Shell) PrintValue(c *ishell.Context, r *regs.Register, val []byte) {
	if r.ID == regs.IDDebugInfo {
		if info, err := trigger.DecodeDebugInfo(val); err == nil {
			s.PrintDebug(c, info)
			return
		}
	}
	if s.OutputJSON {
		v, err := r.Type.Decode(val)
		if err != nil {
			v = val
		}
		s.printJSON(c, map[string]interface{}{r.Name: v})
		return
	}
	c.Printf("%s = %s\n", r.Name, r.Type.Format(val))
}

// PrintDebug prints a debug dump.
func (s *Shell) PrintDebug(c *ishell.Context, info *trigger.DebugInfo) {
	if s.OutputJSON {
		s.printJSON(c, info)
		return
	}
	c.Println(info.String())
}

func (s *Shell) printJSON(c *ishell.Context, v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Link != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Link)
		}
		if err := s.Connect(s.Config.Link); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Link, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
