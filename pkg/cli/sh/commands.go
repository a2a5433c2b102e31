package sh

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/miniboard/pkg/transport/serial"
)

var (
	// ConnectCmd connects a board.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "URL",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			linkURL := s.Config.Link
			if len(c.Args) > 0 {
				linkURL = c.Args[0]
			}
			if linkURL == "" {
				c.Err(fmt.Errorf("URL required"))
				return
			}
			if err := s.Connect(linkURL); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current board.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := serial.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			if s.OutputJSON {
				if ports == nil {
					ports = []string{}
				}
				s.printJSON(c, ports)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// RegsCmd lists the register map.
	RegsCmd = ishell.Cmd{
		Name:    "regs",
		Aliases: []string{"ls"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			for _, r := range s.Table.Registers() {
				var flags []string
				if r.HasTrigger() {
					flags = append(flags, "trigger")
				}
				c.Printf("0x%02x %-16s %-6s %-3s %2d %s\n",
					r.ID, r.Name, r.Type, r.Access, r.Size(), strings.Join(flags, ","))
			}
		},
	}

	// ReadCmd reads registers.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "REG...",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("REG required"))
				return
			}
			s := ShellFrom(c)
			for _, arg := range c.Args {
				r, val, err := s.Read(arg)
				if err != nil {
					c.Err(fmt.Errorf("%s: %v", arg, err))
					return
				}
				s.PrintValue(c, r, val)
			}
		}),
	}

	// WriteCmd writes a register.
	WriteCmd = ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "REG VALUE",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("REG and VALUE required"))
				return
			}
			s := ShellFrom(c)
			if _, _, err := s.Write(c.Args[0], strings.Join(c.Args[1:], " ")); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// TriggerCmd fires a register trigger.
	TriggerCmd = ishell.Cmd{
		Name:    "trigger",
		Aliases: []string{"t"},
		Help:    "REG",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("REG required"))
				return
			}
			s := ShellFrom(c)
			r, val, err := s.Trigger(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			s.PrintValue(c, r, val)
		}),
	}

	// DebugCmd dumps board counters.
	DebugCmd = ishell.Cmd{
		Name: "debug",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			info, err := s.Debug()
			if err != nil {
				c.Err(err)
				return
			}
			s.PrintDebug(c, info)
		}),
	}
)

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}
