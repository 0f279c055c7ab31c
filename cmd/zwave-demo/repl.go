package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/google/shlex"

	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/host"
	"github.com/jangala-dev/zwavehost/types"
)

// runREPL reads operator commands from stdin, tokenizes each line with
// shlex (so a command can carry quoted arguments), and hands the parsed
// command to the caller as a closure over *host.Host. The closures are
// sent, never called here: every Host method is meant to run on the same
// goroutine that drives Proc (spec.md §5's single cooperative loop), and
// main's select loop is that goroutine.
func runREPL(cmdCh chan<- func(*host.Host)) {
	defer close(cmdCh)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields, err := shlex.Split(scanner.Text(), true)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]
		if name == "quit" || name == "exit" {
			return
		}
		cmd, ok := commands[name]
		if !ok {
			fmt.Printf("unknown command %q (try 'help')\n", name)
			continue
		}
		cmdCh <- func(h *host.Host) { cmd(h, args) }
	}
}

type replFunc func(h *host.Host, args []string)

var commands map[string]replFunc

func init() {
	commands = map[string]replFunc{
		"help":             cmdHelp,
		"set-default":      cmdSetDefault,
		"add-node":         cmdAddNode,
		"add-node-stop":    cmdAddNodeStop,
		"remove-node":      cmdRemoveNode,
		"remove-node-stop": cmdRemoveNodeStop,
		"list-nodes":       cmdListNodes,
		"node-info":        cmdNodeInfo,
		"basic-get":        cmdBasicGet,
		"basic-set":        cmdBasicSet,
		"binary-get":       cmdBinaryGet,
		"binary-set":       cmdBinarySet,
		"multilevel-get":   cmdMultilevelGet,
		"multilevel-set":   cmdMultilevelSet,
		"multilevel-start": cmdMultilevelStart,
		"multilevel-stop":  cmdMultilevelStop,
		"version-get":      cmdVersionGet,
	}
}

func cmdHelp(h *host.Host, args []string) {
	fmt.Println(`commands:
  set-default
  add-node | add-node-stop
  remove-node | remove-node-stop
  list-nodes
  node-info <id>
  basic-get <id> [ep] | basic-set <id> <value> [ep]
  binary-get <id> [ep] | binary-set <id> on|off [ep]
  multilevel-get <id> [ep] | multilevel-set <id> <0-99> [ep]
  multilevel-start <id> up|down [ep] | multilevel-stop <id> [ep]
  version-get <id>
  quit`)
}

func parseNode(s string) (types.NodeID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	id := types.NodeID(n)
	if err := types.CheckNode(id); err != nil {
		return 0, err
	}
	return id, nil
}

// endpointArg returns args[idx] as an Endpoint if present, else the root
// endpoint; most commands take an optional trailing endpoint.
func endpointArg(args []string, idx int) (types.Endpoint, error) {
	if idx >= len(args) {
		return types.EndpointRoot, nil
	}
	n, err := strconv.Atoi(args[idx])
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", args[idx])
	}
	ep := types.Endpoint(n)
	if err := types.CheckEndpoint(ep); err != nil {
		return 0, err
	}
	return ep, nil
}

func parseSwitchValue(s string) (types.SwitchValue, error) {
	switch s {
	case "on":
		return types.SwitchMax, nil
	case "off":
		return types.SwitchOff, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number or on/off", s)
	}
	return types.SwitchValue(n), nil
}

func cmdSetDefault(h *host.Host, args []string) {
	h.SetDefault(func(code errcode.Code) {
		fmt.Println("set-default:", code)
	})
}

func cmdAddNode(h *host.Host, args []string) {
	h.NodeAdd(func(node *types.NodeRecord, code errcode.Code) {
		if node != nil {
			fmt.Printf("add-node: joined node %d (generic class 0x%02x)\n", node.ID, node.Class.Generic)
			return
		}
		fmt.Println("add-node:", code)
	})
}

func cmdAddNodeStop(h *host.Host, args []string) { h.NodeAddBreak() }

func cmdRemoveNode(h *host.Host, args []string) {
	h.NodeRem(func(node *types.NodeRecord, code errcode.Code) {
		if node != nil {
			fmt.Printf("remove-node: removed node %d\n", node.ID)
			return
		}
		fmt.Println("remove-node:", code)
	})
}

func cmdRemoveNodeStop(h *host.Host, args []string) { h.NodeRemBreak() }

func cmdListNodes(h *host.Host, args []string) {
	h.NodeList(func(node *types.NodeRecord, code errcode.Code) {
		if node != nil {
			fmt.Printf("node %d: generic class 0x%02x, %d command class(es)\n", node.ID, node.Class.Generic, len(node.CommandClasses))
			return
		}
		if code != errcode.OK {
			fmt.Println("list-nodes:", code)
			return
		}
		fmt.Println("list-nodes: done")
	})
}

func cmdNodeInfo(h *host.Host, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: node-info <id>")
		return
	}
	id, err := parseNode(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	rec, ok := h.NodeInfo(id)
	if !ok {
		fmt.Println("node-info: not in cache")
		return
	}
	fmt.Printf("node %d: basic=0x%02x generic=0x%02x specific=0x%02x classes=%v\n",
		rec.ID, rec.Class.Basic, rec.Class.Generic, rec.Class.Specific, rec.CommandClasses)
}

func cmdBasicGet(h *host.Host, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: basic-get <id> [ep]")
		return
	}
	id, err := parseNode(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	ep, err := endpointArg(args, 1)
	if err != nil {
		fmt.Println(err)
		return
	}
	h.BasicGet(id, ep, func(r *types.BasicReport, code errcode.Code) {
		if r == nil {
			fmt.Println("basic-get:", code)
			return
		}
		fmt.Printf("basic report: value=%d target=%d duration=%d\n", r.Value, r.Target, r.Duration)
	})
}

func cmdBasicSet(h *host.Host, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: basic-set <id> <value> [ep]")
		return
	}
	id, err := parseNode(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	v, err := parseSwitchValue(args[1])
	if err != nil {
		fmt.Println(err)
		return
	}
	ep, err := endpointArg(args, 2)
	if err != nil {
		fmt.Println(err)
		return
	}
	h.BasicSet(id, ep, types.BasicSet{Value: v}, func(code errcode.Code) {
		fmt.Println("basic-set:", code)
	})
}

func cmdBinaryGet(h *host.Host, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: binary-get <id> [ep]")
		return
	}
	id, err := parseNode(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	ep, err := endpointArg(args, 1)
	if err != nil {
		fmt.Println(err)
		return
	}
	h.BinarySwitchGet(id, ep, func(r *types.BinarySwitchReport, code errcode.Code) {
		if r == nil {
			fmt.Println("binary-get:", code)
			return
		}
		fmt.Printf("binary switch report: value=%d target=%d duration=%d\n", r.Value, r.Target, r.Duration)
	})
}

func cmdBinarySet(h *host.Host, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: binary-set <id> on|off [ep]")
		return
	}
	id, err := parseNode(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	v, err := parseSwitchValue(args[1])
	if err != nil {
		fmt.Println(err)
		return
	}
	ep, err := endpointArg(args, 2)
	if err != nil {
		fmt.Println(err)
		return
	}
	h.BinarySwitchSet(id, ep, types.BinarySwitchSet{Value: v}, func(code errcode.Code) {
		fmt.Println("binary-set:", code)
	})
}

func cmdMultilevelGet(h *host.Host, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: multilevel-get <id> [ep]")
		return
	}
	id, err := parseNode(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	ep, err := endpointArg(args, 1)
	if err != nil {
		fmt.Println(err)
		return
	}
	h.MultilevelSwitchGet(id, ep, func(r *types.MultilevelSwitchReport, code errcode.Code) {
		if r == nil {
			fmt.Println("multilevel-get:", code)
			return
		}
		fmt.Printf("multilevel switch report: value=%d target=%d duration=%d\n", r.Value, r.Target, r.Duration)
	})
}

func cmdMultilevelSet(h *host.Host, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: multilevel-set <id> <0-99> [ep]")
		return
	}
	id, err := parseNode(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	v, err := parseSwitchValue(args[1])
	if err != nil {
		fmt.Println(err)
		return
	}
	ep, err := endpointArg(args, 2)
	if err != nil {
		fmt.Println(err)
		return
	}
	h.MultilevelSwitchSet(id, ep, types.MultilevelSwitchSet{Value: v}, func(code errcode.Code) {
		fmt.Println("multilevel-set:", code)
	})
}

func cmdMultilevelStart(h *host.Host, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: multilevel-start <id> up|down [ep]")
		return
	}
	id, err := parseNode(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	var dir types.RampDirection
	switch args[1] {
	case "up":
		dir = types.RampUp
	case "down":
		dir = types.RampDown
	default:
		fmt.Println("direction must be up or down")
		return
	}
	ep, err := endpointArg(args, 2)
	if err != nil {
		fmt.Println(err)
		return
	}
	h.MultilevelSwitchStartChange(id, ep, types.MultilevelSwitchStartChange{Direction: dir}, func(code errcode.Code) {
		fmt.Println("multilevel-start:", code)
	})
}

func cmdMultilevelStop(h *host.Host, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: multilevel-stop <id> [ep]")
		return
	}
	id, err := parseNode(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	ep, err := endpointArg(args, 1)
	if err != nil {
		fmt.Println(err)
		return
	}
	h.MultilevelSwitchStopChange(id, ep, func(code errcode.Code) {
		fmt.Println("multilevel-stop:", code)
	})
}

func cmdVersionGet(h *host.Host, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: version-get <id>")
		return
	}
	id, err := parseNode(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	h.VersionGet(id, func(r *types.VersionReport, code errcode.Code) {
		if r == nil {
			fmt.Println("version-get:", code)
			return
		}
		fmt.Printf("version report: lib=%d protocol=%d.%d firmware=%d.%d\n",
			r.LibraryType, r.ProtocolMajor, r.ProtocolMinor, r.FirmwareMajor, r.FirmwareMinor)
	})
}
