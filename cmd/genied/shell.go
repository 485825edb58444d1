package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/speters/geniego/pkg/genie"
)

const shellHelp = `Available commands:
  read <object> <index>           read an object value
  write <object> <index> <value>  write an object value
  str <index> <text>              write an ASCII string
  ustr <index> <text>             write a unicode string
  contrast <level>                set the display contrast
  widget <name> [value]           read or write a configured widget
  widgets                         list configured widgets
  replies                         show queued reports
  stats                           show link diagnostics
  exit, quit                      leave the shell`

func shellCompleter() readline.AutoCompleter {
	objects := make([]readline.PrefixCompleterInterface, 0, len(genie.ObjectTypes))
	for name := range genie.ObjectTypes {
		objects = append(objects, readline.PcItem(name))
	}
	widgets := make([]readline.PrefixCompleterInterface, 0, len(dev.Widgets))
	for name := range dev.Widgets {
		widgets = append(widgets, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("read", objects...),
		readline.PcItem("write", objects...),
		readline.PcItem("str"),
		readline.PcItem("ustr"),
		readline.PcItem("contrast"),
		readline.PcItem("widget", widgets...),
		readline.PcItem("widgets"),
		readline.PcItem("replies"),
		readline.PcItem("stats"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// runShell reads commands until EOF, exit or ctx ends
func runShell(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "genie> ",
		HistoryFile:       os.ExpandEnv("$HOME/.genied_history"),
		HistoryLimit:      1000,
		HistorySearchFold: true,
		AutoComplete:      shellCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}

		out, err := shellCommand(ctx, args, strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "Error: %v\n", err)
			continue
		}
		if out != "" {
			fmt.Fprintln(rl.Stdout(), out)
		}
	}
}

func shellJSON(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "    ")
	return string(b), err
}

// rest returns what follows the first n fields of line, spacing preserved
func rest(line string, n int) string {
	for i := 0; i < n; i++ {
		line = strings.TrimLeft(line, " \t")
		if j := strings.IndexAny(line, " \t"); j >= 0 {
			line = line[j:]
		} else {
			return ""
		}
	}
	if len(line) > 0 {
		line = line[1:]
	}
	return line
}

func shellCommand(ctx context.Context, args []string, line string) (string, error) {
	need := func(n int) error {
		if len(args) < n+1 {
			return fmt.Errorf("%w: %s needs %d arguments, see help", errBadArg, args[0], n)
		}
		return nil
	}

	switch args[0] {
	case "help":
		return shellHelp, nil

	case "read":
		if err := need(2); err != nil {
			return "", err
		}
		obj, err := parseObject(args[1])
		if err != nil {
			return "", err
		}
		idx, err := parseByte(args[2])
		if err != nil {
			return "", err
		}
		v, err := dev.ReadObj(ctx, obj, idx)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(int(v)), nil

	case "write":
		if err := need(3); err != nil {
			return "", err
		}
		obj, err := parseObject(args[1])
		if err != nil {
			return "", err
		}
		idx, err := parseByte(args[2])
		if err != nil {
			return "", err
		}
		v, err := strconv.ParseUint(args[3], 0, 16)
		if err != nil {
			return "", fmt.Errorf("%w: %v", errBadArg, err)
		}
		return "OK", dev.WriteObj(ctx, obj, idx, uint16(v))

	case "str", "ustr":
		if err := need(1); err != nil {
			return "", err
		}
		idx, err := parseByte(args[1])
		if err != nil {
			return "", err
		}
		text := rest(line, 2)
		if args[0] == "ustr" {
			return "OK", dev.WriteStrU(ctx, idx, text)
		}
		return "OK", dev.WriteStr(ctx, idx, text)

	case "contrast":
		if err := need(1); err != nil {
			return "", err
		}
		v, err := parseByte(args[1])
		if err != nil {
			return "", err
		}
		return "OK", dev.WriteContrast(ctx, v)

	case "widget":
		if err := need(1); err != nil {
			return "", err
		}
		if len(args) > 2 {
			v, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return "", fmt.Errorf("%w: %v", errBadArg, err)
			}
			return "OK", dev.WriteWidget(ctx, args[1], v)
		}
		v, err := dev.ReadWidget(ctx, args[1])
		if err != nil {
			return "", err
		}
		wd := *dev.Widgets[args[1]]
		return fmt.Sprintf("%g %s", v, wd.Unit), nil

	case "widgets":
		return shellJSON(dev.Widgets)

	case "replies":
		reports, magic := pendingReplies()
		return shellJSON(struct {
			Reports []genie.Frame      `json:"reports"`
			Magic   []genie.MagicFrame `json:"magic"`
		}{reports, magic})

	case "stats":
		return shellJSON(dev.Stats())
	}
	return "", fmt.Errorf("%w: unknown command %q, try help", errBadArg, args[0])
}
