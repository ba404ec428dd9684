// Package main is the command line interface for inspecting and editing
// uritree files.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dshills/uritree/internal/store"
	"github.com/tidwall/pretty"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	file      string
	allowExec bool
	mergeEnv  bool
	envPrefix string
	args      []string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if len(opts.args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no command given")
		flag.Usage()
		return 1
	}

	storeOpts := []store.Option{
		store.WithExecutableConfig(opts.allowExec),
	}
	if opts.envPrefix != "" {
		storeOpts = append(storeOpts, store.WithEnvPrefix(opts.envPrefix))
	}

	s, err := store.New(storeOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer s.Close()

	if opts.file != "" {
		if _, err := s.Load(opts.file); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if opts.mergeEnv {
		if err := s.MergeEnv(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	command, args := opts.args[0], opts.args[1:]
	if err := dispatch(s, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func dispatch(s *store.Store, command string, args []string) error {
	switch command {
	case "get":
		return cmdGet(s, args)
	case "set":
		return cmdSet(s, args)
	case "remove":
		return cmdRemove(s, args)
	case "exists":
		return cmdExists(s, args)
	case "keys":
		return cmdKeys(s)
	case "dump":
		s.Dump(os.Stdout)
		return nil
	case "convert":
		return cmdConvert(s, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdGet(s *store.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: get <path>")
	}
	value := s.Get(args[0])
	if value == nil {
		return fmt.Errorf("path %q not found", args[0])
	}
	return printValue(value)
}

func cmdSet(s *store.Store, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set <path> <value>")
	}
	if err := s.Set(args[0], parseValue(args[1])); err != nil {
		return err
	}
	if s.Path() != "" {
		return s.Save("")
	}
	return nil
}

func cmdRemove(s *store.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: remove <path>")
	}
	s.Remove(args[0])
	if s.Path() != "" {
		return s.Save("")
	}
	return nil
}

func cmdExists(s *store.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: exists <path>")
	}
	fmt.Println(s.Exists(args[0]))
	return nil
}

func cmdKeys(s *store.Store) error {
	for _, key := range s.Keys() {
		fmt.Println(key)
	}
	return nil
}

func cmdConvert(s *store.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: convert <output-file>")
	}
	if s.Path() == "" {
		return fmt.Errorf("convert requires a loaded file (use -f)")
	}
	return s.Save(args[0])
}

// printValue renders scalars plainly and structured values as indented JSON.
func printValue(value any) error {
	switch value.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		opts := &pretty.Options{Indent: "   ", SortKeys: true}
		os.Stdout.Write(pretty.PrettyOptions(data, opts))
		return nil
	default:
		fmt.Println(value)
		return nil
	}
}

// parseValue interprets a command line value as JSON when possible, falling
// back to a plain string. "5432" becomes a number, "true" a bool, and
// `{"a":1}` a mapping.
func parseValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.file, "file", "", "Tree file to load (json, toml, yaml, or lua)")
	flag.StringVar(&opts.file, "f", "", "Tree file to load (shorthand)")
	flag.BoolVar(&opts.allowExec, "exec", false, "Allow loading executable .lua config files")
	flag.BoolVar(&opts.mergeEnv, "env", false, "Overlay environment variables onto the tree")
	flag.StringVar(&opts.envPrefix, "env-prefix", "", "Environment variable prefix (default URITREE_)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "uritree - path-addressed tree store\n\n")
		fmt.Fprintf(os.Stderr, "Usage: uritree [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  get <path>             Print the value at a path\n")
		fmt.Fprintf(os.Stderr, "  set <path> <value>     Set a value (JSON or plain string)\n")
		fmt.Fprintf(os.Stderr, "  remove <path>          Delete a path\n")
		fmt.Fprintf(os.Stderr, "  exists <path>          Report whether a path resolves\n")
		fmt.Fprintf(os.Stderr, "  keys                   List top-level keys\n")
		fmt.Fprintf(os.Stderr, "  dump                   Print a diagnostic tree rendering\n")
		fmt.Fprintf(os.Stderr, "  convert <output-file>  Re-save the tree in another format\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  uritree -f app.json get db/host\n")
		fmt.Fprintf(os.Stderr, "  uritree -f app.json set db/port 5432\n")
		fmt.Fprintf(os.Stderr, "  uritree -f app.toml convert app.yaml\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("uritree %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	opts.args = flag.Args()
	return opts
}
