package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

func init() {
	// glfw and GL calls must stay on the main thread
	runtime.LockOSThread()
}

type backend string

const (
	backendGL   backend = "gl"
	backendSoft backend = "soft"
)

func (b *backend) String() string {
	return string(*b)
}

func (b *backend) Set(s string) error {
	switch backend(s) {
	case backendGL, backendSoft:
		*b = backend(s)
	default:
		return fmt.Errorf("%s is not a valid backend; gl or soft", s)
	}
	return nil
}

// size is a WIDTHxHEIGHT pair.
type size struct {
	width, height int
}

func (sz *size) String() string {
	if sz.width == 0 && sz.height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", sz.width, sz.height)
}

func (sz *size) Set(s string) error {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return fmt.Errorf("%q is not WIDTHxHEIGHT", s)
	}
	var err error
	if sz.width, err = strconv.Atoi(w); err != nil {
		return err
	}
	if sz.height, err = strconv.Atoi(h); err != nil {
		return err
	}
	if sz.width <= 0 || sz.height <= 0 {
		return fmt.Errorf("%q must be positive", s)
	}
	return nil
}

// idList collects comma separated filter ids; the flag may repeat.
type idList []string

func (l *idList) String() string {
	return strings.Join(*l, ",")
}

func (l *idList) Set(s string) error {
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			*l = append(*l, id)
		}
	}
	return nil
}

type commonArgs struct {
	backend backend
	shaders string
	cache   string
	preset  string
	main    string
	before  idList
	after   idList
	maxSize int
	supress bool
}

var cargs *commonArgs

type command struct {
	Run   func(self *command)
	Name  string
	Help  string
	Flags *flag.FlagSet
}

var commands = []*command{}

func printGeneralUsage() {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [arguments]\n\n", exe)
	fmt.Fprintf(os.Stderr, "The commands are:\n\n")
	longest := slices.MaxFunc(commands, func(a, b *command) int {
		return len(a.Name) - len(b.Name)
	})
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "    %*s%s\n", -len(longest.Name)-4, c.Name, c.Help)
	}
	fmt.Fprintln(os.Stderr, "")
	os.Exit(1)
}

func printCommandUsage(cmd *command, suffix string) {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s %s [arguments]%s\n\n", exe, cmd.Name, suffix)
	fmt.Fprintf(os.Stderr, "The arguments are:\n\n")
	cmd.Flags.SetOutput(os.Stderr)
	cmd.Flags.PrintDefaults()
	os.Exit(1)
}

func main() {
	commands = append(commands, createRenderCommand())
	commands = append(commands, createViewCommand())
	commands = append(commands, createFiltersCommand())

	slices.SortFunc(commands, func(a, b *command) int {
		return strings.Compare(a.Name, b.Name)
	})

	if len(os.Args) < 2 {
		printGeneralUsage()
	}

	var cmd *command
	for _, c := range commands {
		if strings.EqualFold(c.Name, os.Args[1]) {
			cmd = c
			break
		}
	}
	if cmd == nil {
		printGeneralUsage()
	}

	mergeLogFlags(cmd.Flags)
	harderr(cmd.Flags.Parse(os.Args[2:]))
	// glog complains about logging before the global flag set is parsed
	harderr(flag.CommandLine.Parse(nil))

	cmd.Run(cmd)
}

// mergeLogFlags exposes the glog flags of the global flag set on a subcommand.
func mergeLogFlags(flags *flag.FlagSet) {
	flag.CommandLine.VisitAll(func(f *flag.Flag) {
		if flags.Lookup(f.Name) == nil {
			flags.Var(f.Value, f.Name, f.Usage)
		}
	})
}

func registerCommonFlags(flags *flag.FlagSet, args *commonArgs) {
	flags.Var(&args.backend, "backend", "the rendering backend; gl or soft")
	flags.Var(&args.backend, "b", "shorthand for backend")
	flags.StringVar(&args.shaders, "shaders", args.shaders, "a directory with shader overrides")
	flags.StringVar(&args.cache, "shader-cache", args.cache, "a directory for linked shader binaries")
	flags.StringVar(&args.preset, "preset", args.preset, "a toml preset file")
	flags.StringVar(&args.main, "main", args.main, "the main filter id")
	flags.Var(&args.before, "before", "filter ids applied before the main filter")
	flags.Var(&args.after, "after", "filter ids applied after the main filter")
	flags.IntVar(&args.maxSize, "max-size", args.maxSize, "the maximum long side of the canvas in px; 0 keeps the image size")
	flags.BoolVar(&args.supress, "supress", args.supress, "disables soft error logging")
}

func setCommonArgs(args *commonArgs) {
	cargs = args
	if args.maxSize < 0 {
		harderr(fmt.Errorf("max-size must not be negative"))
	}
}

func gatherInputFiles(globs []string) []string {
	matched := []string{}
	for _, g := range globs {
		m, err := filepath.Glob(g)
		softerr(err)
		matched = append(matched, m...)
	}
	return matched
}

func softerr(err error) bool {
	if err != nil && (cargs == nil || !cargs.supress) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return true
	}
	return err != nil
}

func harderr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
