package main

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ryandielhenn/das/internal/config"
)

const version = "0.1.0"

var (
	cfgFile    string
	host       string
	target     string
	statusAddr string
	etcd       []string
	pacing     time.Duration
	grace      time.Duration
	verbose    bool
)

var rootCLI = &cobra.Command{
	Use:   "das <port> <value>",
	Short: "Distributed averaging over UDP broadcast",
	Long: `The first process to bind <port> becomes the master and collects values.
Every later process becomes a slave, sends <value> to the master once and exits.
A value of 0 asks the master to broadcast the average, -1 shuts the network down.`,
	Version:       version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// ExecuteCLI runs the root command and exits 1 on any error.
func ExecuteCLI() {
	rootCLI.SetArgs(splitArgs(rootCLI.Flags(), os.Args[1:]))
	if err := rootCLI.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	f := rootCLI.Flags()
	f.StringVarP(&cfgFile, "config", "c", "", "TOML config file")
	f.StringVar(&host, "host", "", "host name or address used for discovery (default: this machine's hostname)")
	f.StringVar(&target, "target", config.TargetLocal, `where a slave sends: "local", "broadcast" or an IP address`)
	f.StringVar(&statusAddr, "status-addr", "", "serve /healthz, /info and /metrics on this address when master")
	f.StringSliceVar(&etcd, "etcd", nil, "etcd endpoints used to publish and find the master")
	f.DurationVar(&pacing, "pacing", 100*time.Millisecond, "pause after every send")
	f.DurationVar(&grace, "grace", 500*time.Millisecond, "wait after broadcasting termination")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Distributed Averaging System (DAS)")
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, "1. Start master:   das PORT NUMBER")
	fmt.Fprintln(w, "2. Add slave:      das PORT NUMBER")
	fmt.Fprintln(w, "3. Calculate avg:  das PORT 0")
	fmt.Fprintln(w, "4. Terminate:      das PORT -1")
	fmt.Fprintln(w, "----------------------------------------")
}

// parseArgs validates the two positional arguments.
func parseArgs(args []string) (port int, value int64, err error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("required exactly 2 arguments, got %d", len(args))
	}
	port, err = strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("port must be an integer: %q", args[0])
	}
	if err := config.ValidatePort(port); err != nil {
		return 0, 0, err
	}
	value, err = strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("value must be an integer: %q", args[1])
	}
	return port, value, nil
}

// applyFlags lets flags the user set explicitly override the config file.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("host") {
		cfg.Host = host
	}
	if fs.Changed("target") {
		cfg.Target = target
	}
	if fs.Changed("status-addr") {
		cfg.StatusAddr = statusAddr
	}
	if fs.Changed("etcd") {
		cfg.Etcd = etcd
	}
	if fs.Changed("pacing") {
		cfg.Pacing = pacing
	}
	if fs.Changed("grace") {
		cfg.Grace = grace
	}
	if fs.Changed("verbose") {
		cfg.Verbose = verbose
	}
}

var negInt = regexp.MustCompile(`^-[0-9]+$`)

// splitArgs moves positional arguments behind "--" when one of them is a
// negative number, so pflag does not read "-1" as a shorthand flag.
func splitArgs(fs *pflag.FlagSet, args []string) []string {
	var flags, pos []string
	neg := false
loop:
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			pos = append(pos, args[i+1:]...)
			break loop
		case negInt.MatchString(a):
			pos = append(pos, a)
			neg = true
		case len(a) > 1 && strings.HasPrefix(a, "-"):
			flags = append(flags, a)
			if !strings.Contains(a, "=") && takesValue(fs, a) && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		default:
			pos = append(pos, a)
		}
	}
	if !neg {
		return args
	}
	out := append(flags, "--")
	return append(out, pos...)
}

func takesValue(fs *pflag.FlagSet, arg string) bool {
	var f *pflag.Flag
	if name, ok := strings.CutPrefix(arg, "--"); ok {
		f = fs.Lookup(name)
	} else {
		f = fs.ShorthandLookup(arg[1:2])
		if len(arg) > 2 {
			// -cfile carries its value inline
			return false
		}
	}
	return f != nil && f.NoOptDefVal == ""
}
