package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/djdarcy/open-ports-and-programs/internal/output"
	"github.com/djdarcy/open-ports-and-programs/internal/resolve"
	"github.com/djdarcy/open-ports-and-programs/internal/scan"
	"github.com/djdarcy/open-ports-and-programs/internal/tui"
)

var version = "dev"

const defaultInterval = 10

func printHelp() {
	fmt.Println("Usage: openports [options]")
	fmt.Println()
	fmt.Println("List open ports and the programs that own them.")
	fmt.Println()
	fmt.Println("  -s, --sort KEY       Sort by PID, Port, or Program (default: Program)")
	fmt.Println("      --pid-sort       Shorthand for --sort PID")
	fmt.Println("  -p, --port-sort      Shorthand for --sort Port")
	fmt.Println("  -b, --bare           Bare tab-delimited output, suitable for scripts")
	fmt.Println("  -l, --listening      Show only listening connections")
	fmt.Println("  -d, --dns            Resolve remote addresses to hostnames")
	fmt.Println("  -r, --regex PATTERN  Keep records whose program name or local port matches")
	fmt.Println("  -P, --proto PROTO    Show only tcp or udp (default: all)")
	fmt.Println("  -c, --continuous [N] Refresh every N seconds (default: 10)")
	fmt.Println("  -i, --interactive    Interactive table (TUI)")
	fmt.Println("      --json           Output records as JSON")
	fmt.Println("      --version        Show version and exit")
	fmt.Println("  -h, --help           Show this help message")
	fmt.Println()
	fmt.Println("Example:")
	fmt.Println("  openports -p -d -r '(chrome|msedge|opera)' -c 5")
}

// normalizeArgs rewrites -c/--continuous so the flag package can parse
// its optional value: "-c 5" becomes "--continuous=5" and a bare "-c"
// becomes "--continuous=10".
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg != "-c" && arg != "--continuous" {
			out = append(out, arg)
			continue
		}
		interval := defaultInterval
		if i+1 < len(args) {
			if n, err := strconv.Atoi(args[i+1]); err == nil && n > 0 {
				interval = n
				i++
			}
		}
		out = append(out, fmt.Sprintf("--continuous=%d", interval))
	}
	return out
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func main() {
	flag.Usage = printHelp
	os.Args = append(os.Args[:1], normalizeArgs(os.Args[1:])...)

	sortFlag := flag.String("sort", "Program", "sort by PID, Port, or Program")
	flag.StringVar(sortFlag, "s", "Program", "sort by PID, Port, or Program")
	pidSort := flag.Bool("pid-sort", false, "sort by PID")
	portSort := flag.Bool("port-sort", false, "sort by Port")
	flag.BoolVar(portSort, "p", false, "sort by Port")
	bare := flag.Bool("bare", false, "bare output")
	flag.BoolVar(bare, "b", false, "bare output")
	listening := flag.Bool("listening", false, "listening connections only")
	flag.BoolVar(listening, "l", false, "listening connections only")
	dns := flag.Bool("dns", false, "resolve remote addresses")
	flag.BoolVar(dns, "d", false, "resolve remote addresses")
	regex := flag.String("regex", "", "program name or port filter pattern")
	flag.StringVar(regex, "r", "", "program name or port filter pattern")
	proto := flag.String("proto", "", "tcp, udp, or all")
	flag.StringVar(proto, "P", "", "tcp, udp, or all")
	continuous := flag.Int("continuous", 0, "refresh interval in seconds, 0 = run once")
	jsonFlag := flag.Bool("json", false, "output as JSON")
	interactive := flag.Bool("interactive", false, "interactive mode")
	flag.BoolVar(interactive, "i", false, "interactive mode")
	versionFlag := flag.Bool("version", false, "show version and exit")

	flag.Parse()

	if *versionFlag {
		fmt.Printf("openports %s\n", version)
		os.Exit(0)
	}
	if args := flag.Args(); len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected argument %q\n\n", args[0])
		printHelp()
		os.Exit(2)
	}

	// All user input is validated before the first OS query, so a bad
	// pattern or sort key can never burn a scan first.
	key, err := scan.ParseSortKey(*sortFlag)
	if err != nil {
		fatal(err)
	}
	if *pidSort {
		key = scan.SortByPID
	} else if *portSort {
		key = scan.SortByPort
	}

	filter, err := scan.NewFilter(*listening, *proto, *regex)
	if err != nil {
		fatal(err)
	}

	interval := time.Duration(*continuous) * time.Second
	source := scan.SystemSource()

	if *interactive {
		tickEvery := 2 * time.Second
		if interval > 0 {
			tickEvery = interval
		}
		if err := tui.Run(source, filter, tickEvery); err != nil {
			fatal(err)
		}
		return
	}

	var resolver *resolve.Resolver
	if *dns {
		resolver = resolve.New()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cycle := func() error {
		records, err := source.Snapshot()
		if err != nil {
			return err
		}
		records = filter.Apply(records)
		if resolver != nil {
			resolver.Annotate(ctx, records)
		}
		scan.Sort(records, key)

		// Render into a buffer and write once, so an interrupt between
		// cycles never leaves a half-printed table.
		var buf bytes.Buffer
		switch {
		case *jsonFlag:
			if err := output.RenderJSON(&buf, records); err != nil {
				return err
			}
		case *bare:
			output.RenderBare(&buf, records)
		default:
			output.NewFullTable(*listening).Render(&buf, records)
		}
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}

	if err := cycle(); err != nil {
		fatal(err)
	}
	if *continuous <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if !*bare && !*jsonFlag {
				fmt.Println("\nMonitoring stopped.")
			}
			return
		case <-ticker.C:
			if err := cycle(); err != nil {
				fatal(err)
			}
		}
	}
}
