package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "params":
		if len(args) >= 3 {
			switch args[2] {
			case "generate":
				return runParamsGenerate(args[3:])
			case "show":
				return runParamsShow(args[3:])
			case "schedule":
				return runParamsSchedule(args[3:])
			}
		}
	case "sign":
		return runSign(args[2:])
	case "verify":
		return runVerify(args[2:])
	case "bench":
		return runBench(args[2:])
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "schnorr"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(stderr, "usage:\n")
	fmt.Fprintf(stderr, "  %s params generate --level <1024|2048|3072> [--out <file>] [--certainty <n>] [--max-steps <n>] [--attempts <n>]\n", name)
	fmt.Fprintf(stderr, "  %s params show --in <file> [--certainty <n>]\n", name)
	fmt.Fprintf(stderr, "  %s params schedule --level <level> [--out <file>] [--reload] [--temporal <host:port>] [--namespace <ns>] [--task-queue <queue>]\n", name)
	fmt.Fprintf(stderr, "  %s sign --server <url> (--message <text>|--in <file|->)\n", name)
	fmt.Fprintf(stderr, "  %s verify --server <url> --id <id> (--message <text>|--in <file|->)\n", name)
	fmt.Fprintf(stderr, "  %s bench --level <level> [--runs <n>] [--parallel <k>] [--hash <alg>] [--message-bytes <n>]\n", name)
}

// openMessage resolves --message/--in. "-" reads stdin.
func openMessage(message, inPath string) (io.ReadCloser, error) {
	switch {
	case message != "" && inPath != "":
		return nil, fmt.Errorf("use either --message or --in")
	case message != "":
		return io.NopCloser(strings.NewReader(message)), nil
	case inPath == "-":
		return io.NopCloser(stdin), nil
	case inPath != "":
		return os.Open(inPath)
	default:
		return nil, fmt.Errorf("--message or --in is required")
	}
}

func writeJSON(v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "encode output: %v\n", err)
		return 1
	}
	return 0
}
