package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"schnorrd/api/clients/schnorrd"
)

// exitInvalid is returned by verify when the signature does not match.
const exitInvalid = 2

func runSign(args []string) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var server string
	var message string
	var inPath string
	var timeout time.Duration
	fs.StringVar(&server, "server", "http://localhost:8080", "schnorrd base url")
	fs.StringVar(&message, "message", "", "message text")
	fs.StringVar(&inPath, "in", "", "message file (- for stdin)")
	fs.DurationVar(&timeout, "timeout", time.Minute, "request timeout")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	body, err := openMessage(message, inPath)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	sig, err := schnorrd.NewClient(server).Sign(ctx, body)
	if err != nil {
		fmt.Fprintf(stderr, "sign: %v\n", err)
		return 1
	}
	return writeJSON(sig)
}

func runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var server string
	var id string
	var message string
	var inPath string
	var timeout time.Duration
	fs.StringVar(&server, "server", "http://localhost:8080", "schnorrd base url")
	fs.StringVar(&id, "id", "", "signature id")
	fs.StringVar(&message, "message", "", "message text")
	fs.StringVar(&inPath, "in", "", "message file (- for stdin)")
	fs.DurationVar(&timeout, "timeout", time.Minute, "request timeout")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if id == "" {
		fmt.Fprintln(stderr, "verify requires --id")
		return 1
	}

	body, err := openMessage(message, inPath)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	res, err := schnorrd.NewClient(server).Verify(ctx, id, body)
	if err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		return 1
	}
	if code := writeJSON(res); code != 0 {
		return code
	}
	if !res.Valid {
		return exitInvalid
	}
	return 0
}
