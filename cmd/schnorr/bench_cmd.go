package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"schnorrd/pkg/schnorr"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

type durationStats struct {
	Runs   int     `json:"runs"`
	MeanMs float64 `json:"mean_ms"`
	P50Ms  float64 `json:"median_ms"`
	P95Ms  float64 `json:"p95_ms"`
	StdMs  float64 `json:"stddev_ms"`
	MinMs  float64 `json:"min_ms"`
	MaxMs  float64 `json:"max_ms"`
}

type benchReport struct {
	Level      string        `json:"level"`
	Hash       string        `json:"hash"`
	Failures   int           `json:"generation_failures"`
	Generation durationStats `json:"generation"`
	Sign       durationStats `json:"sign"`
	Verify     durationStats `json:"verify"`
}

// summarize reduces durations to millisecond statistics.
func summarize(durations []time.Duration) (durationStats, error) {
	if len(durations) == 0 {
		return durationStats{}, errors.New("no samples")
	}
	values := make(stats.Float64Data, len(durations))
	for i, d := range durations {
		values[i] = float64(d.Nanoseconds()) / 1e6
	}
	mean, err := values.Mean()
	if err != nil {
		return durationStats{}, err
	}
	median, _ := values.Median()
	p95, _ := values.Percentile(95)
	stddev, _ := values.StandardDeviation()
	minimum, _ := values.Min()
	maximum, _ := values.Max()
	return durationStats{
		Runs:   len(durations),
		MeanMs: mean,
		P50Ms:  median,
		P95Ms:  p95,
		StdMs:  stddev,
		MinMs:  minimum,
		MaxMs:  maximum,
	}, nil
}

func runBench(args []string) int {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var levelName string
	var runs int
	var parallel int
	var hashName string
	var messageBytes int
	fs.StringVar(&levelName, "level", "1024", "security level")
	fs.IntVar(&runs, "runs", 5, "number of runs per operation")
	fs.IntVar(&parallel, "parallel", 1, "concurrent parameter generations")
	fs.StringVar(&hashName, "hash", string(schnorr.DefaultHash), "challenge hash")
	fs.IntVar(&messageBytes, "message-bytes", 4096, "size of the signed message")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if runs <= 0 || parallel <= 0 || messageBytes < 0 {
		fmt.Fprintln(stderr, "--runs and --parallel must be positive")
		return 1
	}
	level, err := schnorr.ParseSecurityLevel(levelName)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	hash, err := schnorr.ParseHashAlgorithm(hashName)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params, genTimes, failures, err := benchGenerate(ctx, level, runs, parallel)
	if err != nil {
		fmt.Fprintf(stderr, "generate: %v\n", err)
		return 1
	}
	engine, err := schnorr.NewEngine(params, schnorr.WithHash(hash))
	if err != nil {
		fmt.Fprintf(stderr, "engine: %v\n", err)
		return 1
	}
	message := make([]byte, messageBytes)
	if _, err := rand.Read(message); err != nil {
		fmt.Fprintf(stderr, "message: %v\n", err)
		return 1
	}
	signTimes, verifyTimes, err := benchSignVerify(engine, message, runs)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	report := benchReport{Level: level.String(), Hash: string(hash), Failures: failures}
	for _, part := range []struct {
		dst     *durationStats
		samples []time.Duration
	}{
		{&report.Generation, genTimes},
		{&report.Sign, signTimes},
		{&report.Verify, verifyTimes},
	} {
		s, err := summarize(part.samples)
		if err != nil {
			fmt.Fprintf(stderr, "summarize: %v\n", err)
			return 1
		}
		*part.dst = s
	}
	return writeJSON(report)
}

// benchGenerate runs n generations, at most parallel at a time. Generation failures are
// counted, not fatal; the first successful parameter set is returned.
func benchGenerate(ctx context.Context, level schnorr.SecurityLevel, n, parallel int) (*schnorr.Parameters, []time.Duration, int, error) {
	var (
		mu       sync.Mutex
		first    *schnorr.Parameters
		times    []time.Duration
		failures int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			start := time.Now()
			params, err := schnorr.NewGenerator().Generate(gctx, level)
			took := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, schnorr.ErrParameterGeneration) {
				failures++
				return nil
			}
			if err != nil {
				return err
			}
			times = append(times, took)
			if first == nil {
				first = params
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, failures, err
	}
	if first == nil {
		return nil, nil, failures, fmt.Errorf("all %d generations failed", n)
	}
	return first, times, failures, nil
}

func benchSignVerify(engine *schnorr.Engine, message []byte, n int) ([]time.Duration, []time.Duration, error) {
	signTimes := make([]time.Duration, 0, n)
	verifyTimes := make([]time.Duration, 0, n)
	for i := 0; i < n; i++ {
		start := time.Now()
		rec, err := engine.SignReader(bytes.NewReader(message))
		if err != nil {
			return nil, nil, fmt.Errorf("sign: %w", err)
		}
		signTimes = append(signTimes, time.Since(start))

		start = time.Now()
		ok, err := engine.VerifyReader(bytes.NewReader(message), *rec)
		if err != nil {
			return nil, nil, fmt.Errorf("verify: %w", err)
		}
		if !ok {
			return nil, nil, errors.New("verify: signature did not verify")
		}
		verifyTimes = append(verifyTimes, time.Since(start))
	}
	return signTimes, verifyTimes, nil
}
