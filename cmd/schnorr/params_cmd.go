package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"schnorrd/internal/config"
	"schnorrd/internal/infra/paramfile"
	"schnorrd/internal/logging"
	"schnorrd/internal/orchestrator/workflows"
	"schnorrd/internal/usecase"
	"schnorrd/pkg/schnorr"

	"go.temporal.io/sdk/client"
)

type paramsOutput struct {
	Level string `json:"level"`
	P     string `json:"p"`
	Q     string `json:"q"`
	A     string `json:"a"`
	File  string `json:"file,omitempty"`
}

func toParamsOutput(params *schnorr.Parameters, file string) paramsOutput {
	return paramsOutput{
		Level: params.Level().String(),
		P:     params.P().Text(16),
		Q:     params.Q().Text(16),
		A:     params.A().Text(16),
		File:  file,
	}
}

func runParamsGenerate(args []string) int {
	fs := flag.NewFlagSet("params generate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var levelName string
	var outPath string
	var certainty int
	var maxSteps int
	var attempts int
	var verbose bool
	fs.StringVar(&levelName, "level", "1024", "security level (1024, 2048, 3072)")
	fs.StringVar(&outPath, "out", "", "parameter file to write (default stdout only)")
	fs.IntVar(&certainty, "certainty", schnorr.DefaultCertainty, "primality certainty")
	fs.IntVar(&maxSteps, "max-steps", schnorr.DefaultMaxSteps, "search bound per factor")
	fs.IntVar(&attempts, "attempts", 3, "generation attempts")
	fs.BoolVar(&verbose, "v", false, "log generation progress")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	level, err := schnorr.ParseSecurityLevel(levelName)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	logLevel := "warn"
	if verbose {
		logLevel = "debug"
	}
	log := logging.NewWithOutput(stderr, logLevel, "text")

	var store usecase.ParameterStore
	if outPath != "" {
		store = paramfile.NewStore(outPath, certainty)
	}
	svc := usecase.NewParamService(schnorr.NewGenerator(
		schnorr.WithCertainty(certainty),
		schnorr.WithMaxSteps(maxSteps),
		schnorr.WithLogger(log),
	), store, 1)
	svc.Attempts = attempts
	svc.Logger = log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	params, err := svc.Generate(ctx, usecase.GenerateParamsRequest{Level: level, Persist: store != nil})
	if err != nil {
		fmt.Fprintf(stderr, "generate parameters: %v\n", err)
		return 1
	}
	return writeJSON(toParamsOutput(params, outPath))
}

func runParamsShow(args []string) int {
	fs := flag.NewFlagSet("params show", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var inPath string
	var certainty int
	fs.StringVar(&inPath, "in", "", "parameter file")
	fs.IntVar(&certainty, "certainty", schnorr.DefaultCertainty, "primality certainty used for validation")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" {
		fmt.Fprintln(stderr, "params show requires --in")
		return 1
	}
	params, err := paramfile.NewStore(inPath, certainty).Load()
	if err != nil {
		fmt.Fprintf(stderr, "load parameters: %v\n", err)
		return 1
	}
	return writeJSON(toParamsOutput(params, inPath))
}

// runParamsSchedule starts the parameter workflow on Temporal and waits for its result.
func runParamsSchedule(args []string) int {
	cfg := config.FromEnv()
	fs := flag.NewFlagSet("params schedule", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var levelName string
	var outPath string
	var reload bool
	var address string
	var namespace string
	var taskQueue string
	var timeout time.Duration
	fs.StringVar(&levelName, "level", cfg.SecurityLevel, "security level")
	fs.StringVar(&outPath, "out", "", "parameter file the worker writes")
	fs.BoolVar(&reload, "reload", false, "ask schnorrd to reload after saving")
	fs.StringVar(&address, "temporal", cfg.TemporalAddress, "temporal frontend address")
	fs.StringVar(&namespace, "namespace", cfg.TemporalNamespace, "temporal namespace")
	fs.StringVar(&taskQueue, "task-queue", cfg.TemporalTaskQueue, "temporal task queue")
	fs.DurationVar(&timeout, "timeout", 30*time.Minute, "how long to wait for the result")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	level, err := schnorr.ParseSecurityLevel(levelName)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	if reload && outPath == "" {
		fmt.Fprintln(stderr, "--reload requires --out")
		return 1
	}
	if outPath != "" {
		if abs, err := filepath.Abs(outPath); err == nil {
			outPath = abs
		}
	}

	c, err := client.Dial(client.Options{HostPort: address, Namespace: namespace})
	if err != nil {
		fmt.Fprintf(stderr, "connect temporal: %v\n", err)
		return 1
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	we, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflows.WorkflowID(level.String()),
		TaskQueue: taskQueue,
	}, workflows.GenerateParametersWorkflow, workflows.GenerateParametersInput{
		Level:        level.String(),
		Certainty:    cfg.PrimeCertainty,
		MaxSteps:     cfg.GenerationMaxSteps,
		Attempts:     cfg.GenerationAttempts,
		ParamsFile:   outPath,
		ReloadServer: reload,
	})
	if err != nil {
		fmt.Fprintf(stderr, "start workflow: %v\n", err)
		return 1
	}
	var result workflows.GenerateParametersResult
	if err := we.Get(ctx, &result); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			fmt.Fprintf(stderr, "workflow %s still running\n", we.GetID())
			return 1
		}
		fmt.Fprintf(stderr, "workflow failed: %v\n", err)
		return 1
	}
	return writeJSON(map[string]any{
		"workflow_id": we.GetID(),
		"run_id":      we.GetRunID(),
		"level":       result.Params.Level,
		"p":           result.Params.P,
		"q":           result.Params.Q,
		"a":           result.Params.A,
		"saved":       result.Saved,
		"reloaded":    result.Reloaded,
	})
}
