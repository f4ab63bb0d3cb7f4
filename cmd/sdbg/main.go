// sdbg - interactive debugger for contract images
// Loads one or more contract images into an embedded execution host and
// drives them from a breakpoint/step command loop, or runs a single
// invocation to completion in batch mode.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sorolabs/sdbg/debugger"
	"github.com/sorolabs/sdbg/host"
	"github.com/sorolabs/sdbg/log"
	"github.com/sorolabs/sdbg/ui"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "sdbg",
		Short:   "Contract image debugger",
		Version: fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		contractPath   string
		functionName   string
		argExpr        string
		extraContracts []string
		cpuLimit       uint64
		memLimit       uint64
		breakpoints    []string
		logLevel       string
		debug          string
		batch          bool
	)

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Load contract images and debug an invocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			log.InitLogger(logLevel)
			if debug != "" {
				log.EnableModules(debug)
			}

			h, err := host.NewHost(cpuLimit, memLimit)
			if err != nil {
				return err
			}
			defer h.Close()

			image, err := os.ReadFile(contractPath)
			if err != nil {
				return fmt.Errorf("read contract image: %w", err)
			}
			name := contractName(contractPath)
			addr, err := h.RegisterContract(name, image)
			if err != nil {
				return fmt.Errorf("load contract %s: %w", contractPath, err)
			}
			fmt.Printf("Loaded contract '%s' at %s\n", name, addr.Hex())

			for _, spec := range extraContracts {
				extraName, path, ok := strings.Cut(spec, "=")
				if !ok {
					return fmt.Errorf("malformed --extra-contract %q, want name=path", spec)
				}
				extraImage, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read extra contract image: %w", err)
				}
				extraAddr, err := h.RegisterContract(extraName, extraImage)
				if err != nil {
					return fmt.Errorf("load extra contract %s: %w", path, err)
				}
				fmt.Printf("Registered extra contract '%s' at %s\n", extraName, extraAddr.Hex())
			}

			engine := debugger.NewEngine(h)
			for _, bp := range breakpoints {
				engine.Breakpoints().Add(bp)
				log.Info(log.DbgMonitoring, "breakpoint preset", "fn", bp)
			}

			if batch {
				return runBatch(engine, functionName, argExpr)
			}

			dbgUI := ui.New(engine)
			if _, err := dbgUI.HandleCommand(startCommand(functionName, argExpr)); err != nil {
				log.Error(log.UIMonitoring, "initial invocation failed", "err", err)
			}
			return dbgUI.Run()
		},
	}

	runCmd.Flags().StringVar(&contractPath, "contract", "", "Path to the primary contract image")
	runCmd.Flags().StringVar(&functionName, "function", "", "Exported function to invoke")
	runCmd.Flags().StringVar(&argExpr, "args", "", "Argument expression, e.g. '[1, \"alice\"]'")
	runCmd.Flags().StringArrayVar(&extraContracts, "extra-contract", nil, "Extra contract as name=path (repeatable)")
	runCmd.Flags().Uint64Var(&cpuLimit, "cpu-limit", 100_000_000, "CPU instruction budget (0 = unmetered)")
	runCmd.Flags().Uint64Var(&memLimit, "mem-limit", 40*1024*1024, "Memory byte budget (0 = unmetered)")
	runCmd.Flags().StringArrayVar(&breakpoints, "break", nil, "Preset breakpoint at function (repeatable)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, crit)")
	runCmd.Flags().StringVar(&debug, "debug", "", "Log modules to enable (comma-separated)")
	runCmd.Flags().BoolVar(&batch, "batch", false, "Run the invocation non-interactively and exit")
	runCmd.MarkFlagRequired("contract")
	runCmd.MarkFlagRequired("function")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runBatch drives a single invocation to completion, resuming through any
// preset breakpoints, and prints the result.
func runBatch(engine *debugger.Engine, fn, argExpr string) error {
	args, err := ui.DecodeArgs(argExpr)
	if err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	result, err := engine.Execute(fn, args)
	if err != nil {
		return renderBatchFailure(err)
	}
	for engine.IsPaused() {
		if err := engine.Continue(); err != nil {
			return renderBatchFailure(err)
		}
	}
	if last, ok := engine.LastResult(); ok {
		result = last
	}
	fmt.Printf("Result: %s\n", result.String())
	return nil
}

func renderBatchFailure(err error) error {
	var fault *debugger.ExecutionFault
	if errors.As(err, &fault) {
		for i, f := range fault.Stack {
			fmt.Fprintf(os.Stderr, "  %*s%s(%s)\n", 2*i, "", f.Function, f.Args)
		}
	}
	return err
}

// contractName derives the registered name of the primary contract from
// its image path, matching how callers name it in XCALL code.
func contractName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// startCommand builds the command that seeds the interactive session with
// the invocation named on the command line.
func startCommand(fn, argExpr string) string {
	if argExpr == "" {
		return "run " + fn
	}
	return "run " + fn + " " + argExpr
}
