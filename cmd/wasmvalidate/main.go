package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bvisness/wasm-validate/decode"
	"github.com/bvisness/wasm-validate/utils"
	"github.com/bvisness/wasm-validate/validate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var jsonOutput bool
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "wasmvalidate <file>",
		Short: "Statically typecheck a WebAssembly binary module",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			logger := utils.Must1(newLogger(verbose))
			defer logger.Sync()

			filename := args[0]
			var f io.Reader
			if filename == "-" {
				f = os.Stdin
			} else {
				file, err := os.Open(filename)
				if err != nil {
					exitWithError("could not open file %s: %v", filename, err)
				}
				defer file.Close()
				f = file
			}

			logger.Info("decoding module", zap.String("file", filename))
			mod, err := decode.Decode(f)
			if err != nil {
				logger.Error("decode failed", zap.Error(err))
				report(jsonOutput, filename, false, err)
				os.Exit(1)
			}

			logger.Info("validating module",
				zap.Int("functions", len(mod.Funcs)),
				zap.Int("types", len(mod.Types)))
			if err := validate.Validate(mod); err != nil {
				logger.Warn("validation rejected module", zap.Error(err))
				report(jsonOutput, filename, false, err)
				os.Exit(1)
			}

			logger.Info("module accepted")
			report(jsonOutput, filename, true, nil)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit the result as a single JSON object instead of text.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log decode/validate progress to stderr.")

	utils.Must(rootCmd.Execute())
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func report(jsonOutput bool, filename string, ok bool, cause error) {
	if jsonOutput {
		msg := ""
		if cause != nil {
			msg = cause.Error()
		}
		fmt.Printf("{\"file\": %q, \"valid\": %t, \"error\": %q}\n", filename, ok, msg)
		return
	}
	if ok {
		fmt.Printf("%s: valid\n", filename)
		return
	}
	fmt.Printf("%s: invalid: %v\n", filename, cause)
}

func exitWithError(msg string, args ...any) {
	msg = fmt.Sprintf(msg, args...)
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", msg)
	os.Exit(1)
}
