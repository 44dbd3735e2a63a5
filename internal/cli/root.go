// Package cli implements the fsrs command, a thin driver over the same
// boundary layer the shared library exports.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sky-flux/flux-ffi/internal/abi"
	"github.com/sky-flux/flux-ffi/internal/config"
	"github.com/sky-flux/flux-ffi/internal/logging"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	format     string
	logLevel   string
	configFile string

	cfg config.Config
	log *zap.Logger
	rt  *abi.Runtime
}

// NewRootCmd returns the top-level command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "fsrs",
		Short:         "FSRS scheduling and parameter fitting",
		Long:          "Compute next review states, replay review histories and fit FSRS parameters from a review log.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.format, "format", "f", "json", "Output format: json or yaml")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (default: $FSRS_LOG_LEVEL or warn)")
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Config file (default: $FSRS_CONFIG_FILE)")

	root.AddCommand(
		newNextCmd(a),
		newMemoryCmd(a),
		newTrainCmd(a),
		newParamsCmd(a),
	)
	return root
}

// Execute runs the command line and returns the error, if any.
func Execute(args []string, stdout, stderr io.Writer) error {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func (a *app) setup() error {
	switch a.format {
	case "json", "yaml":
	default:
		return fmt.Errorf("unsupported format %q: want json or yaml", a.format)
	}

	var err error
	if a.configFile != "" {
		a.cfg, err = config.LoadFromPath(a.configFile)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		a.cfg.LogLevel = strings.ToLower(a.logLevel)
	}

	a.log, err = logging.New(a.cfg.Environment, a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.rt = abi.NewRuntime(a.cfg, a.log)
	return nil
}

// print writes v to the command's output in the selected format.
func (a *app) print(cmd *cobra.Command, v any) error {
	w := cmd.OutOrStdout()
	switch a.format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
}

// check annotates a boundary error with the status the matching C entry
// point would have returned.
func check(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %s: %w", op, abi.StatusOf(err), err)
}
