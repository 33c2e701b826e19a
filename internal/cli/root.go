// Package cli implements the kintrace command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vanshika/kintrace/internal/config"
	"github.com/vanshika/kintrace/internal/dataset"
	"github.com/vanshika/kintrace/internal/logging"
	"github.com/vanshika/kintrace/internal/service"
)

type app struct {
	file     string
	asJSON   bool
	logLevel string
	logger   *slog.Logger
}

// NewRootCommand builds the kintrace command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "kintrace",
		Short: "Analyse family relationship graphs",
		Long: `kintrace lays out family trees by generation, classifies the kinship
between two people, finds the shortest relational path between them and
splits a family into its connected groups.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.logger = logging.New(config.LoggingConfig{Level: a.logLevel}, cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVarP(&a.file, "file", "f", "", "family dataset (.json, .yaml or .yml)")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "output results as JSON")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(
		a.layoutCmd(),
		a.kinshipCmd(),
		a.pathCmd(),
		a.componentsCmd(),
		a.summaryCmd(),
		a.generateCmd(),
	)
	return root
}

// Execute runs the command line with the given arguments.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// family loads the dataset named by --file and wraps it in a family service.
func (a *app) family() (*service.FamilyService, string, error) {
	if a.file == "" {
		return nil, "", errors.New("a dataset is required: pass --file")
	}
	snap, err := dataset.Load(a.file)
	if err != nil {
		return nil, "", err
	}
	svc := service.NewFamilyService(dataset.NewSource(snap), service.Options{Logger: a.logger})
	return svc, snap.FamilyID, nil
}

// emit writes v as indented JSON under --json, and calls text otherwise.
func (a *app) emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if a.asJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	text(out)
	return nil
}
