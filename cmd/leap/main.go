// Command leap edits and bakes leap scenes from the command line.
//
// Edits are applied to a scene file's timeline and saved to the edit
// database, so later commands on the same scene see them.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/phanxgames/leap"
	"github.com/phanxgames/leap/scene"
	"github.com/phanxgames/leap/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the global flags and the state built from them.
type app struct {
	verbose    bool
	configPath string
	dbPath     string

	cfg    leap.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "leap",
		Short: "leap - layered animation timeline editor",
		Long: `leap schedules animation instances on a layered timeline, retimes them
with timewarps, edits gaze shifts and bakes the composited result.

Every command takes a scene file. Gaze and timewarp edits are stored in the
edit database and reapplied whenever the scene is opened again.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := leap.DefaultConfig()
			if a.configPath != "" {
				var err error
				cfg, err = leap.LoadConfig(a.configPath)
				if err != nil {
					return err
				}
			}
			if a.verbose {
				cfg.Logging.Level = zapcore.DebugLevel.String()
			}
			if a.dbPath != "" {
				cfg.Store.Path = a.dbPath
			}
			logger, err := cfg.NewLogger()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: built-in defaults)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "Edit database path (overrides the config)")

	root.AddCommand(a.scheduleCmd())
	root.AddCommand(a.gazeCmd())
	root.AddCommand(a.timewarpCmd())
	root.AddCommand(a.bakeCmd())
	root.AddCommand(a.bakesCmd())
	root.AddCommand(a.runCmd())
	return root
}

// open loads a scene and reapplies its stored edits. The caller closes the
// returned store.
func (a *app) open(ctx context.Context, path string) (*scene.Workspace, *store.Store, error) {
	w, err := scene.Load(path, a.cfg, a.logger)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(ctx, a.cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	st.SetLogger(a.logger)
	if err := w.Restore(ctx, st); err != nil {
		st.Close()
		return nil, nil, err
	}
	return w, st, nil
}

// edit opens a scene, applies fn and saves the edits.
func (a *app) edit(cmd *cobra.Command, path string, fn func(w *scene.Workspace) error) error {
	ctx := cmd.Context()
	w, st, err := a.open(ctx, path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := fn(w); err != nil {
		return err
	}
	if err := w.Persist(ctx, st); err != nil {
		return err
	}
	a.logger.Debug("edits saved", zap.String("scene", w.Name), zap.String("db", st.Path()))
	return nil
}

func (a *app) scheduleCmd() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "schedule <scene>",
		Short: "Print the layered schedule of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, st, err := a.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer st.Close()
			fmt.Fprintln(cmd.OutOrStdout(), renderSchedule(w.Timeline, width))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 60, "Bar width in cells")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
