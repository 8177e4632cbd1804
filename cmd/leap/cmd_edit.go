package main

import (
	"fmt"

	"github.com/phanxgames/leap"
	"github.com/phanxgames/leap/scene"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) timewarpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timewarp",
		Short: "Edit the timewarps of a scene",
	}

	var rec leap.Record
	var origLength int
	var keyTime, easeLength float64
	add := &cobra.Command{
		Use:   "add <scene>",
		Short: "Add a timewarp to a subject's track on a layer",
		Example: `  leap timewarp add scene.yaml --layer Base --subject Norman --kind Hold --start 10 --length 5
  leap timewarp add scene.yaml --layer Base --subject Norman --kind MovingHold --start 20 \
      --orig-length 20 --length 40 --key-time 0.5 --ease-length 0.3 --track Gaze`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec.Params = map[string]float64{
				"orig_length": float64(origLength),
				"key_time":    keyTime,
				"ease_length": easeLength,
			}
			return a.edit(cmd, args[0], func(w *scene.Workspace) error {
				n, err := w.Timeline.LoadTimewarpRecords([]leap.Record{rec})
				if err != nil {
					return err
				}
				if n == 0 {
					return &leap.PreconditionError{Op: "add timewarp", Err: leap.ErrUnknownSubject, Detail: rec.Subject}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "timeline is %d frames (%d original)\n",
					w.Timeline.FrameLength(), w.Timeline.OriginalFrameLength())
				return nil
			})
		},
	}
	add.Flags().StringVar(&rec.Layer, "layer", "", "Layer (required)")
	add.Flags().StringVar(&rec.Subject, "subject", "", "Subject (required)")
	add.Flags().StringVar(&rec.Track, "track", "All", "Track to warp")
	add.Flags().StringVar(&rec.Kind, "kind", "Hold", "Hold, Linear or MovingHold")
	add.Flags().IntVar(&rec.StartFrame, "start", 0, "Original start frame")
	add.Flags().IntVar(&rec.FrameLength, "length", 0, "Warped length in frames (required)")
	add.Flags().IntVar(&origLength, "orig-length", 1, "Original length in frames")
	add.Flags().Float64Var(&keyTime, "key-time", 0.5, "MovingHold key time in [0,1]")
	add.Flags().Float64Var(&easeLength, "ease-length", 0.3, "MovingHold ease length in [0,1]")
	add.MarkFlagRequired("layer")
	add.MarkFlagRequired("subject")
	add.MarkFlagRequired("length")

	cmd.AddCommand(add)
	return cmd
}

func (a *app) bakeCmd() *cobra.Command {
	var name string
	var start, length int
	cmd := &cobra.Command{
		Use:   "bake <scene>",
		Short: "Bake a frame range and store the result",
		Long:  "Bake replays a frame range of the scene into flat curves and stores them. A zero length bakes the whole timeline.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, st, err := a.open(ctx, args[0])
			if err != nil {
				return err
			}
			defer st.Close()

			var b *leap.BakeContainer
			if length == 0 {
				b, err = w.Timeline.BakeAll(name)
			} else {
				b, err = w.Timeline.Bake(name, start, length)
			}
			if err != nil {
				return err
			}
			id, err := st.SaveBake(ctx, w.Name, b)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "baked %q: frames [%d, %d) of %d subjects as %s\n",
				name, b.StartFrame, b.StartFrame+b.FrameLength, len(b.Subjects), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "bake", "Bake name")
	cmd.Flags().IntVar(&start, "start", 0, "First frame")
	cmd.Flags().IntVar(&length, "length", 0, "Frame count (0 bakes everything)")
	return cmd
}

func (a *app) bakesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bakes <scene>",
		Short: "List the stored bakes of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, st, err := a.open(ctx, args[0])
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.ListBakes(ctx, w.Name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderBakes(list))
			return nil
		},
	}
}

func (a *app) runCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "run <scene> <script>",
		Short: "Run an edit script against a scene",
		Long: `Run executes a YAML edit script step by step. Actions: add_gaze,
remove_gaze, set_timing, align, fix_between_shifts, timewarp, bake, play,
stop, goto and advance. With --save the resulting gaze schedule, timewarps
and bakes are stored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, st, err := a.open(ctx, args[0])
			if err != nil {
				return err
			}
			defer st.Close()

			r, err := scene.LoadScript(args[1])
			if err != nil {
				return err
			}
			r.SetLogger(a.logger)
			if err := r.Run(w); err != nil {
				return err
			}
			a.logger.Info("script finished",
				zap.String("scene", w.Name),
				zap.Int("frame", w.Timeline.CurrentFrame()))

			if save {
				if err := w.Persist(ctx, st); err != nil {
					return err
				}
				for _, name := range w.Timeline.Bakes() {
					b, _ := w.Timeline.BakeContainer(name)
					if _, err := st.SaveBake(ctx, w.Name, b); err != nil {
						return err
					}
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSchedule(w.Timeline, 60))
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Store the edits and bakes")
	return cmd
}
