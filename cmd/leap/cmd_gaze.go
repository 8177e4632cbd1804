package main

import (
	"fmt"

	"github.com/phanxgames/leap"
	"github.com/phanxgames/leap/scene"
	"github.com/spf13/cobra"
)

func (a *app) gazeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gaze",
		Short: "Edit the gaze schedule of a scene",
	}
	cmd.AddCommand(a.gazeAddCmd())
	cmd.AddCommand(a.gazeRemoveCmd())
	cmd.AddCommand(a.gazeListCmd())
	cmd.AddCommand(a.gazeTimingCmd())
	cmd.AddCommand(a.gazeAlignCmd())
	return cmd
}

func gazeID(w *scene.Workspace, name string) (int, error) {
	id, ok := w.GazeID(name)
	if !ok {
		return 0, &leap.PreconditionError{Op: "find gaze", Err: leap.ErrUnknownInstance, Detail: name}
	}
	return id, nil
}

func (a *app) gazeAddCmd() *cobra.Command {
	var subject, name, target string
	var start, length int
	cmd := &cobra.Command{
		Use:   "add <scene>",
		Short: "Add a gaze shift",
		Example: `  leap gaze add scene.yaml --subject Norman --name look --target camera --start 0 --length 30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, args[0], func(w *scene.Workspace) error {
				id, err := w.AddGaze(name, subject, target, start, length)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added gaze %q (id %d)\n", name, id)
				fmt.Fprintln(cmd.OutOrStdout(), renderSegments(w.Gaze, subject))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Subject to shift (required)")
	cmd.Flags().StringVar(&name, "name", "", "Instance name (required)")
	cmd.Flags().StringVar(&target, "target", "", "Gaze target")
	cmd.Flags().IntVar(&start, "start", 0, "Start frame")
	cmd.Flags().IntVar(&length, "length", 0, "Shift length in frames (required)")
	cmd.MarkFlagRequired("subject")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("length")
	return cmd
}

func (a *app) gazeRemoveCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "remove <scene>",
		Short: "Remove a gaze shift by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, args[0], func(w *scene.Workspace) error {
				id, err := gazeID(w, name)
				if err != nil {
					return err
				}
				if err := w.Gaze.RemoveInstance(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed gaze %q\n", name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Instance name (required)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) gazeListCmd() *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "list <scene>",
		Short: "List gaze segments, coasts included",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, st, err := a.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer st.Close()

			subjects := []string{subject}
			if subject == "" {
				subjects = w.Timeline.Layer(w.Gaze.Layer()).Subjects()
			}
			for _, s := range subjects {
				fmt.Fprintln(cmd.OutOrStdout(), renderSegments(w.Gaze, s))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Only list this subject")
	return cmd
}

func (a *app) gazeTimingCmd() *cobra.Command {
	var name string
	var start, end int
	cmd := &cobra.Command{
		Use:   "timing <scene>",
		Short: "Move a gaze shift to [start, end]",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, args[0], func(w *scene.Workspace) error {
				id, err := gazeID(w, name)
				if err != nil {
					return err
				}
				if err := w.Gaze.SetTiming(id, start, end); err != nil {
					return err
				}
				si, _ := w.Timeline.Animation(id)
				fmt.Fprintln(cmd.OutOrStdout(), renderSegments(w.Gaze, si.Subject()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Instance name (required)")
	cmd.Flags().IntVar(&start, "start", 0, "First frame")
	cmd.Flags().IntVar(&end, "end", 0, "Last frame, inclusive (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("end")
	return cmd
}

func (a *app) gazeAlignCmd() *cobra.Command {
	var name string
	var head, torso float64
	cmd := &cobra.Command{
		Use:   "align <scene>",
		Short: "Set head and torso alignment of a gaze shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, args[0], func(w *scene.Workspace) error {
				id, err := gazeID(w, name)
				if err != nil {
					return err
				}
				return w.Gaze.SetAlignments(id, head, torso)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Instance name (required)")
	cmd.Flags().Float64Var(&head, "head", 1, "Head alignment in [0,1]")
	cmd.Flags().Float64Var(&torso, "torso", 0, "Torso alignment in [0,1]")
	cmd.MarkFlagRequired("name")
	return cmd
}
