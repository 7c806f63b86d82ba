package commands

import (
	"context"
	"fmt"
	"timetable/internal/importer"
	"timetable/internal/service"

	"github.com/spf13/cobra"
)

func newCurrentCmd(opts *rootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show the activity scheduled right now",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			now, err := parseAt(at)
			if err != nil {
				return err
			}

			current, err := svc.ResolveCurrentActivity(ctx, now)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderCurrent(current))
			return nil
		}),
	}
	cmd.Flags().StringVar(&at, "at", "", "moment to resolve instead of now (RFC3339)")
	return cmd
}

func newWeekCmd(opts *rootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Render the weekly timetable",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			now, err := parseAt(at)
			if err != nil {
				return err
			}

			timetable, err := svc.Timetable(ctx, now)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderWeek(timetable))
			return nil
		}),
	}
	cmd.Flags().StringVar(&at, "at", "", "moment to render instead of now (RFC3339)")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.yml]",
		Short: "Import weekly activities from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			file, err := importer.ParseFile(args[0])
			if err != nil {
				return err
			}

			result, err := importer.Import(ctx, svc, file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, failure := range result.Failed {
				fmt.Fprintf(out, "Пропущено #%d (%s): %v\n", failure.Index+1, failure.Entry.Name, failure.Err)
			}
			fmt.Fprintf(out, "Импортировано активностей: %d, пропущено: %d\n", len(result.Created), len(result.Failed))
			return nil
		}),
	}
}
