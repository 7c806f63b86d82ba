package commands

import (
	"context"
	"fmt"
	"timetable/internal/models/schedule"
	"timetable/internal/service"

	"github.com/spf13/cobra"
)

func newActivityCmd(opts *rootOptions) *cobra.Command {
	activityCmd := &cobra.Command{
		Use:   "activity",
		Short: "Manage weekly activities",
	}

	var input service.ActivityInput
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add an activity to the weekly schedule",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			activity, err := svc.CreateActivity(ctx, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Добавлена активность %s: %s %s\n",
				activity.ID, activity.Slot.Day, slotLabel(activity))
			return nil
		}),
	}
	addCmd.Flags().StringVar(&input.Name, "name", "", "activity name")
	addCmd.Flags().StringVar(&input.Day, "day", "", "weekday name (Sunday..Saturday)")
	addCmd.Flags().StringVar(&input.StartTime, "start", "", "start time HH:MM")
	addCmd.Flags().StringVar(&input.EndTime, "end", "", "end time HH:MM")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("day")
	_ = addCmd.MarkFlagRequired("start")
	_ = addCmd.MarkFlagRequired("end")

	var day string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List active activities in week order",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			var (
				activities []*schedule.Activity
				err        error
			)
			if day != "" {
				activities, err = svc.ListActivitiesByDay(ctx, day)
			} else {
				activities, err = svc.ListActivities(ctx)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, activity := range activities {
				fmt.Fprintf(out, "%s  %-9s %s  %s\n", activity.ID, activity.Slot.Day, slotLabel(activity), activity.Name)
			}
			return nil
		}),
	}
	listCmd.Flags().StringVar(&day, "day", "", "only this weekday")

	removeCmd := &cobra.Command{
		Use:   "rm [activity-id]",
		Short: "Deactivate an activity",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			id, err := parseUUIDArg("activity-id", args[0])
			if err != nil {
				return err
			}
			if err := svc.DeleteActivity(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Активность %s удалена\n", id)
			return nil
		}),
	}

	activityCmd.AddCommand(addCmd, listCmd, removeCmd)
	return activityCmd
}
