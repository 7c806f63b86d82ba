package commands

import (
	"context"
	"fmt"
	"strings"
	"timetable/internal/models/schedule"
	"timetable/internal/service"

	"github.com/spf13/cobra"
)

func taskLine(t *schedule.Task) string {
	mark := "[ ]"
	if t.IsDone {
		mark = "[x]"
	}
	suffix := ""
	if t.Carried {
		suffix = " (перенесена)"
	}
	return fmt.Sprintf("%s %s %s%s", mark, t.ID, t.Description, suffix)
}

func newTaskCmd(opts *rootOptions) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks attached to activities",
	}

	taskCmd.AddCommand(&cobra.Command{
		Use:   "add [activity-id] [description...]",
		Short: "Attach a task to an activity",
		Args:  cobra.MinimumNArgs(2),
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			activityID, err := parseUUIDArg("activity-id", args[0])
			if err != nil {
				return err
			}
			task, err := svc.CreateTask(ctx, activityID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), taskLine(task))
			return nil
		}),
	})

	taskCmd.AddCommand(&cobra.Command{
		Use:   "list [activity-id]",
		Short: "List tasks of an activity",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			activityID, err := parseUUIDArg("activity-id", args[0])
			if err != nil {
				return err
			}
			tasks, err := svc.ListTasks(ctx, activityID)
			if err != nil {
				return err
			}
			for _, task := range tasks {
				fmt.Fprintln(cmd.OutOrStdout(), taskLine(task))
			}
			return nil
		}),
	})

	taskCmd.AddCommand(&cobra.Command{
		Use:   "done [task-id]",
		Short: "Mark a task as done",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			id, err := parseUUIDArg("task-id", args[0])
			if err != nil {
				return err
			}
			task, err := svc.CompleteTask(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), taskLine(task))
			return nil
		}),
	})

	taskCmd.AddCommand(&cobra.Command{
		Use:   "rm [task-id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			id, err := parseUUIDArg("task-id", args[0])
			if err != nil {
				return err
			}
			if err := svc.DeleteTask(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Задача %s удалена\n", id)
			return nil
		}),
	})

	return taskCmd
}

func newCarryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "carry [task-id]",
		Short: "Move an unfinished task to the next occurrence of its activity",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			id, err := parseUUIDArg("task-id", args[0])
			if err != nil {
				return err
			}

			carried, err := svc.CarryForwardTask(ctx, id)
			if err != nil {
				return err
			}

			target, err := svc.GetActivityByID(ctx, carried.ActivityID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Задача перенесена на %s %s (%s), новый id %s\n",
				target.Slot.Day, slotLabel(target), target.Name, carried.ID)
			return nil
		}),
	}
}
