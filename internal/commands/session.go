package commands

import (
	"context"
	"fmt"
	"time"
	"timetable/internal/service"

	"github.com/spf13/cobra"
)

func newSessionCmd(opts *rootOptions) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Start and complete activity sessions",
	}

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "start [activity-id]",
		Short: "Open a session for an activity",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			activityID, err := parseUUIDArg("activity-id", args[0])
			if err != nil {
				return err
			}
			session, err := svc.StartSession(ctx, activityID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Сессия %s начата в %s\n",
				session.ID, session.ActualStartTime.In(svc.Location()).Format("15:04"))
			return nil
		}),
	})

	var learnings, notes string
	completeCmd := &cobra.Command{
		Use:   "complete [session-id]",
		Short: "Close a session and record what was learned",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			id, err := parseUUIDArg("session-id", args[0])
			if err != nil {
				return err
			}

			var notesPtr *string
			if cmd.Flags().Changed("notes") {
				notesPtr = &notes
			}

			session, err := svc.CompleteSession(ctx, id, learnings, notesPtr)
			if err != nil {
				return err
			}

			duration := session.ActualEndTime.Sub(session.ActualStartTime).Round(time.Minute)
			fmt.Fprintf(cmd.OutOrStdout(), "Сессия %s завершена, длительность %s\n", session.ID, duration)
			return nil
		}),
	}
	completeCmd.Flags().StringVar(&learnings, "learnings", "", "what was learned")
	completeCmd.Flags().StringVar(&notes, "notes", "", "free-form notes")

	sessionCmd.AddCommand(completeCmd)

	sessionCmd.AddCommand(&cobra.Command{
		Use:   "active",
		Short: "Show the open session, if any",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(ctx context.Context, cmd *cobra.Command, svc *service.ScheduleService, args []string) error {
			session, err := svc.GetActiveSession(ctx)
			if err != nil {
				return err
			}
			if session == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Открытых сессий нет")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Сессия %s по активности %s с %s\n",
				session.ID, session.ActivityID, session.ActualStartTime.In(svc.Location()).Format("15:04"))
			return nil
		}),
	})

	return sessionCmd
}
