package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newEventsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect lifecycle events",
	}

	var subject string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print new lifecycle events until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events, err := connectEvents(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = events.pub.Close() }()
			if events.sub == nil {
				return errors.New("events tail: nats.url is not configured")
			}

			out := cmd.OutOrStdout()
			unsubscribe, err := events.sub.Subscribe(ctx, subject, func(_ context.Context, subj string, data []byte) error {
				_, err := fmt.Fprintf(out, "%s %s\n", subj, data)
				return err
			})
			if err != nil {
				return fmt.Errorf("subscribe %s: %w", subject, err)
			}
			defer unsubscribe()

			slog.Info("tailing events", "subject", subject)
			<-ctx.Done()
			return nil
		},
	}
	tail.Flags().StringVar(&subject, "subject", "crm.>", "subject filter")

	cmd.AddCommand(tail)
	return cmd
}
