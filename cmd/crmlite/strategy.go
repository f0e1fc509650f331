package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Strob0t/crmlite/internal/middleware"
)

type strategyFlags struct {
	opportunityID int64
	userID        string
}

func (f *strategyFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.opportunityID, "opportunity", 0, "opportunity id (required)")
	cmd.Flags().StringVar(&f.userID, "user", "", "owning user id (required)")
	_ = cmd.MarkFlagRequired("opportunity")
	_ = cmd.MarkFlagRequired("user")
}

func newStrategyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Generate and inspect AI sales strategies",
	}

	var genFlags strategyFlags
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new strategy for an opportunity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), c, genFlags.userID, func(ctx context.Context, svc *services) error {
				s, err := svc.strategies.Generate(ctx, genFlags.userID, genFlags.opportunityID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), s)
			})
		},
	}
	genFlags.register(generate)

	var latestFlags strategyFlags
	latest := &cobra.Command{
		Use:   "latest",
		Short: "Print the most recent strategy of an opportunity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), c, latestFlags.userID, func(ctx context.Context, svc *services) error {
				s, err := svc.strategies.Latest(ctx, latestFlags.userID, latestFlags.opportunityID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), s)
			})
		},
	}
	latestFlags.register(latest)

	var historyFlags strategyFlags
	history := &cobra.Command{
		Use:   "history",
		Short: "Print all strategies of an opportunity, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), c, historyFlags.userID, func(ctx context.Context, svc *services) error {
				list, err := svc.strategies.History(ctx, historyFlags.userID, historyFlags.opportunityID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			})
		},
	}
	historyFlags.register(history)

	cmd.AddCommand(generate, latest, history)
	return cmd
}

// withServices opens the store, generator and event publisher, runs fn and
// releases everything.
func withServices(ctx context.Context, c *cli, userID string, fn func(ctx context.Context, svc *services) error) error {
	ctx = middleware.ContextWithUserID(ctx, userID)

	sd, err := openStore(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer sd.close()
	if err := sd.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	gd, err := newGenerator(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer gd.close()

	events, err := connectEvents(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = events.pub.Close() }()

	return fn(ctx, newServices(c.cfg, sd.store, gd.gen, events.pub, nil, nil))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
