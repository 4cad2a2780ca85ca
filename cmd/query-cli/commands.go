package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"library-ai-workers/internal/aiquery"
	bq "library-ai-workers/internal/workers/ai-conversation/book-query"
	iqc "library-ai-workers/internal/workers/ai-conversation/invalidate-query-cache"
	"library-ai-workers/pkg/registry"
)

func newAskCmd(open func(*cobra.Command) (*engine, error)) *cobra.Command {
	var userID string
	var isAdmin bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Run one question through the full query pipeline and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			resp := e.processor.ProcessQuery(cmd.Context(), strings.Join(args, " "), userID, isAdmin)
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "id of the asking user")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "ask as an admin")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newExamplesCmd() *cobra.Command {
	var isAdmin bool

	cmd := &cobra.Command{
		Use:   "examples",
		Short: "List example questions for a role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, q := range aiquery.ExampleQueries(isAdmin) {
				fmt.Fprintln(cmd.OutOrStdout(), q)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "show admin examples")
	return cmd
}

func newInvalidateCmd(open func(*cobra.Command) (*engine, error)) *cobra.Command {
	var userID string
	var adminOnly bool

	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Drop cached answers for a user (and all admin answers)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" && !adminOnly {
				return errors.New("either --user or --admin-only is required")
			}

			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if e.cache == nil {
				return errors.New("query cache is disabled in this configuration")
			}

			var removed int
			if adminOnly {
				removed, err = e.cache.InvalidateAdmin(cmd.Context())
			} else {
				removed, err = e.cache.Invalidate(cmd.Context(), userID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached answers\n", removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owner whose cached answers to drop")
	cmd.Flags().BoolVar(&adminOnly, "admin-only", false, "drop only admin answers")
	return cmd
}

// workerRegistry lists the job workers the worker manager can run.
func workerRegistry() *registry.ActivityRegistry {
	return &registry.ActivityRegistry{
		Version:    "1.0.0",
		Activities: []registry.Activity{bq.Activity(), iqc.Activity()},
	}
}

func newWorkersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "Print the activity registry of the job workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := workerRegistry()
			if err := reg.Validate(); err != nil {
				return err
			}
			return reg.Write(cmd.OutOrStdout())
		},
	}
}
