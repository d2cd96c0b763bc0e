package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/traduttore/internal/mirror"
	"github.com/mattjoyce/traduttore/internal/project"
)

func newCacheCmd(opts *globalOptions) *cobra.Command {
	cache := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached Git repositories",
	}

	clearCmd := &cobra.Command{
		Use:   "clear <project|url>",
		Short: "Remove the cached Git repository for a project",
		Long: `Removes the local mirror of a project. The project may be given by ID,
repository URL or slug. The next sync clones it again.`,
		Example: `  traduttore cache clear 123
  traduttore cache clear https://github.com/wearerequired/traduttore
  traduttore cache clear wearerequired/traduttore`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := mirror.ClearCache(cmd.Context(), a.locator, a.mirrors, args[0])
			switch {
			case errors.Is(err, project.ErrNotFound):
				printError(cmd.ErrOrStderr(), "Project not found")
				return errReported
			case err != nil:
				printError(cmd.ErrOrStderr(), "Could not remove cached Git repository for project (ID: %d)!", id)
				return errReported
			}
			printSuccess(cmd.OutOrStdout(), "Removed cached Git repository for project (ID: %d)!", id)
			return nil
		},
	}

	warmCmd := &cobra.Command{
		Use:   "warm <project|url>",
		Short: "Clone or update a project's cached Git repository",
		Long: `Brings the local mirror of a project up to date with its default branch
without running the extractor.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.locator.Locate(cmd.Context(), args[0])
			if errors.Is(err, project.ErrNotFound) {
				printError(cmd.ErrOrStderr(), "Project not found")
				return errReported
			}
			if err != nil {
				return err
			}

			m, err := a.mirrors.EnsureMirror(cmd.Context(), p)
			switch {
			case mirror.IsKind(err, mirror.KindRemoteUnreachable):
				printError(cmd.ErrOrStderr(), "Could not reach the Git repository of project (ID: %d): %v", p.ID, err)
				return errReported
			case err != nil:
				printError(cmd.ErrOrStderr(), "Could not update cached Git repository for project (ID: %d): %v", p.ID, err)
				return errReported
			}
			printSuccess(cmd.OutOrStdout(), "Cached Git repository for project (ID: %d) is at %s!", p.ID, m.Revision)
			return nil
		},
	}

	cache.AddCommand(clearCmd, warmCmd)
	return cache
}
