package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/traduttore/internal/project"
	"github.com/mattjoyce/traduttore/internal/queue"
)

func newProjectCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage translation projects",
	}
	cmd.AddCommand(
		newProjectAddCmd(opts),
		newProjectListCmd(opts),
		newProjectInfoCmd(opts),
		newProjectUpdateCmd(opts),
		newProjectSetSecretCmd(opts),
	)
	return cmd
}

type projectAddOptions struct {
	name          string
	repositoryURL string
	sshURL        string
	httpsURL      string
	defaultBranch string
	visibility    string
	secret        string
}

func newProjectAddCmd(opts *globalOptions) *cobra.Command {
	var o projectAddOptions
	cmd := &cobra.Command{
		Use:   "add <slug>",
		Short: "Register a project",
		Example: `  traduttore project add wearerequired/traduttore \
    --repository-url https://github.com/wearerequired/traduttore \
    --ssh-url git@github.com:wearerequired/traduttore.git`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			p := project.Project{
				Slug:          args[0],
				Name:          o.name,
				RepositoryURL: project.NormalizeURL(o.repositoryURL),
				SSHURL:        o.sshURL,
				HTTPSURL:      o.httpsURL,
				DefaultBranch: o.defaultBranch,
				Visibility:    project.Visibility(o.visibility),
				WebhookSecret: o.secret,
			}
			for _, raw := range []string{o.repositoryURL, o.httpsURL, o.sshURL} {
				if ref, ok := project.ParseRepositoryURL(raw, a.locator.Hosts()); ok {
					p.RepositoryName = ref.FullName
					p.HostType = project.HostTypeFor(ref.Host)
					break
				}
			}

			created, err := a.projects.Create(cmd.Context(), p)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Added project %s (ID: %d)!", created.Slug, created.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.name, "name", "", "display name")
	f.StringVar(&o.repositoryURL, "repository-url", "", "repository web URL")
	f.StringVar(&o.sshURL, "ssh-url", "", "SSH clone URL")
	f.StringVar(&o.httpsURL, "https-url", "", "HTTPS clone URL")
	f.StringVar(&o.defaultBranch, "default-branch", "", "branch to mirror (learned from the first push if empty)")
	f.StringVar(&o.visibility, "visibility", "", "public or private")
	f.StringVar(&o.secret, "webhook-secret", "", "per-project webhook secret")
	return cmd
}

func newProjectListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			projects, err := a.projects.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects registered.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, labelStyle.Render("ID")+"\t"+labelStyle.Render("SLUG")+"\t"+
				labelStyle.Render("REPOSITORY")+"\t"+labelStyle.Render("BRANCH")+"\t"+labelStyle.Render("CACHED"))
			for _, p := range projects {
				cached := "no"
				if a.mirrors.Exists(p.ID) {
					cached = "yes"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Slug, p.RepositoryName, p.DefaultBranch, cached)
			}
			return tw.Flush()
		},
	}
}

func newProjectInfoCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <project|url>",
		Short: "Show a project and its last sync",
		Args:  cobra.ExactArgs(1),
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

			w := cmd.OutOrStdout()
			printField(w, "ID", strconv.FormatInt(p.ID, 10))
			printField(w, "Slug", p.Slug)
			printField(w, "Name", p.Name)
			printField(w, "Host", string(p.HostType))
			printField(w, "Repository", p.RepositoryName)
			printField(w, "URL", p.RepositoryURL)
			printField(w, "SSH URL", p.SSHURL)
			printField(w, "HTTPS URL", p.HTTPSURL)
			printField(w, "Default branch", p.DefaultBranch)
			printField(w, "Visibility", string(p.Visibility))

			cache := "not cached"
			if a.mirrors.Exists(p.ID) {
				cache = a.mirrors.Path(p.ID)
			}
			printField(w, "Cache", cache)

			job, err := a.queue.LastForProject(cmd.Context(), p.ID)
			switch {
			case errors.Is(err, queue.ErrJobNotFound):
				printField(w, "Last sync", "never")
			case err != nil:
				return err
			default:
				printField(w, "Last sync", describeJob(job))
			}
			return nil
		},
	}
}

func describeJob(j *queue.Job) string {
	s := fmt.Sprintf("%s (%s, %s)", j.Status, j.SubmittedBy, j.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if j.Revision != nil {
		s += " at " + *j.Revision
	}
	if j.LastError != nil {
		s += ": " + *j.LastError
	}
	return s
}

func newProjectUpdateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <project|url>",
		Short: "Sync a project's mirror now",
		Long: `Clones or updates the project's mirror and runs the configured extractor,
waiting for the result.`,
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

			res := a.trigger().Run(cmd.Context(), p)
			if res.Failed() {
				printError(cmd.ErrOrStderr(), "Could not update project (ID: %d): %s", p.ID, res.Reason)
				return errReported
			}
			if res.Extraction != nil && res.Extraction.Stderr != "" {
				printWarning(cmd.ErrOrStderr(), "extractor wrote to stderr:\n%s", res.Extraction.Stderr)
			}
			printSuccess(cmd.OutOrStdout(), "Updated project (ID: %d) to %s!", p.ID, res.Mirror.Revision)
			return nil
		},
	}
}

func newProjectSetSecretCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-secret <project|url> [secret]",
		Short: "Set or clear a project's webhook secret",
		Long: `Sets the secret used to verify webhook deliveries for one project. Without a
secret the project falls back to the provider secret from the configuration.`,
		Args: cobra.RangeArgs(1, 2),
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

			secret := ""
			if len(args) == 2 {
				secret = args[1]
			}
			if err := a.projects.SetWebhookSecret(cmd.Context(), p.ID, secret); err != nil {
				return err
			}
			if secret == "" {
				printSuccess(cmd.OutOrStdout(), "Cleared webhook secret for project (ID: %d)!", p.ID)
				return nil
			}
			printSuccess(cmd.OutOrStdout(), "Updated webhook secret for project (ID: %d)!", p.ID)
			return nil
		},
	}
}
