package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgardner/reviewflow/internal/domain"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// SessionRequest carries the review parameters collected from flags.
type SessionRequest struct {
	Repository     string
	Branch         string
	CompliancePath string
	Provider       string
	Mode           string
}

// ProfileSummary is the display form of a configured provider.
type ProfileSummary struct {
	Name     string
	Model    string
	Endpoint string
	Enabled  bool
	Active   bool
}

// SessionRunner runs one review session end to end.
type SessionRunner interface {
	RunSession(ctx context.Context, req SessionRequest) (domain.SessionResult, error)
}

// ConnectionTester probes whether the active provider is reachable.
type ConnectionTester interface {
	TestConnection(ctx context.Context) error
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Runner            SessionRunner
	Tester            ConnectionTester
	Profiles          []ProfileSummary
	Args              Arguments
	DefaultRepo       string
	DefaultBranch     string
	DefaultCompliance string
	Version           string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "reviewflow",
		Short: "Automated code review session runner",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(reviewCommand(deps))
	root.AddCommand(providersCommand(deps))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func reviewCommand(deps Dependencies) *cobra.Command {
	var repository string
	var branch string
	var compliancePath string
	var provider string
	var mode string

	cmd := &cobra.Command{
		Use:   "review [branch]",
		Short: "Review the files of a branch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Runner == nil {
				return fmt.Errorf("session runner not configured")
			}
			if len(args) > 0 {
				branch = args[0]
			}

			result, err := deps.Runner.RunSession(cmd.Context(), SessionRequest{
				Repository:     repository,
				Branch:         branch,
				CompliancePath: compliancePath,
				Provider:       provider,
				Mode:           mode,
			})
			if err != nil {
				return err
			}

			RenderSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&repository, "repo", deps.DefaultRepo, "Repository directory to review")
	cmd.Flags().StringVar(&branch, "branch", deps.DefaultBranch, "Branch to review (overrides positional)")
	cmd.Flags().StringVar(&compliancePath, "compliance", deps.DefaultCompliance, "Path to a compliance document included in review prompts")
	cmd.Flags().StringVar(&provider, "provider", "", "Remote analysis provider (overrides config)")
	cmd.Flags().StringVar(&mode, "mode", "", "Connection mode: direct, proxy, or auto (overrides config)")

	return cmd
}

func providersCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect remote analysis providers",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(deps.Profiles) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no providers configured")
				return nil
			}
			out := cmd.OutOrStdout()
			for _, profile := range deps.Profiles {
				marker := " "
				if profile.Active {
					marker = "*"
				}
				state := "disabled"
				if profile.Enabled {
					state = "enabled"
				}
				_, _ = fmt.Fprintf(out, "%s %-12s %-10s model=%s endpoint=%s\n",
					marker, profile.Name, state, profile.Model, profile.Endpoint)
			}
			return nil
		},
	}
	cmd.AddCommand(listCmd)

	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Check whether the active provider endpoint is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Tester == nil {
				return fmt.Errorf("connection tester not configured")
			}
			if err := deps.Tester.TestConnection(cmd.Context()); err != nil {
				return fmt.Errorf("provider unreachable: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "provider endpoint reachable")
			return nil
		},
	}
	cmd.AddCommand(testCmd)

	return cmd
}
