// Package cli implements cmsctl, a command line client for the CMS API.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server    string
	StateFile string
	Format    string // "json" | "text"
	Verbose   bool
}

var ValidFormats = []string{"text", "json"}

const defaultServer = "http://localhost:8000"

// NewRootCommand creates the cmsctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Command line client for the CMS",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", envOr("CMS_SERVER", defaultServer), "API base url")
	cmd.PersistentFlags().StringVar(&opts.StateFile, "state", envOr("CMSCTL_STATE", defaultStatePath()), "file holding the saved session")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log requests to stderr")

	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newWhoamiCommand(opts))
	cmd.AddCommand(newTagsCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newPostCommand(opts))
	cmd.AddCommand(newPostsCommand(opts))
	cmd.AddCommand(newUploadCommand(opts))
	cmd.AddCommand(newExploreCommand(opts))
	cmd.AddCommand(newReadCommand(opts))
	cmd.AddCommand(newLikeCommand(opts))
	cmd.AddCommand(newCommentCommand(opts))
	cmd.AddCommand(newAdminCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".cmsctl.yaml"
	}
	return filepath.Join(dir, "cmsctl", "state.yaml")
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
