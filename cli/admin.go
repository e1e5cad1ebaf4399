package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"cms-platform/client"
	"cms-platform/session"
)

func newAdminCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderation commands (admin accounts only)",
	}
	cmd.AddCommand(newAdminUsersCommand(opts))
	cmd.AddCommand(newAdminVisibilityCommand(opts, "hide", "Hide a post from the public listing", false))
	cmd.AddCommand(newAdminVisibilityCommand(opts, "restore", "Show a hidden post again", true))
	cmd.AddCommand(newAdminActiveCommand(opts, "activate", "Allow a user account to sign in again", true))
	cmd.AddCommand(newAdminActiveCommand(opts, "deactivate", "Block a user account", false))
	cmd.AddCommand(newAdminPostsCommand(opts))
	cmd.AddCommand(newAdminPostCommand(opts))
	cmd.AddCommand(newAdminDeleteCommentCommand(opts))
	cmd.AddCommand(newAdminExportCommand(opts))
	return cmd
}

func newAdminUsersCommand(opts *RootOptions) *cobra.Command {
	var q client.AdminQuery
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd)
			if err != nil {
				return err
			}
			if err := a.require(session.RoleAdmin); err != nil {
				return err
			}
			page, err := a.api.AdminUsers(cmd.Context(), q)
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(userPage(page))
		},
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "match username or email")
	cmd.Flags().StringVar(&q.Status, "status", "", "active or inactive")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	return cmd
}

func newAdminVisibilityCommand(opts *RootOptions, use, short string, show bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd)
			if err != nil {
				return err
			}
			if err := a.require(session.RoleAdmin); err != nil {
				return err
			}
			id, err := parseID(a.out, args[0])
			if err != nil {
				return err
			}
			var post client.Post
			if show {
				post, err = a.api.RestorePost(cmd.Context(), id)
			} else {
				post, err = a.api.HidePost(cmd.Context(), id)
			}
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(postView(post))
		},
	}
}

func newAdminActiveCommand(opts *RootOptions, use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: signedIn(opts, session.RoleAdmin, func(a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(a.out, args[0])
			if err != nil {
				return err
			}
			u, err := a.api.SetUserActive(cmd.Context(), id, active)
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(adminUserView(u))
		}),
	}
}

func newAdminPostsCommand(opts *RootOptions) *cobra.Command {
	var (
		q    client.AdminQuery
		show string
	)
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts of every author",
		Args:  cobra.NoArgs,
		RunE: signedIn(opts, session.RoleAdmin, func(a *app, cmd *cobra.Command, args []string) error {
			if show != "" {
				v, err := strconv.ParseBool(show)
				if err != nil {
					return a.out.Fail(ExitCommandError, "INVALID_ARGUMENT", "--show must be true or false", nil)
				}
				q.Show = &v
			}
			page, err := a.api.AdminPosts(cmd.Context(), q)
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(postPage(page))
		}),
	}
	cmd.Flags().StringVar(&q.Status, "status", "", "draft or published")
	cmd.Flags().StringVar(&show, "show", "", "true for visible posts, false for hidden ones")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	return cmd
}

func newAdminPostCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "post <id>",
		Short: "Show any post with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: signedIn(opts, session.RoleAdmin, func(a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(a.out, args[0])
			if err != nil {
				return err
			}
			detail, err := a.api.AdminPost(cmd.Context(), id)
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(postDetailView(detail))
		}),
	}
}

func newAdminDeleteCommentCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-comment <post-id> <comment-id>",
		Short: "Remove a comment from a post",
		Args:  cobra.ExactArgs(2),
		RunE: signedIn(opts, session.RoleAdmin, func(a *app, cmd *cobra.Command, args []string) error {
			postID, err := parseID(a.out, args[0])
			if err != nil {
				return err
			}
			commentID, err := parseID(a.out, args[1])
			if err != nil {
				return err
			}
			if err := a.api.AdminDeleteComment(cmd.Context(), postID, commentID); err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(messageView{Message: fmt.Sprintf("deleted comment #%d from post #%d", commentID, postID)})
		}),
	}
}

func newAdminExportCommand(opts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Download a post as a zip bundle",
		Args:  cobra.ExactArgs(1),
		RunE: signedIn(opts, session.RoleAdmin, func(a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(a.out, args[0])
			if err != nil {
				return err
			}
			data, err := a.api.ExportPost(cmd.Context(), id)
			if err != nil {
				return a.apiFailure(err)
			}
			path := output
			if path == "" {
				path = fmt.Sprintf("post-%d.zip", id)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return a.out.Fail(ExitCommandError, "INVALID_FILE", err.Error(), nil)
			}
			return a.out.Success(exportView{PostID: id, Path: path, Bytes: len(data)})
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "bundle path (default post-<id>.zip)")
	return cmd
}
