package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cms-platform/client"
	"cms-platform/session"
)

func parseID(out *OutputFormatter, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, out.Fail(ExitCommandError, "INVALID_ARGUMENT", "invalid id "+strconv.Quote(raw), nil)
	}
	return id, nil
}

func newExploreCommand(opts *RootOptions) *cobra.Command {
	var q client.ExploreQuery
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse published posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd)
			if err != nil {
				return err
			}
			if err := a.require(session.RoleUser); err != nil {
				return err
			}
			page, err := a.api.Explore(cmd.Context(), q)
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(postPage(page))
		},
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "match title, content or tags")
	cmd.Flags().StringVar(&q.Category, "category", "", "category name")
	cmd.Flags().StringVar(&q.SortBy, "sort", "latest", "latest, popular or most-commented")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	return cmd
}

func newLikeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Like or unlike a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd)
			if err != nil {
				return err
			}
			if err := a.require(session.RoleUser); err != nil {
				return err
			}
			id, err := parseID(a.out, args[0])
			if err != nil {
				return err
			}
			res, err := a.api.ToggleLike(cmd.Context(), id)
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(likeView{PostID: id, LikeResult: res})
		},
	}
}

func newReadCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Show a published post with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: signedIn(opts, session.RoleUser, func(a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(a.out, args[0])
			if err != nil {
				return err
			}
			post, err := a.api.ExplorePost(cmd.Context(), id)
			if err != nil {
				return a.apiFailure(err)
			}
			comments, err := a.api.Comments(cmd.Context(), id)
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(postDetailView{Post: post, Comments: comments})
		}),
	}
}

// newCommentCommand adds a comment. Its subcommands change comments the caller wrote.
func newCommentCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: signedIn(opts, session.RoleUser, func(a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(a.out, args[0])
			if err != nil {
				return err
			}
			c, err := a.api.AddComment(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(commentView(c))
		}),
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "edit <comment-id> <text>",
		Short: "Change the text of your comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: signedIn(opts, session.RoleUser, func(a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(a.out, args[0])
			if err != nil {
				return err
			}
			c, err := a.api.EditComment(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(commentView(c))
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete your comment",
		Args:  cobra.ExactArgs(1),
		RunE: signedIn(opts, session.RoleUser, func(a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(a.out, args[0])
			if err != nil {
				return err
			}
			if err := a.api.DeleteComment(cmd.Context(), id); err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(messageView{Message: fmt.Sprintf("deleted comment #%d", id)})
		}),
	})
	return cmd
}
