package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cms-platform/client"
	"cms-platform/content"
	"cms-platform/editor"
	"cms-platform/session"
)

func newTagsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tags <text>",
		Short: "Extract hashtags the way the editor does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags := content.ExtractTags(strings.Join(args, " "))
			return opts.formatter(cmd).Success(tagsResult{Tags: tags})
		},
	}
}

func parseMode(mode string) (content.Status, error) {
	switch strings.ToLower(mode) {
	case "publish", "published":
		return content.StatusPublished, nil
	case "draft":
		return content.StatusDraft, nil
	}
	return "", fmt.Errorf("invalid mode %q: must be draft or publish", mode)
}

func newCheckCommand(opts *RootOptions) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "check <post.yaml>",
		Short: "Validate a post file without sending it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			status, err := parseMode(mode)
			if err != nil {
				return out.Fail(ExitCommandError, "INVALID_ARGUMENT", err.Error(), nil)
			}
			pf, err := loadPostFile(args[0])
			if err != nil {
				return out.Fail(ExitCommandError, "INVALID_FILE", err.Error(), nil)
			}
			d := pf.draft(status)
			if err := content.Validate(d, status); err != nil {
				var vErr *content.ValidationError
				if errors.As(err, &vErr) {
					return out.Fail(ExitFailure, "VALIDATION_ERROR", vErr.Message, map[string]string{"field": vErr.Field})
				}
				return out.Fail(ExitFailure, "VALIDATION_ERROR", err.Error(), nil)
			}
			return out.Success(checkResult{
				Mode:           string(status),
				Words:          content.WordCount(d.Content),
				ReadingMinutes: content.ReadingMinutes(d.Content),
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "publish", "rules to check against (draft|publish)")
	return cmd
}

func newPostCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Write and manage your posts",
	}
	cmd.AddCommand(newPostSaveCommand(opts, "save", "Save a post file as a draft", false))
	cmd.AddCommand(newPostSaveCommand(opts, "publish", "Publish a post file", true))
	cmd.AddCommand(newPostShowCommand(opts))
	cmd.AddCommand(newPostDeleteCommand(opts))
	cmd.AddCommand(newPostImportCommand(opts))
	return cmd
}

func newPostShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: signedIn(opts, session.RoleUser, func(a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(a.out, args[0])
			if err != nil {
				return err
			}
			post, err := a.api.GetPost(cmd.Context(), id)
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(postView(post))
		}),
	}
}

func newPostDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: signedIn(opts, session.RoleUser, func(a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(a.out, args[0])
			if err != nil {
				return err
			}
			if err := a.api.DeletePost(cmd.Context(), id); err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(messageView{Message: fmt.Sprintf("deleted post #%d", id)})
		}),
	}
}

func newPostImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <bundle.zip>",
		Short: "Create a draft from a zip bundle",
		Args:  cobra.ExactArgs(1),
		RunE: signedIn(opts, session.RoleUser, func(a *app, cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return a.out.Fail(ExitCommandError, "INVALID_FILE", err.Error(), nil)
			}
			post, err := a.api.ImportPost(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(postView(post))
		}),
	}
}

func newPostSaveCommand(opts *RootOptions, use, short string, publish bool) *cobra.Command {
	var id int64
	var thumbnailFile string
	cmd := &cobra.Command{
		Use:   use + " <post.yaml>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd)
			if err != nil {
				return err
			}
			if err := a.require(session.RoleUser); err != nil {
				return err
			}
			pf, err := loadPostFile(args[0])
			if err != nil {
				return a.out.Fail(ExitCommandError, "INVALID_FILE", err.Error(), nil)
			}
			if id == 0 {
				id = pf.ID
			}
			ed, err := openEditor(a, id, pf)
			if err != nil {
				return err
			}
			defer ed.Close()

			ctx := cmd.Context()
			if thumbnailFile != "" {
				data, err := os.ReadFile(thumbnailFile)
				if err != nil {
					return a.out.Fail(ExitCommandError, "INVALID_FILE", err.Error(), nil)
				}
				if _, err := ed.UploadThumbnail(ctx, filepath.Base(thumbnailFile), data); err != nil {
					return a.editorFailure(err)
				}
			}

			var post client.Post
			if publish {
				post, err = ed.Publish(ctx)
			} else {
				post, err = ed.SaveDraft(ctx)
			}
			if err != nil {
				return a.editorFailure(err)
			}
			if err := a.save(); err != nil {
				return err
			}
			return a.out.Success(postView(post))
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "update this post instead of the id in the file")
	cmd.Flags().StringVar(&thumbnailFile, "thumbnail-file", "", "upload this image as the thumbnail")
	return cmd
}

// openEditor loads pf into a fresh editor for post id (zero for a new post).
func openEditor(a *app, id int64, pf postFile) (*editor.Editor, error) {
	ed := editor.New(a.api, a.api, a.notifier())
	if id == 0 {
		ed.OpenNew()
	} else {
		ed.Open(client.Post{ID: id, Status: string(content.StatusDraft)})
	}
	for _, set := range []func() error{
		func() error { return ed.SetTitle(pf.Title) },
		func() error { return ed.SetExcerpt(pf.Excerpt) },
		func() error { return ed.SetContent(pf.Content) },
		func() error { return ed.SetCategory(pf.Category) },
		func() error { return ed.SetTagInput(pf.Tags) },
		func() error { return ed.SetThumbnail(pf.Thumbnail) },
	} {
		if err := set(); err != nil {
			return nil, err
		}
	}
	return ed, nil
}

func newPostsCommand(opts *RootOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List your posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd)
			if err != nil {
				return err
			}
			if err := a.require(session.RoleUser); err != nil {
				return err
			}
			posts, err := a.api.MyPosts(cmd.Context(), status)
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(postList(posts))
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only list draft or published posts")
	return cmd
}

func newUploadCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd)
			if err != nil {
				return err
			}
			if err := a.require(session.RoleUser); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return a.out.Fail(ExitCommandError, "INVALID_FILE", err.Error(), nil)
			}
			url, err := a.api.UploadImage(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return a.apiFailure(err)
			}
			return a.out.Success(uploadView{URL: url})
		},
	}
}
