package cli

import (
	"errors"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"cms-platform/client"
	"cms-platform/content"
	"cms-platform/editor"
	"cms-platform/notify"
	"cms-platform/session"
)

// app is the per-invocation wiring: saved state, API client and session manager.
type app struct {
	opts   *RootOptions
	out    *OutputFormatter
	state  State
	api    *client.Client
	sess   *session.Manager
	logger *log.Logger
}

func newApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	out := opts.formatter(cmd)
	st, err := LoadState(opts.StateFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load state", err)
	}

	server := opts.Server
	if !cmd.Flags().Changed("server") && os.Getenv("CMS_SERVER") == "" && st.Server != "" {
		server = st.Server
	}
	if st.Server != "" && st.Server != server {
		st = State{}
	}
	st.Server = server

	logger := log.New(io.Discard, "", 0)
	if opts.Verbose {
		logger = log.New(out.GetErrWriter(), "cmsctl: ", 0)
	}
	api, err := client.New(server, client.WithLogger(logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "bad server url", err)
	}
	api.SetCookies(st.httpCookies())

	return &app{
		opts:   opts,
		out:    out,
		state:  st,
		api:    api,
		sess:   session.NewManager(api, session.WithLogger(logger)),
		logger: logger,
	}, nil
}

// signedIn wraps a command body that needs a saved session allowed for need.
func signedIn(opts *RootOptions, need session.Role, run func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(opts, cmd)
		if err != nil {
			return err
		}
		if err := a.require(need); err != nil {
			return err
		}
		return run(a, cmd, args)
	}
}

func (a *app) text() bool { return a.out.Format != "json" }

// save persists the cookies the client currently holds.
func (a *app) save() error {
	a.state.setCookies(a.api.Cookies())
	if err := a.state.Save(a.opts.StateFile); err != nil {
		return WrapExitError(ExitCommandError, "save state", err)
	}
	return nil
}

// forget drops the saved session.
func (a *app) forget() {
	a.state.signOut()
	if err := a.state.Save(a.opts.StateFile); err != nil {
		a.out.VerboseLog("save state: %v", err)
	}
}

// savedSession rebuilds the session from the state file without a network call.
func (a *app) savedSession() session.Snapshot {
	if len(a.state.Cookies) == 0 || a.state.Role == "" {
		return session.Snapshot{Status: session.StatusAnonymous, Role: session.RoleAnonymous}
	}
	return session.Snapshot{Status: session.StatusAuthenticated, Role: session.ParseRole(a.state.Role)}
}

// require fails unless the saved session may use a command needing role.
func (a *app) require(need session.Role) error {
	d := session.Guard(a.savedSession(), need)
	if d.Action == session.Allow {
		return nil
	}
	hint := "cmsctl login"
	if d.Target == session.AdminLoginPath {
		hint = "cmsctl login --admin"
	}
	return a.out.Fail(ExitCommandError, "NOT_SIGNED_IN", "not signed in: run "+hint, nil)
}

// apiFailure reports err and signs out locally when the server rejected the session.
func (a *app) apiFailure(err error) error {
	if a.sess.HandleError(err) {
		a.forget()
		return a.out.Fail(ExitFailure, "AUTH_EXPIRED", "session expired: run cmsctl login", nil)
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		var details interface{}
		if apiErr.Field != "" {
			details = map[string]string{"field": apiErr.Field}
		}
		return a.out.Fail(ExitFailure, apiErr.Code, client.Message(err), details)
	}
	var netErr *client.NetworkError
	if errors.As(err, &netErr) {
		a.out.VerboseLog("%v", err)
		return a.out.Fail(ExitFailure, "NETWORK_ERROR", client.Message(err), nil)
	}
	return a.out.Fail(ExitFailure, "ERROR", err.Error(), nil)
}

// notifier shows editor notifications on stderr in text mode. JSON output
// carries failures in the envelope and only logs notifications with --verbose.
func (a *app) notifier() notify.Notifier {
	switch {
	case a.text():
		return notify.NewWriter(a.out.GetErrWriter())
	case a.opts.Verbose:
		return notify.Logger{L: a.logger}
	}
	return notify.Discard{}
}

// editorFailure reports an error from the editor. In text mode local failures
// were already shown by the notifier.
func (a *app) editorFailure(err error) error {
	var vErr *content.ValidationError
	switch {
	case errors.As(err, &vErr):
		if a.text() {
			return &ExitError{Code: ExitFailure}
		}
		return a.out.Fail(ExitFailure, "VALIDATION_ERROR", vErr.Message, map[string]string{"field": vErr.Field})
	case errors.Is(err, editor.ErrNotImage), errors.Is(err, editor.ErrTooLarge):
		if a.text() {
			return &ExitError{Code: ExitFailure}
		}
		return a.out.Fail(ExitFailure, "INVALID_THUMBNAIL", err.Error(), nil)
	}
	return a.apiFailure(err)
}
