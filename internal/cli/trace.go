package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sibyl/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	TraceDB string
}

// TraceResult is the success payload of the trace command.
type TraceResult struct {
	Session string        `json:"session"`
	Events  []trace.Event `json:"events"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{}

	cmd := &cobra.Command{
		Use:   "trace <session-token>",
		Short: "Show the resolution journal for a session",
		Long: `Show the journaled resolution events for a session in sequence
order: derivations with the winning rule's priority and dependency set,
given-fact and cache hits, evictions, and failures.

Pass "list" as the session token to list all journaled sessions.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.TraceDB, "trace-db", "", "journal SQLite database (required)")
	_ = cmd.MarkFlagRequired("trace-db")

	return cmd
}

func runTrace(rootOpts *RootOptions, opts *TraceOptions, token string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	if _, err := os.Stat(opts.TraceDB); err != nil {
		return WrapExitError(ExitCommandError, "trace database not found", err)
	}

	store, err := trace.Open(opts.TraceDB)
	if err != nil {
		return WrapExitError(ExitCommandError, "open trace database", err)
	}
	defer store.Close()

	if token == "list" {
		return listSessions(formatter, store, cmd)
	}

	events, err := store.ReadSession(cmd.Context(), token)
	if err != nil {
		return WrapExitError(ExitCommandError, "read session", err)
	}
	if len(events) == 0 {
		if outErr := formatter.Failure("E_NO_SESSION", fmt.Sprintf("no events for session %q", token), nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitFailure, "no events for session")
	}

	if rootOpts.Format == "json" {
		return formatter.Success(TraceResult{Session: token, Events: events})
	}

	for _, ev := range events {
		fmt.Fprintln(formatter.Writer, formatEvent(ev))
	}
	return nil
}

func listSessions(formatter *OutputFormatter, store *trace.Store, cmd *cobra.Command) error {
	infos, err := store.Sessions(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "list sessions", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}
	for _, info := range infos {
		line := info.Token
		if info.Label != "" {
			line += "  " + info.Label
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}

// formatEvent renders one journal event as a text line.
func formatEvent(ev trace.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%4d  %-10s %s", ev.Seq, ev.Kind, ev.Question)
	switch ev.Kind {
	case trace.EventResolved:
		if ev.Priority != nil {
			fmt.Fprintf(&b, " = %s (priority %d, deps %s)", ev.Answer, *ev.Priority, ev.Dependencies)
		} else {
			fmt.Fprintf(&b, " = %s (deps %s)", ev.Answer, ev.Dependencies)
		}
	case trace.EventGivenHit:
		fmt.Fprintf(&b, " = %s (given)", ev.Answer)
	case trace.EventCacheHit:
		fmt.Fprintf(&b, " = %s (cached, deps %s)", ev.Answer, ev.Dependencies)
	case trace.EventEvicted:
		fmt.Fprintf(&b, " (cause: %s)", ev.Cause)
	case trace.EventFailed:
		fmt.Fprintf(&b, " failed: %s", ev.Error)
	}
	return b.String()
}
