package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/engine"
	"github.com/roach88/sibyl/internal/rule"
	"github.com/roach88/sibyl/internal/trace"
)

// AnswerOptions holds flags for the answer command.
type AnswerOptions struct {
	RulesPath string
	FactsPath string
	TraceDB   string
	Label     string
}

// AnswerResult is the success payload of the answer command.
type AnswerResult struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Kind         string   `json:"kind"`
	Dependencies []string `json:"dependencies"`
	Session      string   `json:"session,omitempty"`
}

// NewAnswerCommand creates the answer command.
func NewAnswerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnswerOptions{}

	cmd := &cobra.Command{
		Use:   "answer <question>",
		Short: "Resolve a question against a rule file and given facts",
		Long: `Resolve a question: evaluate the candidate rules in priority order,
recursively answering any sub-questions their predicates consult, and
print the winning answer together with its dependency set.

With --trace-db, resolution events are journaled to a SQLite database
and the session token is printed for later inspection via 'sibyl trace'.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnswer(rootOpts, opts, rule.Question(args[0]), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RulesPath, "rules", "", "rules path (.rules, .cue, or directory) (required)")
	cmd.Flags().StringVar(&opts.FactsPath, "facts", "", "YAML file of given facts")
	cmd.Flags().StringVar(&opts.TraceDB, "trace-db", "", "journal resolution events to this SQLite database")
	cmd.Flags().StringVar(&opts.Label, "label", "", "label for the journal session")
	_ = cmd.MarkFlagRequired("rules")

	return cmd
}

func runAnswer(rootOpts *RootOptions, opts *AnswerOptions, q rule.Question, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	rules, err := LoadRules(opts.RulesPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load rules", err)
	}
	formatter.VerboseLog("Loaded %d rule(s) from %s", len(rules), opts.RulesPath)

	var seed map[rule.Question]answer.Answer
	if opts.FactsPath != "" {
		seed, err = LoadGivens(opts.FactsPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "load facts", err)
		}
		formatter.VerboseLog("Loaded %d given fact(s) from %s", len(seed), opts.FactsPath)
	}

	var factOpts []engine.Option

	var sessionToken string
	if opts.TraceDB != "" {
		store, err := trace.Open(opts.TraceDB)
		if err != nil {
			return WrapExitError(ExitCommandError, "open trace database", err)
		}
		defer store.Close()

		session, err := store.BeginSession(cmd.Context(), opts.Label)
		if err != nil {
			return WrapExitError(ExitCommandError, "begin trace session", err)
		}
		sessionToken = session.Token()
		factOpts = append(factOpts, engine.WithRecorder(trace.NewRecorder(cmd.Context(), session, nil)))
	}

	facts := engine.New(seed, factOpts...)
	rs := rule.NewRuleSet(rules...)

	awd, err := facts.Answer(q, rs)
	if err != nil {
		if outErr := formatter.Failure(resolutionErrorCode(err), err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "resolution failed", err)
	}

	result := AnswerResult{
		Question:     string(q),
		Answer:       awd.Answer.String(),
		Kind:         string(answer.KindOf(awd.Answer)),
		Dependencies: awd.Dependencies.SortedStrings(),
		Session:      sessionToken,
	}
	return formatter.Successf(result, "%s = %s (dependencies: %v)", result.Question, result.Answer, result.Dependencies)
}

// resolutionErrorCode maps a resolution failure to a stable CLI error
// code for JSON output.
func resolutionErrorCode(err error) string {
	switch {
	case engine.IsNoMatchingRule(err):
		return "E_NO_MATCHING_RULE"
	case engine.IsCycleError(err):
		return "E_CYCLE_DETECTED"
	default:
		return "E_RESOLUTION"
	}
}
