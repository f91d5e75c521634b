package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/sibyl/internal/rule"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool     `json:"valid"`
	RuleCount int      `json:"rule_count"`
	Questions []string `json:"questions,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules-path>",
		Short: "Validate a rule file without resolving anything",
		Long: `Validate a rule file (.rules line syntax, .cue document, or a
directory of .cue documents).

Checks syntax, literal types, and construction invariants - including
the self-reference rule: a rule's predicate may not mention the rule's
own question.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, rulesPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	rules, err := LoadRules(rulesPath)
	if err != nil {
		if outErr := formatter.Failure("E_INVALID_RULES", err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	formatter.VerboseLog("Loaded %d rule(s) from %s", len(rules), rulesPath)

	rs := rule.NewRuleSet(rules...)
	questions := make([]string, 0, len(rs.Questions()))
	for _, q := range rs.Questions() {
		questions = append(questions, string(q))
	}

	result := ValidationResult{Valid: true, RuleCount: len(rules), Questions: questions}
	return formatter.Successf(result, "valid: %d rule(s) covering %d question(s)", result.RuleCount, len(questions))
}
