package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sibyl/internal/answer"
	"github.com/roach88/sibyl/internal/compiler"
	"github.com/roach88/sibyl/internal/rule"
	"github.com/roach88/sibyl/internal/ruletext"
)

// LoadRules loads rules from a path: a .rules file (line syntax), a
// .cue file, or a directory of .cue files. Registration order follows
// file order, which is the priority tie-break.
func LoadRules(path string) ([]*rule.Rule, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("rules path: %w", err)
	}

	if info.IsDir() {
		return compiler.LoadDir(path)
	}

	switch filepath.Ext(path) {
	case ".rules":
		return ruletext.ParseFile(path)
	case ".cue":
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return compiler.CompileString(string(src))
	default:
		return nil, fmt.Errorf("unsupported rules file %s: want .rules, .cue, or a directory of .cue files", path)
	}
}

// LoadGivens loads a YAML mapping of question to scalar given fact.
//
// Example:
//
//	member: true
//	age: 42
//	tier: "gold"
func LoadGivens(path string) (map[rule.Question]answer.Answer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facts file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse facts file %s: %w", path, err)
	}

	givens := make(map[rule.Question]answer.Answer, len(raw))
	for q, v := range raw {
		a, err := answer.FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("facts file %s: question %q: %w", path, q, err)
		}
		givens[rule.Question(q)] = a
	}
	return givens, nil
}
