// Package roster loads the static worker-agent registry and the few-shot
// planning example corpus. Both ship with embedded defaults so the binary
// runs without deployment files; explicit paths override them.
package roster

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/planweave/planweave/agent/contract"
)

var (
	//go:embed data/agents.yaml
	defaultAgentsRaw []byte

	//go:embed data/planner_examples.json
	defaultExamplesRaw []byte
)

// Load reads the agent roster from path (yaml or json with a top-level
// "agents" key); an empty path yields the embedded default roster.
func Load(path string) ([]contract.AgentInfo, error) {
	v := viper.New()

	if strings.TrimSpace(path) == "" {
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader(defaultAgentsRaw)); err != nil {
			return nil, fmt.Errorf("read embedded roster: %w", err)
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read roster file: %w", err)
		}
	}

	var agents []contract.AgentInfo
	if err := v.UnmarshalKey("agents", &agents); err != nil {
		return nil, fmt.Errorf("unmarshal roster: %w", err)
	}
	if err := validate(agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// LoadExamples reads the few-shot corpus from path (json with a top-level
// "examples" key); an empty path yields the embedded defaults.
func LoadExamples(path string) ([]contract.PlanExample, error) {
	raw := defaultExamplesRaw
	if strings.TrimSpace(path) != "" {
		fileRaw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read examples file: %w", err)
		}
		raw = fileRaw
	}

	var corpus struct {
		Examples []contract.PlanExample `json:"examples"`
	}
	if err := json.Unmarshal(raw, &corpus); err != nil {
		return nil, fmt.Errorf("unmarshal examples: %w", err)
	}
	return corpus.Examples, nil
}

// Names returns the roster names in registry order.
func Names(agents []contract.AgentInfo) []string {
	names := make([]string, 0, len(agents))
	for _, a := range agents {
		names = append(names, a.Name)
	}
	return names
}

func validate(agents []contract.AgentInfo) error {
	if len(agents) == 0 {
		return fmt.Errorf("%w: roster has no agents", contract.ErrValidation)
	}
	seen := make(map[string]struct{}, len(agents))
	for _, a := range agents {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return fmt.Errorf("%w: roster agent without a name", contract.ErrValidation)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate roster agent %q", contract.ErrValidation, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
