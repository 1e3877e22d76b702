package roster

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	t.Parallel()

	agents, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(agents) == 0 {
		t.Fatal("embedded roster must not be empty")
	}

	names := Names(agents)
	found := false
	for _, n := range names {
		if n == "ResearchAgent" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ResearchAgent in embedded roster, got %v", names)
	}
	if agents[0].Desc == "" {
		t.Fatal("roster entries must carry a description")
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "agents.yaml")
	content := `agents:
  - name: AlphaAgent
    desc: Does alpha things.
    strengths: speed
  - name: BetaAgent
    desc: Does beta things.
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	agents, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}
	if agents[0].Name != "AlphaAgent" || agents[0].Strengths != "speed" {
		t.Fatalf("unexpected first agent: %+v", agents[0])
	}
}

func TestLoadRejectsDuplicates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "agents.yaml")
	content := `agents:
  - name: AlphaAgent
    desc: one
  - name: AlphaAgent
    desc: two
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate agent names")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadExamplesEmbeddedDefaults(t *testing.T) {
	t.Parallel()

	examples, err := LoadExamples("")
	if err != nil {
		t.Fatalf("LoadExamples() error = %v", err)
	}
	if len(examples) == 0 {
		t.Fatal("embedded examples must not be empty")
	}
	for i, ex := range examples {
		if ex.Question == "" || len(ex.Plan) == 0 {
			t.Fatalf("example %d incomplete: %+v", i, ex)
		}
		for _, st := range ex.Plan {
			if st.AgentName == "" || st.Task == "" {
				t.Fatalf("example %d has malformed subtask: %+v", i, st)
			}
		}
	}
}

func TestLoadExamplesFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "examples.json")
	content := `{"examples":[{"question":"q","analysis":"a","plan":[{"agent_name":"AlphaAgent","task":"t"}]}]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	examples, err := LoadExamples(path)
	if err != nil {
		t.Fatalf("LoadExamples() error = %v", err)
	}
	if len(examples) != 1 || examples[0].Plan[0].AgentName != "AlphaAgent" {
		t.Fatalf("unexpected examples: %+v", examples)
	}
}
