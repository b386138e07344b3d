// Package agents lists opencode agent definitions and edits the model each
// one runs on.
package agents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grovetools/swarmstat/command"
	swerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/util/frontmatter"
)

// NoModel is reported for agents whose front matter sets no model.
const NoModel = "none"

// Agent is one definition file under the agents directory.
type Agent struct {
	File  string `json:"file"`
	Name  string `json:"name"`
	Model string `json:"model"`
	Path  string `json:"path"`
}

// Change is a pending model assignment.
type Change struct {
	Agent Agent
	Model string
}

// List returns the agents defined in dir, sorted by name. Files without a
// front matter block are not agent definitions and are skipped.
func List(dir string) ([]Agent, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read agents directory %s: %w", dir, err)
	}

	var out []Agent
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		doc := frontmatter.ParseString(string(data))
		if !doc.HasFrontmatter {
			continue
		}
		model := strings.TrimSpace(doc.Get("model"))
		if model == "" {
			model = NoModel
		}
		out = append(out, Agent{
			File:  e.Name(),
			Name:  strings.TrimSuffix(e.Name(), ".md"),
			Model: model,
			Path:  path,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Find returns the agent with the given name.
func Find(list []Agent, name string) (Agent, bool) {
	for _, a := range list {
		if a.Name == name {
			return a, true
		}
	}
	return Agent{}, false
}

// SetModel rewrites the model line of an agent's front matter.
func SetModel(agent Agent, model string) error {
	if err := command.NewSafeBuilder().Validate("modelID", model); err != nil {
		return swerrors.InvalidInput("model", err.Error())
	}
	info, err := os.Stat(agent.Path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", agent.Path, err)
	}
	data, err := os.ReadFile(agent.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", agent.Path, err)
	}
	updated, err := frontmatter.SetField(string(data), "model", model)
	if err != nil {
		return fmt.Errorf("%s: %w", agent.File, err)
	}
	if err := os.WriteFile(agent.Path, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", agent.Path, err)
	}
	return nil
}

// Apply writes every change, stopping at the first failure. It returns the
// number of agents updated.
func Apply(changes []Change) (int, error) {
	for i, c := range changes {
		if err := SetModel(c.Agent, c.Model); err != nil {
			return i, err
		}
	}
	return len(changes), nil
}

// Describe renders a change as "name: old → new".
func (c Change) Describe() string {
	return fmt.Sprintf("%s: %s → %s", c.Agent.Name, c.Agent.Model, c.Model)
}

// ModelLister runs the opencode CLI to enumerate available models.
type ModelLister struct {
	Binary  string
	Builder *command.SafeBuilder
}

// NewModelLister returns a lister for the given opencode binary.
func NewModelLister(binary string) *ModelLister {
	if binary == "" {
		binary = "opencode"
	}
	return &ModelLister{Binary: binary, Builder: command.NewSafeBuilder()}
}

// ListModels runs `<binary> models` and returns one identifier per line.
func (l *ModelLister) ListModels(ctx context.Context) ([]string, error) {
	cmd, err := l.Builder.Build(ctx, l.Binary, "models")
	if err != nil {
		return nil, swerrors.InvalidInput("opencode binary", err.Error())
	}
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to load models (check the opencode path): %w", err)
	}
	return ParseModels(string(out)), nil
}

// ListModels is a shorthand for NewModelLister(binary).ListModels(ctx).
func ListModels(ctx context.Context, binary string) ([]string, error) {
	return NewModelLister(binary).ListModels(ctx)
}

// ParseModels drops blank lines and the "Available ..." banner.
func ParseModels(output string) []string {
	var models []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "Available") {
			continue
		}
		models = append(models, strings.TrimSpace(line))
	}
	return models
}
