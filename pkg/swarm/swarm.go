// Package swarm reads the planning artifacts a multi-agent run keeps under
// a project's .opencode directory.
package swarm

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	swerrors "github.com/grovetools/swarmstat/errors"
	"github.com/grovetools/swarmstat/util/frontmatter"
)

// Dir is the per-project directory holding planning artifacts.
const Dir = ".opencode"

// PreviewBytes bounds the requirement body preview.
const PreviewBytes = 200

var taskPattern = regexp.MustCompile(`(?im)^[-*]\s*\[([x ])\]\s*(?:\*\*)?(\d+(?:\.\d+)?)\*?\*?[:.]\s*(.+?)(?:\s*\(([^)]+)\))?$`)

// File is one markdown artifact with its front matter.
type File struct {
	File    string                 `json:"file"`
	Path    string                 `json:"path"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
	Preview string                 `json:"preview,omitempty"`
}

// TaskItem is a checklist line such as "- [x] 1.2: Wire the router (coder)".
type TaskItem struct {
	ID    string `json:"id"`
	Done  bool   `json:"done"`
	Title string `json:"title"`
	Agent string `json:"agent,omitempty"`
}

// TaskList is a task or plan file and its parsed checklist.
type TaskList struct {
	File
	Items []TaskItem `json:"items"`
}

// Done counts completed items.
func (t TaskList) Done() int {
	n := 0
	for _, it := range t.Items {
		if it.Done {
			n++
		}
	}
	return n
}

// Validation groups the phase reports written for one task.
type Validation struct {
	TaskID string `json:"taskId"`
	Phases []File `json:"phases"`
}

// Artifacts is everything found under a project's .opencode directory.
type Artifacts struct {
	Requirements []File       `json:"requirements"`
	Designs      []File       `json:"designs"`
	Tasks        []TaskList   `json:"tasks"`
	Context      []File       `json:"context"`
	Validations  []Validation `json:"validations"`
}

// Load reads the artifacts of the project rooted at projectDir. Unreadable
// files are skipped; a missing .opencode directory is an error.
func Load(projectDir string) (*Artifacts, error) {
	root := filepath.Join(projectDir, Dir)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, swerrors.ArtifactsNotFound(projectDir)
	}

	a := &Artifacts{
		Requirements: []File{},
		Designs:      []File{},
		Tasks:        []TaskList{},
		Context:      []File{},
		Validations:  []Validation{},
	}

	for _, doc := range readDocs(root, "requirements") {
		f := doc.file
		f.Preview = preview(doc.Body)
		a.Requirements = append(a.Requirements, f)
	}
	for _, doc := range readDocs(root, "designs") {
		a.Designs = append(a.Designs, doc.file)
	}
	for _, sub := range []string{"tasks", "plans"} {
		for _, doc := range readDocs(root, sub) {
			a.Tasks = append(a.Tasks, TaskList{File: doc.file, Items: ParseTasks(doc.Body)})
		}
	}
	for _, doc := range readDocs(root, "context") {
		a.Context = append(a.Context, doc.file)
	}

	valRoot := filepath.Join(root, "validations")
	for _, name := range listDir(valRoot) {
		if info, err := os.Stat(filepath.Join(valRoot, name)); err != nil || !info.IsDir() {
			continue
		}
		v := Validation{TaskID: name, Phases: []File{}}
		for _, doc := range readDocs(root, filepath.Join("validations", name)) {
			v.Phases = append(v.Phases, doc.file)
		}
		a.Validations = append(a.Validations, v)
	}
	return a, nil
}

// ParseTasks extracts numbered checklist items from a markdown body.
func ParseTasks(body string) []TaskItem {
	items := []TaskItem{}
	for _, m := range taskPattern.FindAllStringSubmatch(body, -1) {
		items = append(items, TaskItem{
			ID:    m[2],
			Done:  strings.EqualFold(m[1], "x"),
			Title: strings.TrimSpace(m[3]),
			Agent: m[4],
		})
	}
	return items
}

// ReadFile returns the contents of an artifact. Paths that do not resolve
// inside a .opencode directory are refused.
func ReadFile(path string) ([]byte, error) {
	if !strings.Contains(path, Dir+"/") {
		return nil, swerrors.ForbiddenPath(path)
	}
	clean := filepath.Clean(path)
	if !inArtifactDir(clean) {
		return nil, swerrors.ForbiddenPath(path)
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func inArtifactDir(clean string) bool {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(clean)), "/") {
		if part == Dir {
			return true
		}
	}
	return false
}

type doc struct {
	file File
	Body string
}

func readDocs(root, sub string) []doc {
	dir := filepath.Join(root, sub)
	var out []doc
	for _, name := range listDir(dir) {
		if !strings.HasSuffix(name, ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		parsed := frontmatter.ParseString(string(data))
		f := File{
			File: name,
			Path: filepath.ToSlash(filepath.Join(Dir, sub, name)),
		}
		if len(parsed.Fields) > 0 {
			f.Meta = parsed.Fields
		}
		out = append(out, doc{file: f, Body: parsed.Body})
	}
	return out
}

func listDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func preview(body string) string {
	if len(body) <= PreviewBytes {
		return body
	}
	cut := body[:PreviewBytes]
	// avoid splitting a multi-byte rune
	for len(cut) > 0 && !utf8Start(body[len(cut)]) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
