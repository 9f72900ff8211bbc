package course

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
)

// DefinitionFiles are the accepted course definition names, in lookup order.
// YAML is a superset of JSON, so one parser serves all three.
var DefinitionFiles = []string{"course.yaml", "course.yml", "course.json"}

// Loader reads course units from a content root directory.
type Loader struct {
	root     string
	resolver *Resolver
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithResolver replaces the default export resolver.
func WithResolver(r *Resolver) LoaderOption {
	return func(l *Loader) {
		l.resolver = r
	}
}

// NewLoader creates a loader for root.
func NewLoader(root string, opts ...LoaderOption) *Loader {
	l := &Loader{root: root, resolver: DefaultResolver()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Root returns the content root.
func (l *Loader) Root() string { return l.root }

// ListUnits returns one identifier per non-hidden directory under the root,
// sorted by name.
func (l *Loader) ListUnits(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, ragerrors.New(ragerrors.ErrCodeContentRoot,
			fmt.Sprintf("cannot read content root %s", l.root), err).
			WithSuggestion("set paths.content_root in .ragindex.yaml or pass --content")
	}

	units := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		units = append(units, e.Name())
	}
	sort.Strings(units)
	return units, nil
}

// LoadCourse reads and resolves the course definition for unitID.
func (l *Loader) LoadCourse(ctx context.Context, unitID string) (*Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unitDir := filepath.Join(l.root, unitID)
	path, data, err := readDefinition(unitDir)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, ragerrors.New(ragerrors.ErrCodeInvalidCourse,
			fmt.Sprintf("parse %s", path), err)
	}

	exports, err := exportsOf(&doc)
	if err != nil {
		return nil, ragerrors.New(ragerrors.ErrCodeInvalidCourse,
			fmt.Sprintf("%s: %v", path, err), err)
	}

	exp, strategy, err := l.resolver.Resolve(unitID, exports)
	if err != nil {
		return nil, err
	}

	var c Course
	if err := exp.Value.Decode(&c); err != nil {
		return nil, ragerrors.New(ragerrors.ErrCodeInvalidCourse,
			fmt.Sprintf("decode export %q in %s", exp.Name, path), err)
	}
	if c.ID == "" {
		return nil, ragerrors.New(ragerrors.ErrCodeInvalidCourse,
			fmt.Sprintf("export %q in %s has no id", exp.Name, path), nil)
	}

	resolveContentFiles(unitDir, &c)

	slog.Debug("course_resolved",
		slog.String("unit", unitID),
		slog.String("export", exp.Name),
		slog.String("strategy", strategy),
		slog.Int("modules", len(c.Modules)))

	return &c, nil
}

func readDefinition(unitDir string) (string, []byte, error) {
	for _, name := range DefinitionFiles {
		path := filepath.Join(unitDir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return path, data, nil
		}
		if !os.IsNotExist(err) {
			return "", nil, ragerrors.New(ragerrors.ErrCodeFilePermission,
				fmt.Sprintf("read %s", path), err)
		}
	}
	return "", nil, ragerrors.New(ragerrors.ErrCodeFileNotFound,
		fmt.Sprintf("no course definition in %s (expected one of %s)",
			unitDir, strings.Join(DefinitionFiles, ", ")), nil)
}

// resolveContentFiles fills Lesson.Content from ContentFile where needed.
// Paths must stay inside the unit directory. A file that cannot be read is
// recorded on its lesson only; see Lesson.LoadError.
func resolveContentFiles(unitDir string, c *Course) {
	for mi := range c.Modules {
		for li := range c.Modules[mi].Lessons {
			lesson := &c.Modules[mi].Lessons[li]
			if lesson.Content != "" || lesson.ContentFile == "" {
				continue
			}

			rel := filepath.Clean(lesson.ContentFile)
			if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				lesson.loadErr = ragerrors.New(ragerrors.ErrCodeInvalidCourse,
					fmt.Sprintf("lesson %s: contentFile %q escapes the unit directory", lesson.ID, lesson.ContentFile), nil)
				continue
			}

			data, err := os.ReadFile(filepath.Join(unitDir, rel))
			if err != nil {
				lesson.loadErr = ragerrors.New(ragerrors.ErrCodeFileNotFound,
					fmt.Sprintf("lesson %s: read contentFile %s", lesson.ID, lesson.ContentFile), err)
				continue
			}
			lesson.Content = string(data)
		}
	}
}
