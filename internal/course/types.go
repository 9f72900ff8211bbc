// Package course discovers course units under a content root and loads them
// into Course → Module → Lesson trees.
//
// Each unit is a directory holding a course definition file (course.yaml,
// course.yml or course.json). The file's top-level keys are the unit's
// exports; a Resolver picks the one that holds the course.
package course

// Course is the root of a unit's content tree.
type Course struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Modules     []Module `yaml:"modules" json:"modules"`
}

// Module groups lessons inside a course.
type Module struct {
	ID      string   `yaml:"id" json:"id"`
	Title   string   `yaml:"title" json:"title"`
	Lessons []Lesson `yaml:"lessons" json:"lessons"`
}

// Lesson is the unit the chunker works on.
type Lesson struct {
	ID       string `yaml:"id" json:"id"`
	Title    string `yaml:"title" json:"title"`
	Duration string `yaml:"duration,omitempty" json:"duration,omitempty"`
	Content  string `yaml:"content,omitempty" json:"content,omitempty"`

	// ContentFile is a Markdown body relative to the unit directory, read
	// when Content is empty.
	ContentFile string `yaml:"contentFile,omitempty" json:"contentFile,omitempty"`

	CodeExamples []CodeExample `yaml:"codeExamples,omitempty" json:"codeExamples,omitempty"`
	Assignments  []Assignment  `yaml:"assignments,omitempty" json:"assignments,omitempty"`
	Resources    []Resource    `yaml:"resources,omitempty" json:"resources,omitempty"`

	loadErr error
}

// LoadError reports why the lesson's content could not be loaded, or nil.
// The rest of the course is usable when it is set.
func (l *Lesson) LoadError() error { return l.loadErr }

// CodeExample is a titled snippet shown in a lesson.
type CodeExample struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Language    string `yaml:"language" json:"language"`
	Code        string `yaml:"code" json:"code"`
	Explanation string `yaml:"explanation,omitempty" json:"explanation,omitempty"`
}

// Assignment is an exercise attached to a lesson.
type Assignment struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Difficulty  string   `yaml:"difficulty" json:"difficulty"`
	Type        string   `yaml:"type" json:"type"`
	Description string   `yaml:"description" json:"description"`
	InitialCode string   `yaml:"initialCode,omitempty" json:"initialCode,omitempty"`
	Hints       []string `yaml:"hints,omitempty" json:"hints,omitempty"`
}

// Resource is an external link listed under a lesson.
type Resource struct {
	Title string `yaml:"title" json:"title"`
	Type  string `yaml:"type" json:"type"`
	URL   string `yaml:"url" json:"url"`
}

// Counts returns the number of modules and lessons in the course.
func (c *Course) Counts() (modules, lessons int) {
	for _, m := range c.Modules {
		lessons += len(m.Lessons)
	}
	return len(c.Modules), lessons
}
