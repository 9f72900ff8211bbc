package chunk

import (
	"fmt"
	"strings"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/course"
)

// Chunker converts lessons into chunks.
type Chunker struct {
	splitter *RecursiveSplitter
}

// NewChunker creates a chunker that splits prose with splitter.
func NewChunker(splitter *RecursiveSplitter) *Chunker {
	return &Chunker{splitter: splitter}
}

// Chunk emits content chunks (by chunkIndex), then code, assignment and
// resource chunks. Blank fields produce nothing.
func (c *Chunker) Chunk(crs *course.Course, mod *course.Module, lesson *course.Lesson) []Chunk {
	base := Metadata{
		CourseID:       crs.ID,
		CourseTitle:    crs.Title,
		ModuleID:       mod.ID,
		ModuleTitle:    mod.Title,
		LessonID:       lesson.ID,
		LessonTitle:    lesson.Title,
		LessonDuration: lesson.Duration,
	}

	var chunks []Chunk

	for i, piece := range c.splitter.Split(lesson.Content) {
		md := base
		md.ChunkType = TypeContent
		md.ChunkIndex = i
		chunks = append(chunks, Chunk{ID: chunkID(md, ""), Content: piece, Metadata: md})
	}

	for i, ex := range lesson.CodeExamples {
		text := FormatCodeExample(ex)
		if text == "" {
			continue
		}
		md := base
		md.ChunkType = TypeCode
		md.CodeLanguage = ex.Language
		md.CodeTitle = ex.Title
		chunks = append(chunks, Chunk{ID: chunkID(md, fmt.Sprintf("%d:%s", i, ex.ID)), Content: text, Metadata: md})
	}

	for i, a := range lesson.Assignments {
		text := FormatAssignment(a)
		if text == "" {
			continue
		}
		md := base
		md.ChunkType = TypeAssignment
		chunks = append(chunks, Chunk{ID: chunkID(md, fmt.Sprintf("%d:%s", i, a.ID)), Content: text, Metadata: md})
	}

	if text := FormatResources(lesson.Resources); text != "" {
		md := base
		md.ChunkType = TypeResource
		chunks = append(chunks, Chunk{ID: chunkID(md, ""), Content: text, Metadata: md})
	}

	return chunks
}

// FormatCodeExample renders a code example as a labeled block. Examples
// without code are skipped.
func FormatCodeExample(ex course.CodeExample) string {
	if strings.TrimSpace(ex.Code) == "" {
		return ""
	}

	var sb strings.Builder
	if ex.Title != "" {
		fmt.Fprintf(&sb, "# %s\n", ex.Title)
	}
	if ex.Language != "" {
		fmt.Fprintf(&sb, "Language: %s\n", ex.Language)
	}
	writeFence(&sb, ex.Language, ex.Code)
	if exp := strings.TrimSpace(ex.Explanation); exp != "" {
		fmt.Fprintf(&sb, "\n\nExplanation: %s", exp)
	}
	return sb.String()
}

// FormatAssignment renders title, difficulty, type, a blank line and the
// description, followed by optional initial code and hints.
func FormatAssignment(a course.Assignment) string {
	if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.Description) == "" {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Assignment: %s\n", a.Title)
	if a.Difficulty != "" {
		fmt.Fprintf(&sb, "Difficulty: %s\n", a.Difficulty)
	}
	if a.Type != "" {
		fmt.Fprintf(&sb, "Type: %s\n", a.Type)
	}
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(a.Description))

	if strings.TrimSpace(a.InitialCode) != "" {
		sb.WriteString("\n\nInitial Code:\n")
		writeFence(&sb, "", a.InitialCode)
	}

	var hints []string
	for _, h := range a.Hints {
		if h = strings.TrimSpace(h); h != "" {
			hints = append(hints, h)
		}
	}
	if len(hints) > 0 {
		sb.WriteString("\n\nHints:")
		for _, h := range hints {
			fmt.Fprintf(&sb, "\n- %s", h)
		}
	}
	return sb.String()
}

// FormatResources merges resources into one listing, or "" when there are none.
func FormatResources(resources []course.Resource) string {
	var lines []string
	for _, r := range resources {
		if strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.URL) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", r.Title, r.Type, r.URL))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Resources:\n" + strings.Join(lines, "\n")
}

func writeFence(sb *strings.Builder, lang, code string) {
	sb.WriteString("```")
	sb.WriteString(lang)
	sb.WriteString("\n")
	sb.WriteString(strings.TrimRight(code, "\n"))
	sb.WriteString("\n```")
}

// Counts tallies chunks by type.
func Counts(chunks []Chunk) map[Type]int {
	counts := make(map[Type]int, 4)
	for _, ch := range chunks {
		counts[ch.Metadata.ChunkType]++
	}
	return counts
}
