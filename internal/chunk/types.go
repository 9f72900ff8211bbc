// Package chunk turns lessons into retrieval chunks.
//
// A lesson yields, in order: its prose split into overlapping content
// chunks, one chunk per code example, one per assignment, and a single
// merged chunk listing its resources.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Splitter defaults, in runes.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Type identifies what kind of lesson material a chunk came from.
type Type string

const (
	TypeContent    Type = "content"
	TypeCode       Type = "code"
	TypeAssignment Type = "assignment"
	TypeResource   Type = "resource"
)

// Valid reports whether t is a known chunk type.
func (t Type) Valid() bool {
	switch t {
	case TypeContent, TypeCode, TypeAssignment, TypeResource:
		return true
	}
	return false
}

// Metadata locates a chunk in the course tree.
type Metadata struct {
	CourseID       string `json:"courseId"`
	CourseTitle    string `json:"courseTitle"`
	ModuleID       string `json:"moduleId"`
	ModuleTitle    string `json:"moduleTitle"`
	LessonID       string `json:"lessonId"`
	LessonTitle    string `json:"lessonTitle"`
	LessonDuration string `json:"lessonDuration,omitempty"`
	ChunkType      Type   `json:"chunkType"`
	ChunkIndex     int    `json:"chunkIndex"`
	CodeLanguage   string `json:"codeLanguage,omitempty"`
	CodeTitle      string `json:"codeTitle,omitempty"`
}

// Field returns a metadata value by its JSON name. ok is false for unknown
// names. chunkIndex is rendered in base 10.
func (m Metadata) Field(name string) (value string, ok bool) {
	switch name {
	case "courseId":
		return m.CourseID, true
	case "courseTitle":
		return m.CourseTitle, true
	case "moduleId":
		return m.ModuleID, true
	case "moduleTitle":
		return m.ModuleTitle, true
	case "lessonId":
		return m.LessonID, true
	case "lessonTitle":
		return m.LessonTitle, true
	case "lessonDuration":
		return m.LessonDuration, true
	case "chunkType":
		return string(m.ChunkType), true
	case "chunkIndex":
		return strconv.Itoa(m.ChunkIndex), true
	case "codeLanguage":
		return m.CodeLanguage, true
	case "codeTitle":
		return m.CodeTitle, true
	}
	return "", false
}

// FieldNames lists the names accepted by Metadata.Field.
var FieldNames = []string{
	"courseId", "courseTitle", "moduleId", "moduleTitle", "lessonId", "lessonTitle",
	"lessonDuration", "chunkType", "chunkIndex", "codeLanguage", "codeTitle",
}

// Chunk is the retrieval unit stored in the index. Treat as immutable.
type Chunk struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// chunkID is SHA256(course/module/lesson/type/index/discriminator)[:16].
func chunkID(m Metadata, discriminator string) string {
	h := sha256.New()
	for _, part := range []string{m.CourseID, m.ModuleID, m.LessonID, string(m.ChunkType), strconv.Itoa(m.ChunkIndex), discriminator} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
