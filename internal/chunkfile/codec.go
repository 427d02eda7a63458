package chunkfile

import (
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	merrors "github.com/solace-labs/memoria/internal/errors"
)

// frontmatterPattern matches a YAML header delimited by --- lines, mirroring
// the predecessor markdown chunker's frontmatter split.
var frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.*?\n)?---\n?`)

// header is the YAML-serializable shape of everything in a Chunk except
// Content. Field names are chosen to read naturally as a file header.
type header struct {
	ID               string       `yaml:"id"`
	Summary          string       `yaml:"summary"`
	Type             Type         `yaml:"type"`
	Epistemic        Epistemic    `yaml:"epistemic"`
	Status           Status       `yaml:"status"`
	SurfaceTags      []string     `yaml:"surface_tags,omitempty"`
	Related          []RelatedRef `yaml:"related,omitempty"`
	Created          time.Time    `yaml:"created"`
	Updated          time.Time    `yaml:"updated"`
	Accessed         time.Time    `yaml:"accessed"`
	RetrievedCount   int          `yaml:"retrieved_count"`
	RelevantCount    int          `yaml:"relevant_count"`
	LastRelevantDate *time.Time   `yaml:"last_relevant_date,omitempty"`
	Expires          *time.Time   `yaml:"expires,omitempty"`
	ContextNotes     string       `yaml:"context_notes,omitempty"`
}

// Serialize emits a chunk file: a YAML metadata header enclosed in `---`
// delimiters, a blank line, then the content body.
func Serialize(c *Chunk) ([]byte, error) {
	h := header{
		ID:               c.ID,
		Summary:          c.Summary,
		Type:             c.Type,
		Epistemic:        c.Epistemic,
		Status:           c.Status,
		SurfaceTags:      c.SurfaceTags,
		Related:          c.Related,
		Created:          c.Created,
		Updated:          c.Updated,
		Accessed:         c.Accessed,
		RetrievedCount:   c.RetrievedCount,
		RelevantCount:    c.RelevantCount,
		LastRelevantDate: c.LastRelevantDate,
		Expires:          c.Expires,
		ContextNotes:     c.ContextNotes,
	}

	body, err := yaml.Marshal(h)
	if err != nil {
		return nil, merrors.InternalError("failed to marshal chunk header", err)
	}

	var out strings.Builder
	out.WriteString("---\n")
	out.Write(body)
	out.WriteString("---\n\n")
	out.WriteString(c.Content)

	return []byte(out.String()), nil
}

// Parse reverses Serialize. filename is unused by the codec itself (the
// chunk's id lives in the header) but is accepted for symmetry with the
// storage layer, which passes it through for error messages.
func Parse(text []byte, filename string) (*Chunk, error) {
	loc := frontmatterPattern.FindSubmatchIndex(text)
	if loc == nil {
		return nil, merrors.InvalidFormat("missing or unterminated header in "+displayName(filename), nil)
	}

	var rawHeader []byte
	if loc[2] >= 0 {
		rawHeader = text[loc[2]:loc[3]]
	}
	bodyStart := loc[1]

	var h header
	if len(strings.TrimSpace(string(rawHeader))) > 0 {
		if err := yaml.Unmarshal(rawHeader, &h); err != nil {
			return nil, merrors.InvalidFormat("malformed header in "+displayName(filename), err)
		}
	}

	content := strings.TrimPrefix(string(text[bodyStart:]), "\n")

	return &Chunk{
		ID:               h.ID,
		Content:          content,
		Summary:          h.Summary,
		Type:             h.Type,
		Epistemic:        h.Epistemic,
		Status:           h.Status,
		SurfaceTags:      h.SurfaceTags,
		Related:          h.Related,
		Created:          h.Created,
		Updated:          h.Updated,
		Accessed:         h.Accessed,
		RetrievedCount:   h.RetrievedCount,
		RelevantCount:    h.RelevantCount,
		LastRelevantDate: h.LastRelevantDate,
		Expires:          h.Expires,
		ContextNotes:     h.ContextNotes,
	}, nil
}

func displayName(filename string) string {
	if filename == "" {
		return "<unknown file>"
	}
	return filename
}

// Slugify derives the filename slug from a chunk's summary: lowercase,
// runs of non-alphanumeric characters collapsed to a single hyphen, leading
// and trailing hyphens trimmed, truncated to 15 characters, re-trimmed.
func Slugify(summary string) string {
	lower := strings.ToLower(summary)

	var b strings.Builder
	prevDash := false
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevDash = false
			continue
		}
		if !prevDash {
			b.WriteByte('-')
			prevDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > 15 {
		slug = slug[:15]
	}
	return strings.TrimRight(slug, "-")
}
