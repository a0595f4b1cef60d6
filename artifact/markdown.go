package artifact

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/quillmesh/core"
)

// PostArtifactID is the artifact id under which a run's post is stored.
const PostArtifactID = "post.md"

const frontMatterDelim = "---"

// FrontMatter is the YAML header of a rendered post.
type FrontMatter struct {
	Title           string        `yaml:"title"`
	Topic           string        `yaml:"topic"`
	RunID           string        `yaml:"run_id"`
	Audience        string        `yaml:"audience"`
	Tone            string        `yaml:"tone"`
	WordCount       int           `yaml:"word_count"`
	Iterations      int           `yaml:"draft_iterations"`
	QualityScore    *float64      `yaml:"quality_score,omitempty"`
	ResearchQuality string        `yaml:"research_quality"`
	Version         int           `yaml:"version"`
	GeneratedAt     time.Time     `yaml:"generated_at"`
	Sources         []core.Source `yaml:"sources,omitempty"`
}

// Document is a parsed post: front matter plus Markdown body.
type Document struct {
	FrontMatter `yaml:",inline"`
	Body        string `yaml:"-"`
}

// NewDocument builds the document for a finished run state.
func NewDocument(st *core.State) (*Document, error) {
	body := strings.TrimSpace(st.Draft)
	if body == "" {
		return nil, ErrNoDraft
	}

	title := st.Topic
	if st.DraftTitle != nil && *st.DraftTitle != "" {
		title = *st.DraftTitle
	}

	return &Document{
		FrontMatter: FrontMatter{
			Title:           title,
			Topic:           st.Topic,
			RunID:           st.RunID,
			Audience:        st.Audience,
			Tone:            st.Tone,
			WordCount:       len(strings.Fields(body)),
			Iterations:      st.DraftIterations,
			QualityScore:    st.QualityScore,
			ResearchQuality: st.ResearchQuality.String(),
			Version:         st.Version,
			GeneratedAt:     st.LastModifiedAt.UTC(),
			Sources:         st.ResearchSources,
		},
		Body: body,
	}, nil
}

// Render encodes the document as front matter followed by the body.
func (d *Document) Render() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(frontMatterDelim + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.FrontMatter); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}

	buf.WriteString(frontMatterDelim + "\n\n")
	buf.WriteString(d.Body)
	buf.WriteString("\n")

	return buf.Bytes(), nil
}

// RenderMarkdown renders the post of a finished run state.
func RenderMarkdown(st *core.State) ([]byte, error) {
	doc, err := NewDocument(st)
	if err != nil {
		return nil, err
	}
	return doc.Render()
}

// ParseMarkdown reads a document produced by Render.
func ParseMarkdown(data []byte) (*Document, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	rest, ok := strings.CutPrefix(text, frontMatterDelim+"\n")
	if !ok {
		return nil, ErrNoFrontMatter
	}

	header, body, ok := strings.Cut(rest, "\n"+frontMatterDelim+"\n")
	if !ok {
		return nil, ErrNoFrontMatter
	}

	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return nil, fmt.Errorf("decode front matter: %w", err)
	}

	return &Document{FrontMatter: fm, Body: strings.TrimSpace(body)}, nil
}
