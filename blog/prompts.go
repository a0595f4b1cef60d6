package blog

import (
	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/internal/util"
)

const writerSystemPrompt = `You are an experienced blog writer. You write well structured, engaging
Markdown articles grounded in the research you are given. Start the article
with a single level-one heading containing the title.`

const writerPromptTemplate = `Write a blog post about "{{ .Topic }}".

Audience: {{ .Audience }}
Tone: {{ .Tone }}
Target length: about {{ .TargetLength }} words
{{- if .Requirements }}
Additional requirements: {{ .Requirements }}
{{- end }}

Research notes:
{{ bullets .Research }}
{{- if .Feedback }}

This is revision {{ .Iteration }}. The editor reviewed the previous draft:
{{ .Feedback }}

Previous draft:
{{ .PreviousDraft }}
{{- end }}`

const editorSystemPrompt = `You are a demanding editor. You review blog drafts for accuracy, structure,
clarity and fit for the intended audience. You answer with a JSON object only.`

const editorPromptTemplate = `Review the following draft about "{{ .Topic }}" written for a {{ .Audience }}
audience in a {{ .Tone }} tone (target about {{ .TargetLength }} words).

Respond with a JSON object with these fields:
  "score": number between 0 and 1
  "feedback": concise, actionable feedback
  "needs_revision": true if the draft must be revised

Draft:
{{ .Draft }}`

// promptData is the view of the state exposed to prompt templates.
type promptData struct {
	Topic         string
	Audience      string
	Tone          string
	TargetLength  int
	Requirements  string
	Research      []string
	Draft         string
	PreviousDraft string
	Feedback      string
	Iteration     int
}

func newPromptData(st *core.State) promptData {
	d := promptData{
		Topic:        st.Topic,
		Audience:     st.Audience,
		Tone:         st.Tone,
		TargetLength: st.TargetLength,
		Research:     st.ResearchData,
		Draft:        st.Draft,
		Iteration:    st.DraftIterations + 1,
	}
	if st.Requirements != nil {
		d.Requirements = *st.Requirements
	}
	if st.NeedsRevision && st.EditorFeedback != nil {
		d.Feedback = *st.EditorFeedback
		d.PreviousDraft = st.Draft
	}
	return d
}

// systemPrompt resolves inst against st, falling back to def when inst is unset.
func systemPrompt(inst Instruction, def string, st *core.State) (string, error) {
	if inst.IsZero() {
		return def, nil
	}
	return inst.Resolve(st)
}

func renderPrompt(tmpl string, st *core.State) (string, error) {
	return util.RenderTemplate(tmpl, newPromptData(st))
}
