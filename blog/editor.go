package blog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/logging"
	"github.com/hupe1980/quillmesh/model"
)

// EditorName is the agent name recorded in the run state.
const EditorName = "Editor"

// DefaultRevisionThreshold is the score below which a draft needs revision.
const DefaultRevisionThreshold = 0.7

// EditorOptions configures an Editor.
type EditorOptions struct {
	Threshold float64
	// Instruction replaces the default system prompt.
	Instruction Instruction
	Logger      logging.Logger
}

// Editor reviews the draft and records a score, feedback and whether a
// revision is needed.
type Editor struct {
	model model.Model
	opts  EditorOptions
}

// NewEditor creates an Editor backed by m.
func NewEditor(m model.Model, optFns ...func(o *EditorOptions)) *Editor {
	opts := EditorOptions{
		Threshold: DefaultRevisionThreshold,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Editor{model: m, opts: opts}
}

// Name implements core.Agent.
func (e *Editor) Name() string { return EditorName }

// ShouldRun returns the gate predicate for the editor: review only when
// editing is enabled and a draft exists.
func ShouldRun(enabled bool) func(*core.State) bool {
	return func(st *core.State) bool {
		return enabled && strings.TrimSpace(st.Draft) != ""
	}
}

// Execute implements core.Agent.
func (e *Editor) Execute(ctx context.Context, st *core.State) (core.Update, error) {
	if strings.TrimSpace(st.Draft) == "" {
		return core.Update{}, fmt.Errorf("%w: blog_post", ErrMissingField)
	}

	system, err := systemPrompt(e.opts.Instruction, editorSystemPrompt, st)
	if err != nil {
		return core.Update{}, fmt.Errorf("resolve instruction: %w", err)
	}

	prompt, err := renderPrompt(editorPromptTemplate, st)
	if err != nil {
		return core.Update{}, fmt.Errorf("render prompt: %w", err)
	}

	req := model.NewPrompt(system, prompt)
	req.JSON = true

	resp, err := model.Complete(ctx, e.model, req, logging.With(e.opts.Logger, "agent", EditorName, "run_id", st.RunID))
	if err != nil {
		return core.Update{}, fmt.Errorf("review draft: %w", err)
	}

	v, err := ParseVerdict(resp.Text, e.opts.Threshold)
	if err != nil {
		return core.Update{}, err
	}

	return core.Update{
		EditorFeedback: core.Ptr(v.Feedback),
		QualityScore:   core.Ptr(v.Score),
		NeedsRevision:  core.Ptr(v.NeedsRevision),
	}, nil
}

// Verdict is the parsed editor review.
type Verdict struct {
	Score         float64
	Feedback      string
	NeedsRevision bool
}

// ParseVerdict extracts the review from a model answer. The JSON object may
// be wrapped in prose or a code fence. Scores on a 0-10 scale are
// normalised to [0,1]. A draft needs revision when the model says so or the
// score is below threshold.
func ParseVerdict(text string, threshold float64) (Verdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Verdict{}, fmt.Errorf("%w: no JSON object in response", ErrInvalidVerdict)
	}

	raw := text[start : end+1]
	if !gjson.Valid(raw) {
		return Verdict{}, fmt.Errorf("%w: malformed JSON", ErrInvalidVerdict)
	}

	doc := gjson.Parse(raw)

	score := doc.Get("score")
	if !score.Exists() {
		score = doc.Get("quality_score")
	}
	if !score.Exists() || (score.Type != gjson.Number && score.Type != gjson.String) {
		return Verdict{}, fmt.Errorf("%w: missing score", ErrInvalidVerdict)
	}

	s := score.Float()
	if score.Type == gjson.String {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(score.Str), 64)
		if err != nil {
			return Verdict{}, fmt.Errorf("%w: score %q is not a number", ErrInvalidVerdict, score.Str)
		}
		s = parsed
	}

	if s > 1 && s <= 10 {
		s /= 10
	}
	s = min(max(s, 0), 1)

	feedback := doc.Get("feedback")
	if !feedback.Exists() {
		feedback = doc.Get("editor_feedback")
	}

	return Verdict{
		Score:         s,
		Feedback:      strings.TrimSpace(feedback.String()),
		NeedsRevision: doc.Get("needs_revision").Bool() || s < threshold,
	}, nil
}
