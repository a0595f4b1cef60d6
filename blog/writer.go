package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/logging"
	"github.com/hupe1980/quillmesh/model"
)

// WriterName is the agent name recorded in the run state.
const WriterName = "Writer"

// DefaultMinWords is the smallest draft the Writer accepts.
const DefaultMinWords = 100

// WriterOptions configures a Writer.
type WriterOptions struct {
	MinWords int
	// Instruction replaces the default system prompt.
	Instruction Instruction
	// Stream requests incremental generation from the model.
	Stream bool
	Logger logging.Logger
}

// Writer drafts the post from the research notes. When the editor asked for
// a revision, the previous draft and feedback are part of the prompt.
type Writer struct {
	model model.Model
	opts  WriterOptions
}

// NewWriter creates a Writer backed by m.
func NewWriter(m model.Model, optFns ...func(o *WriterOptions)) *Writer {
	opts := WriterOptions{
		MinWords: DefaultMinWords,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Writer{model: m, opts: opts}
}

// Name implements core.Agent.
func (w *Writer) Name() string { return WriterName }

// Execute implements core.Agent.
func (w *Writer) Execute(ctx context.Context, st *core.State) (core.Update, error) {
	if len(st.ResearchData) == 0 {
		return core.Update{}, fmt.Errorf("%w: research_data", ErrMissingField)
	}

	system, err := systemPrompt(w.opts.Instruction, writerSystemPrompt, st)
	if err != nil {
		return core.Update{}, fmt.Errorf("resolve instruction: %w", err)
	}

	prompt, err := renderPrompt(writerPromptTemplate, st)
	if err != nil {
		return core.Update{}, fmt.Errorf("render prompt: %w", err)
	}

	req := model.NewPrompt(system, prompt)
	req.Stream = w.opts.Stream

	resp, err := model.Complete(ctx, w.model, req, logging.With(w.opts.Logger, "agent", WriterName, "run_id", st.RunID))
	if err != nil {
		return core.Update{}, fmt.Errorf("generate draft: %w", err)
	}

	draft := strings.TrimSpace(resp.Text)
	words := CountWords(draft)

	if words < w.opts.MinWords {
		return core.Update{}, fmt.Errorf("%w: %d words, need at least %d", ErrDraftTooShort, words, w.opts.MinWords)
	}

	info := w.model.Info()
	update := core.Update{
		Draft: core.Ptr(draft),
		DraftMetadata: map[string]any{
			"word_count": words,
			"model":      info.Name,
			"provider":   info.Provider,
		},
		DraftIterations: core.Ptr(st.DraftIterations + 1),
	}

	if title, ok := ExtractTitle(draft); ok {
		update.DraftTitle = core.Ptr(title)
	}

	return update, nil
}

// ExtractTitle returns the text of the first level-one Markdown heading.
func ExtractTitle(markdown string) (string, bool) {
	for line := range strings.SplitSeq(markdown, "\n") {
		line = strings.TrimSpace(line)
		if title, ok := strings.CutPrefix(line, "# "); ok {
			if title = strings.TrimSpace(title); title != "" {
				return title, true
			}
		}
	}
	return "", false
}

// CountWords counts whitespace separated words.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
