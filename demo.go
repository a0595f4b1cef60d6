package quillmesh

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/quillmesh/model"
)

var (
	topicPattern  = regexp.MustCompile(`about "([^"]+)"`)
	targetPattern = regexp.MustCompile(`Target length: about (\d+) words`)
)

// NewDemoModel returns an offline model that answers writer prompts with a
// deterministic Markdown post built from the research notes and editor
// prompts with an approving JSON verdict. It backs the "mock" model
// provider.
func NewDemoModel() *model.MockModel {
	m := model.NewMockModel("demo")
	m.SetResponder(demoResponse)
	return m
}

func demoResponse(req model.Request) (string, error) {
	prompt := req.Prompt()

	topic := "the topic"
	if match := topicPattern.FindStringSubmatch(prompt); match != nil {
		topic = match[1]
	}

	if req.JSON {
		return fmt.Sprintf(`{"score": 0.86, "feedback": "Clear structure and a good fit for the audience. Tighten the conclusion on %s.", "needs_revision": false}`, topic), nil
	}

	target := 300
	if match := targetPattern.FindStringSubmatch(prompt); match != nil {
		_, _ = fmt.Sscanf(match[1], "%d", &target)
	}

	var notes []string
	for line := range strings.Lines(prompt) {
		if note, ok := strings.CutPrefix(strings.TrimSpace(line), "- "); ok {
			notes = append(notes, note)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s: A Practical Overview\n\n", topic)
	fmt.Fprintf(&b, "This post walks through %s, what it is, where it helps and what to watch out for.\n\n", topic)

	if len(notes) > 0 {
		b.WriteString("## What the research says\n\n")
		for _, n := range notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Putting it into practice\n\n")
	for words := len(strings.Fields(b.String())); words < target; words = len(strings.Fields(b.String())) {
		fmt.Fprintf(&b, "Teams adopting %s tend to start small, measure the effect on their daily work "+
			"and expand only once the benefits are visible. Document the decisions you make along the way "+
			"so that the next iteration builds on evidence rather than memory.\n\n", topic)
	}

	b.WriteString("## Conclusion\n\n")
	fmt.Fprintf(&b, "%s rewards a deliberate, incremental approach.\n", topic)

	return b.String(), nil
}
