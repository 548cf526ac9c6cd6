package prompt

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
	"time"

	"github.com/aide-dev/aide/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed template/base.md
var basePromptRaw string

var basePromptTmpl = template.Must(template.New("base").Parse(basePromptRaw))

const (
	guidanceSensitiveResearch = "This request touches on a sensitive topic and asks for research. Present balanced, well-sourced information, separate established facts from contested claims, and do not take partisan positions."
	guidanceSensitive         = "This request touches on a sensitive topic. Stay neutral and factual, present the main perspectives where they differ, and suggest consulting a qualified professional when appropriate."
	guidanceResearch          = "This request asks for research. Organize the answer logically, mention the kinds of sources a reader could check, and note the limits of what is known."
	guidanceTimeSensitive     = "Timeliness matters for this request. Your knowledge has a cutoff date, so point out when information may have changed since then and suggest verifying it with a current source."

	userPromptMarker        = "User prompt:"
	assistantResponseMarker = "Assistant response:"
)

// Input is the source of a contextual prompt
type Input struct {
	Prompt       string
	ExtraContext string
	Now          time.Time
}

// Result is the composed prompt and the flags that shaped it
type Result struct {
	Text  string
	Flags Flags
}

// Build composes the text sent to the model: persona with the current date
// and time, topic guidance selected by the prompt's flags, optional operator
// context, and finally the user's prompt. It has no side effects.
func Build(input Input) (*Result, error) {
	userPrompt := strings.TrimSpace(input.Prompt)
	if userPrompt == "" {
		return nil, model.NewValidationError("Prompt is empty. Please enter a question or request.")
	}

	flags := Classify(userPrompt)

	var base bytes.Buffer
	if err := basePromptTmpl.Execute(&base, struct {
		Date string
		Time string
	}{
		Date: input.Now.Format("January 2, 2006"),
		Time: input.Now.Format("15:04 MST"),
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to render base prompt")
	}

	lines := []string{strings.TrimSpace(base.String())}

	switch {
	case flags.IsSensitive && flags.IsResearch:
		lines = append(lines, guidanceSensitiveResearch)
	case flags.IsSensitive:
		lines = append(lines, guidanceSensitive)
	case flags.IsResearch:
		lines = append(lines, guidanceResearch)
	}

	if flags.IsTimeSensitive {
		lines = append(lines, guidanceTimeSensitive)
	}

	if extra := strings.TrimSpace(input.ExtraContext); extra != "" {
		lines = append(lines, "Additional context: "+extra)
	}

	lines = append(lines,
		"",
		userPromptMarker,
		userPrompt,
		"",
		assistantResponseMarker,
	)

	return &Result{
		Text:  strings.Join(lines, "\n"),
		Flags: flags,
	}, nil
}
