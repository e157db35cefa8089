package prompts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/noisedetox/internal/analysis"
)

// SummaryFunc produces the current summary for a window of days.
type SummaryFunc func(days int) (analysis.Summary, error)

// ReviewPrompt handles the weekly-review MCP prompt.
// It embeds the current report so the AI starts from real numbers.
type ReviewPrompt struct {
	summary SummaryFunc
}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt(summary SummaryFunc) *ReviewPrompt {
	return &ReviewPrompt{summary: summary}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("weekly-review",
		mcp.WithPromptDescription(
			"Review recent noise exposure and wellbeing. "+
				"Highlights patterns between loud days and bad symptoms and suggests next steps.",
		),
		mcp.WithArgument("days",
			mcp.ArgumentDescription("Window in days (default 7, at most 366)"),
		),
	)
}

// Handle processes the weekly-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	days := analysis.DefaultDays
	if args := req.Params.Arguments; args != nil {
		if d, err := strconv.Atoi(args["days"]); err == nil {
			days = analysis.WindowDays(d)
		}
	}

	s, err := p.summary(days)
	if err != nil {
		return nil, fmt.Errorf("building summary: %w", err)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Noise review: last %d days", days),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Here is my noise detox data for the last %d days:\n\n%s\n"+
						"Please:\n"+
						"1. Summarise the week in plain language\n"+
						"2. Point out whether loud or veryLoud days line up with headache, irritated or tinnitus\n"+
						"3. Mention any hearing test trend if there are tests\n"+
						"4. Suggest one or two concrete changes for next week\n"+
						"If you need details for a specific day, use `diary_range`.",
					days, analysis.Markdown(s),
				)),
			},
		},
	}, nil
}
