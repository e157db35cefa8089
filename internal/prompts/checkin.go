// Package prompts implements MCP prompt handlers for the tracker.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// CheckinPrompt handles the daily-checkin MCP prompt.
// It walks the user through logging today's noise exposure.
type CheckinPrompt struct{}

// NewCheckinPrompt creates a CheckinPrompt.
func NewCheckinPrompt() *CheckinPrompt {
	return &CheckinPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *CheckinPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("daily-checkin",
		mcp.WithPromptDescription(
			"Log how noisy today was and how you feel. "+
				"Asks a few short questions and saves a diary entry.",
		),
		mcp.WithArgument("location",
			mcp.ArgumentDescription("Where you spent most of the day (optional)"),
		),
	)
}

// Handle processes the daily-checkin prompt request.
func (p *CheckinPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	location := ""
	if args := req.Params.Arguments; args != nil {
		location = args["location"]
	}

	where := "Ask me where I spent most of the day."
	if location != "" {
		where = fmt.Sprintf("I spent most of the day at: %s. Use it as the location.", location)
	}

	return &mcp.GetPromptResult{
		Description: "Daily noise check-in",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Let's do my daily noise check-in.\n\n" +
						where + "\n\n" +
						"Then:\n" +
						"1. Ask how loud it was: quiet, moderate, loud or veryLoud\n" +
						"2. Ask which of these I felt: good, tired, headache, irritated, sleepy, tinnitus (any number)\n" +
						"3. Optionally ask for the duration and a short note\n" +
						"4. Save it with `diary_add`\n" +
						"5. Run `stats_daily` and tell me in one or two sentences how today compares to the past week",
				),
			},
		},
	}, nil
}
