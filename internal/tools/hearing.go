package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/noisedetox/internal/dates"
	"github.com/HendryAvila/noisedetox/internal/records"
)

// HearingAddTool handles the hearing_add MCP tool.
type HearingAddTool struct {
	store  *records.Store
	logger zerolog.Logger
}

// NewHearingAddTool creates a HearingAddTool.
func NewHearingAddTool(store *records.Store, logger zerolog.Logger) *HearingAddTool {
	return &HearingAddTool{store: store, logger: logger}
}

// Definition returns the MCP tool definition for hearing_add.
func (t *HearingAddTool) Definition() mcp.Tool {
	return mcp.NewTool("hearing_add",
		mcp.WithDescription(
			"Store the result of a hearing self-test. Hearing tests are append-only.",
		),
		mcp.WithNumber("score",
			mcp.Description("Overall score (0-100)"),
		),
		mcp.WithNumber("left_ear",
			mcp.Description("Left ear score (0-100)"),
		),
		mcp.WithNumber("right_ear",
			mcp.Description("Right ear score (0-100)"),
		),
		mcp.WithString("notes",
			mcp.Description("Conditions of the test, headphones used, etc."),
		),
	)
}

// Handle processes the hearing_add tool call.
func (t *HearingAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h := &records.HearingTest{
		Score:    floatArg(req, "score"),
		LeftEar:  floatArg(req, "left_ear"),
		RightEar: floatArg(req, "right_ear"),
		Notes:    req.GetString("notes", ""),
	}
	if h.Score == nil && h.LeftEar == nil && h.RightEar == nil {
		return mcp.NewToolResultError("provide at least one of 'score', 'left_ear' or 'right_ear'"), nil
	}
	for name, v := range map[string]*float64{"score": h.Score, "left_ear": h.LeftEar, "right_ear": h.RightEar} {
		if v != nil && (*v < 0 || *v > 100) {
			return mcp.NewToolResultError(fmt.Sprintf("'%s' must be between 0 and 100, got %g", name, *v)), nil
		}
	}

	saved, err := t.store.AddHearingTest(h)
	if err != nil {
		t.logger.Error().Err(err).Msg("hearing_add failed")
		return storeError("save hearing test", err), nil
	}

	t.logger.Debug().Str("id", saved.ID).Msg("hearing test added")
	return mcp.NewToolResultText("Hearing test saved\n" + describeTest(*saved)), nil
}

// ─── HearingListTool ────────────────────────────────────────────────────────

// HearingListTool handles the hearing_list MCP tool.
type HearingListTool struct {
	store *records.Store
}

// NewHearingListTool creates a HearingListTool.
func NewHearingListTool(store *records.Store) *HearingListTool {
	return &HearingListTool{store: store}
}

// Definition returns the MCP tool definition for hearing_list.
func (t *HearingListTool) Definition() mcp.Tool {
	return mcp.NewTool("hearing_list",
		mcp.WithDescription("List stored hearing tests, newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Max tests to show (default 20, 0 for all)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format (default markdown)"),
			mcp.Enum("markdown", "json"),
		),
	)
}

// Handle processes the hearing_list tool call.
func (t *HearingListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tests, err := t.store.HearingTests()
	if err != nil {
		return storeError("read hearing tests", err), nil
	}

	total := len(tests)
	newest := make([]records.HearingTest, 0, total)
	for i := total - 1; i >= 0; i-- {
		newest = append(newest, tests[i])
	}
	if limit := intArg(req, "limit", defaultListLimit); limit > 0 && len(newest) > limit {
		newest = newest[:limit]
	}

	if req.GetString("format", "markdown") == "json" {
		return jsonResult(newest)
	}
	if total == 0 {
		return mcp.NewToolResultText("## Hearing tests\n\nNo tests yet."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Hearing tests (%d of %d)\n\n", len(newest), total))
	for _, h := range newest {
		sb.WriteString(describeTest(h))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func describeTest(h records.HearingTest) string {
	when := h.Timestamp
	if t, ok := h.Time(); ok {
		when = dates.FormatDateTime(t)
	}

	var parts []string
	if h.Score != nil {
		parts = append(parts, fmt.Sprintf("score %g", *h.Score))
	}
	if h.LeftEar != nil {
		parts = append(parts, fmt.Sprintf("left %g", *h.LeftEar))
	}
	if h.RightEar != nil {
		parts = append(parts, fmt.Sprintf("right %g", *h.RightEar))
	}
	if len(parts) == 0 {
		parts = append(parts, "no scores")
	}

	line := fmt.Sprintf("- **%s** · %s (ID: %s)\n", when, strings.Join(parts, ", "), h.ID)
	if h.Notes != "" {
		line += "  " + h.Notes + "\n"
	}
	return line
}
