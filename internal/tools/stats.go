package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/noisedetox/internal/analysis"
	"github.com/HendryAvila/noisedetox/internal/records"
)

// formatOption is the shared markdown/json switch of the stats tools.
func formatOption() mcp.ToolOption {
	return mcp.WithString("format",
		mcp.Description("Output format (default markdown)"),
		mcp.Enum("markdown", "json"),
	)
}

func daysOption() mcp.ToolOption {
	return mcp.WithNumber("days",
		mcp.Description("Trailing window in calendar days, today included (default 7, at most 366)"),
	)
}

// render returns v as JSON or md as text, per the request's format.
func render(req mcp.CallToolRequest, v any, md string) (*mcp.CallToolResult, error) {
	if req.GetString("format", "markdown") == "json" {
		return jsonResult(v)
	}
	return mcp.NewToolResultText(md), nil
}

// StatsNoiseTool handles the stats_noise MCP tool.
type StatsNoiseTool struct {
	store *records.Store
}

// NewStatsNoiseTool creates a StatsNoiseTool.
func NewStatsNoiseTool(store *records.Store) *StatsNoiseTool {
	return &StatsNoiseTool{store: store}
}

// Definition returns the MCP tool definition for stats_noise.
func (t *StatsNoiseTool) Definition() mcp.Tool {
	return mcp.NewTool("stats_noise",
		mcp.WithDescription("Count diary entries per noise level over the whole diary."),
		formatOption(),
	)
}

// Handle processes the stats_noise tool call.
func (t *StatsNoiseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := t.store.DiaryEntries()
	if err != nil {
		return storeError("read diary", err), nil
	}
	stats := analysis.NoiseStats(entries)
	return render(req, stats, analysis.NoiseTable(stats))
}

// StatsWellbeingTool handles the stats_wellbeing MCP tool.
type StatsWellbeingTool struct {
	store *records.Store
}

// NewStatsWellbeingTool creates a StatsWellbeingTool.
func NewStatsWellbeingTool(store *records.Store) *StatsWellbeingTool {
	return &StatsWellbeingTool{store: store}
}

// Definition returns the MCP tool definition for stats_wellbeing.
func (t *StatsWellbeingTool) Definition() mcp.Tool {
	return mcp.NewTool("stats_wellbeing",
		mcp.WithDescription("Count how often each wellbeing tag was reported."),
		formatOption(),
	)
}

// Handle processes the stats_wellbeing tool call.
func (t *StatsWellbeingTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := t.store.DiaryEntries()
	if err != nil {
		return storeError("read diary", err), nil
	}
	stats := analysis.WellbeingStats(entries)
	return render(req, stats, analysis.WellbeingTable(stats))
}

// StatsCorrelationTool handles the stats_correlation MCP tool.
type StatsCorrelationTool struct {
	store *records.Store
}

// NewStatsCorrelationTool creates a StatsCorrelationTool.
func NewStatsCorrelationTool(store *records.Store) *StatsCorrelationTool {
	return &StatsCorrelationTool{store: store}
}

// Definition returns the MCP tool definition for stats_correlation.
func (t *StatsCorrelationTool) Definition() mcp.Tool {
	return mcp.NewTool("stats_correlation",
		mcp.WithDescription(
			"Cross-tabulate noise level against outcome: 'good' counts entries tagged good, "+
				"'bad' counts entries tagged headache, irritated or tinnitus. One entry can count in both.",
		),
		formatOption(),
	)
}

// Handle processes the stats_correlation tool call.
func (t *StatsCorrelationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := t.store.DiaryEntries()
	if err != nil {
		return storeError("read diary", err), nil
	}
	c := analysis.NoiseWellbeingCorrelation(entries)
	return render(req, c, analysis.CorrelationTable(c))
}

// StatsDailyTool handles the stats_daily MCP tool.
type StatsDailyTool struct {
	store *records.Store
}

// NewStatsDailyTool creates a StatsDailyTool.
func NewStatsDailyTool(store *records.Store) *StatsDailyTool {
	return &StatsDailyTool{store: store}
}

// Definition returns the MCP tool definition for stats_daily.
func (t *StatsDailyTool) Definition() mcp.Tool {
	return mcp.NewTool("stats_daily",
		mcp.WithDescription(
			"Average noise severity per day (quiet=1 to veryLoud=4, 0 for days without entries), oldest day first.",
		),
		daysOption(),
		formatOption(),
	)
}

// Handle processes the stats_daily tool call.
func (t *StatsDailyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, bad := daysArg(req)
	if bad != nil {
		return bad, nil
	}
	entries, err := t.store.DiaryEntries()
	if err != nil {
		return storeError("read diary", err), nil
	}
	daily := analysis.DailyNoiseData(entries, days)
	return render(req, daily, analysis.DailyTable(daily))
}

// StatsSummaryTool handles the stats_summary MCP tool.
type StatsSummaryTool struct {
	store *records.Store
}

// NewStatsSummaryTool creates a StatsSummaryTool.
func NewStatsSummaryTool(store *records.Store) *StatsSummaryTool {
	return &StatsSummaryTool{store: store}
}

// Definition returns the MCP tool definition for stats_summary.
func (t *StatsSummaryTool) Definition() mcp.Tool {
	return mcp.NewTool("stats_summary",
		mcp.WithDescription(
			"Full report: totals, noise and wellbeing tables, noise vs wellbeing, the daily series and hearing test averages.",
		),
		daysOption(),
		formatOption(),
	)
}

// Handle processes the stats_summary tool call.
func (t *StatsSummaryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, bad := daysArg(req)
	if bad != nil {
		return bad, nil
	}
	s, err := Summary(t.store, days)
	if err != nil {
		return storeError("build summary", err), nil
	}
	return render(req, s, analysis.Markdown(s))
}

// Summary loads both collections and summarises them. The resources and
// the CLI share it with the stats_summary tool.
func Summary(store *records.Store, days int) (analysis.Summary, error) {
	entries, err := store.DiaryEntries()
	if err != nil {
		return analysis.Summary{}, err
	}
	tests, err := store.HearingTests()
	if err != nil {
		return analysis.Summary{}, err
	}
	return analysis.Summarize(entries, tests, days), nil
}
