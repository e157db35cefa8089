package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/noisedetox/internal/records"
)

const defaultListLimit = 20

// DiaryAddTool handles the diary_add MCP tool.
type DiaryAddTool struct {
	store  *records.Store
	logger zerolog.Logger
}

// NewDiaryAddTool creates a DiaryAddTool.
func NewDiaryAddTool(store *records.Store, logger zerolog.Logger) *DiaryAddTool {
	return &DiaryAddTool{store: store, logger: logger}
}

// Definition returns the MCP tool definition for diary_add.
func (t *DiaryAddTool) Definition() mcp.Tool {
	return mcp.NewTool("diary_add",
		mcp.WithDescription(
			"Record a noise diary entry: how loud the surroundings were and how the user felt. "+
				"The id and timestamp are assigned automatically.",
		),
		mcp.WithString("noise_level",
			mcp.Description("Perceived noise level"),
			mcp.Enum(noiseLevelValues()...),
		),
		mcp.WithArray("wellbeing",
			mcp.Description("Wellbeing tags felt during or after the exposure"),
			mcp.WithStringItems(mcp.Enum(wellbeingValues()...)),
		),
		mcp.WithString("location",
			mcp.Description("Where it happened (e.g. 'metro', 'office')"),
		),
		mcp.WithString("duration",
			mcp.Description("How long the exposure lasted (free text, e.g. '40 min')"),
		),
		mcp.WithString("notes",
			mcp.Description("Free-form notes"),
		),
	)
}

// Handle processes the diary_add tool call.
func (t *DiaryAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level := records.NoiseLevel(req.GetString("noise_level", ""))
	if level != "" && !level.Known() {
		return mcp.NewToolResultError(fmt.Sprintf(
			"unknown noise_level %q (want one of: %s)", level, strings.Join(noiseLevelValues(), ", "))), nil
	}

	var tags []records.WellbeingTag
	for _, s := range stringsArg(req, "wellbeing") {
		tag := records.WellbeingTag(s)
		if !tag.Known() {
			return mcp.NewToolResultError(fmt.Sprintf(
				"unknown wellbeing tag %q (want any of: %s)", s, strings.Join(wellbeingValues(), ", "))), nil
		}
		tags = append(tags, tag)
	}

	if level == "" && len(tags) == 0 && req.GetString("notes", "") == "" {
		return mcp.NewToolResultError("provide at least one of 'noise_level', 'wellbeing' or 'notes'"), nil
	}

	entry, err := t.store.AddDiaryEntry(&records.DiaryEntry{
		NoiseLevel: level,
		Wellbeing:  tags,
		Location:   req.GetString("location", ""),
		Duration:   req.GetString("duration", ""),
		Notes:      req.GetString("notes", ""),
	})
	if err != nil {
		t.logger.Error().Err(err).Msg("diary_add failed")
		return storeError("save diary entry", err), nil
	}

	t.logger.Debug().Str("id", entry.ID).Str("noise_level", string(level)).Msg("diary entry added")
	return mcp.NewToolResultText("Diary entry saved\n" + describeEntry(*entry)), nil
}

// ─── DiaryListTool ──────────────────────────────────────────────────────────

// DiaryListTool handles the diary_list MCP tool.
type DiaryListTool struct {
	store *records.Store
}

// NewDiaryListTool creates a DiaryListTool.
func NewDiaryListTool(store *records.Store) *DiaryListTool {
	return &DiaryListTool{store: store}
}

// Definition returns the MCP tool definition for diary_list.
func (t *DiaryListTool) Definition() mcp.Tool {
	return mcp.NewTool("diary_list",
		mcp.WithDescription("List diary entries, newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Max entries to show (default 20, 0 for all)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format (default markdown)"),
			mcp.Enum("markdown", "json"),
		),
	)
}

// Handle processes the diary_list tool call.
func (t *DiaryListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := t.store.DiaryEntries()
	if err != nil {
		return storeError("read diary", err), nil
	}
	return renderEntries("Diary", entries, intArg(req, "limit", defaultListLimit), req.GetString("format", "markdown"))
}

// renderEntries shows entries newest first, trimmed to limit (0 = all).
func renderEntries(title string, entries []records.DiaryEntry, limit int, format string) (*mcp.CallToolResult, error) {
	total := len(entries)
	newest := make([]records.DiaryEntry, 0, total)
	for i := total - 1; i >= 0; i-- {
		newest = append(newest, entries[i])
	}
	if limit > 0 && len(newest) > limit {
		newest = newest[:limit]
	}

	if format == "json" {
		return jsonResult(newest)
	}

	if total == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("## %s\n\nNo entries yet.", title)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s (%d of %d)\n\n", title, len(newest), total))
	for _, e := range newest {
		sb.WriteString(describeEntry(e))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── DiaryDeleteTool ────────────────────────────────────────────────────────

// DiaryDeleteTool handles the diary_delete MCP tool.
type DiaryDeleteTool struct {
	store  *records.Store
	logger zerolog.Logger
}

// NewDiaryDeleteTool creates a DiaryDeleteTool.
func NewDiaryDeleteTool(store *records.Store, logger zerolog.Logger) *DiaryDeleteTool {
	return &DiaryDeleteTool{store: store, logger: logger}
}

// Definition returns the MCP tool definition for diary_delete.
func (t *DiaryDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("diary_delete",
		mcp.WithDescription("Delete the diary entry with the given id. Deleting an unknown id changes nothing."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry id as shown by diary_list"),
		),
	)
}

// Handle processes the diary_delete tool call.
func (t *DiaryDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	before, err := t.store.DiaryEntries()
	if err != nil {
		return storeError("read diary", err), nil
	}
	if err := t.store.DeleteDiaryEntry(id); err != nil {
		t.logger.Error().Err(err).Str("id", id).Msg("diary_delete failed")
		return storeError("delete diary entry", err), nil
	}

	removed := 0
	for _, e := range before {
		if e.ID == id {
			removed++
		}
	}
	if removed == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No diary entry with ID %s; nothing changed.", id)), nil
	}
	t.logger.Debug().Str("id", id).Int("removed", removed).Msg("diary entry deleted")
	return mcp.NewToolResultText(fmt.Sprintf("Deleted diary entry %s", id)), nil
}

// ─── DiaryRangeTool ─────────────────────────────────────────────────────────

// DiaryRangeTool handles the diary_range MCP tool.
type DiaryRangeTool struct {
	store *records.Store
}

// NewDiaryRangeTool creates a DiaryRangeTool.
func NewDiaryRangeTool(store *records.Store) *DiaryRangeTool {
	return &DiaryRangeTool{store: store}
}

// Definition returns the MCP tool definition for diary_range.
func (t *DiaryRangeTool) Definition() mcp.Tool {
	return mcp.NewTool("diary_range",
		mcp.WithDescription(
			"List diary entries recorded between two dates, both ends inclusive. "+
				"Bare dates cover the whole day.",
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start date (YYYY-MM-DD) or RFC 3339 instant"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End date (YYYY-MM-DD) or RFC 3339 instant"),
		),
		mcp.WithString("format",
			mcp.Description("Output format (default markdown)"),
			mcp.Enum("markdown", "json"),
		),
	)
}

// Handle processes the diary_range tool call.
func (t *DiaryRangeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	startArg := req.GetString("start", "")
	endArg := req.GetString("end", "")
	if startArg == "" || endArg == "" {
		return mcp.NewToolResultError("'start' and 'end' are required"), nil
	}

	start, err := parseBound(startArg, false)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("start: %v", err)), nil
	}
	end, err := parseBound(endArg, true)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("end: %v", err)), nil
	}
	if end.Before(start) {
		return mcp.NewToolResultError("'end' is before 'start'"), nil
	}

	entries, err := t.store.DiaryEntriesBetween(start, end)
	if err != nil {
		return storeError("read diary", err), nil
	}
	return renderEntries(fmt.Sprintf("Diary %s to %s", startArg, endArg), entries, 0, req.GetString("format", "markdown"))
}
