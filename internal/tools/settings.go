package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/noisedetox/internal/records"
)

var themes = []string{"light", "dark"}

// SettingsGetTool handles the settings_get MCP tool.
type SettingsGetTool struct {
	store *records.Store
}

// NewSettingsGetTool creates a SettingsGetTool.
func NewSettingsGetTool(store *records.Store) *SettingsGetTool {
	return &SettingsGetTool{store: store}
}

// Definition returns the MCP tool definition for settings_get.
func (t *SettingsGetTool) Definition() mcp.Tool {
	return mcp.NewTool("settings_get",
		mcp.WithDescription("Show the user's settings. Defaults are returned when nothing has been saved."),
	)
}

// Handle processes the settings_get tool call.
func (t *SettingsGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.store.Settings()
	if err != nil {
		return storeError("read settings", err), nil
	}
	return jsonResult(s)
}

// ─── SettingsSaveTool ───────────────────────────────────────────────────────

// SettingsSaveTool handles the settings_save MCP tool.
type SettingsSaveTool struct {
	store  *records.Store
	logger zerolog.Logger
}

// NewSettingsSaveTool creates a SettingsSaveTool.
func NewSettingsSaveTool(store *records.Store, logger zerolog.Logger) *SettingsSaveTool {
	return &SettingsSaveTool{store: store, logger: logger}
}

// Definition returns the MCP tool definition for settings_save.
func (t *SettingsSaveTool) Definition() mcp.Tool {
	return mcp.NewTool("settings_save",
		mcp.WithDescription(
			"Change settings. Only the fields passed are changed; the rest keep their current value.",
		),
		mcp.WithBoolean("notifications",
			mcp.Description("Show reminder notifications"),
		),
		mcp.WithString("theme",
			mcp.Description("Colour theme"),
			mcp.Enum(themes...),
		),
	)
}

// Handle processes the settings_save tool call.
func (t *SettingsSaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	_, hasNotifications := args["notifications"].(bool)
	theme := req.GetString("theme", "")
	if !hasNotifications && theme == "" {
		return mcp.NewToolResultError("provide 'notifications' and/or 'theme'"), nil
	}
	if theme != "" && theme != "light" && theme != "dark" {
		return mcp.NewToolResultError(fmt.Sprintf("unknown theme %q (want light or dark)", theme)), nil
	}

	var patch records.SettingsPatch
	if hasNotifications {
		v := boolArg(req, "notifications", false)
		patch.Notifications = &v
	}
	if theme != "" {
		patch.Theme = &theme
	}

	s, err := t.store.UpdateSettings(patch)
	if err != nil {
		t.logger.Error().Err(err).Msg("settings_save failed")
		return storeError("save settings", err), nil
	}
	t.logger.Debug().Bool("notifications", s.Notifications).Str("theme", s.Theme).Msg("settings saved")
	return jsonResult(s)
}
