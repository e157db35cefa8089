package tools

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/noisedetox/internal/notify"
	"github.com/HendryAvila/noisedetox/internal/records"
	"github.com/HendryAvila/noisedetox/internal/transfer"
)

// appendMessages adds recorded notifications to a tool response.
func appendMessages(sb *strings.Builder, rec *notify.Recorder) {
	for _, m := range rec.Messages() {
		sb.WriteString(fmt.Sprintf("\n[%s] %s", m.Kind, m.Text))
	}
}

// DataExportTool handles the data_export MCP tool.
type DataExportTool struct {
	store      *records.Store
	defaultDir string
	logger     zerolog.Logger
}

// NewDataExportTool creates a DataExportTool writing into defaultDir unless
// the call names another directory.
func NewDataExportTool(store *records.Store, defaultDir string, logger zerolog.Logger) *DataExportTool {
	return &DataExportTool{store: store, defaultDir: defaultDir, logger: logger}
}

// Definition returns the MCP tool definition for data_export.
func (t *DataExportTool) Definition() mcp.Tool {
	return mcp.NewTool("data_export",
		mcp.WithDescription(
			"Back up all data (diary, hearing tests, settings) to noise-detox-data-<date>.json. "+
				"With inline=true the document is returned instead of written.",
		),
		mcp.WithString("dir",
			mcp.Description("Directory to write into (default: configured export directory)"),
		),
		mcp.WithBoolean("inline",
			mcp.Description("Return the JSON document in the response instead of writing a file"),
		),
	)
}

// Handle processes the data_export tool call.
func (t *DataExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if boolArg(req, "inline", false) {
		doc, err := t.store.Export()
		if err != nil {
			return storeError("export", err), nil
		}
		var buf bytes.Buffer
		if err := transfer.Encode(doc, &buf); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(buf.String()), nil
	}

	dir := req.GetString("dir", t.defaultDir)
	rec := &notify.Recorder{}
	path, err := transfer.Export(t.store, dir, notify.Fanout{rec, notify.NewLog(t.logger)})
	if err != nil {
		t.logger.Error().Err(err).Str("dir", dir).Msg("data_export failed")
		return storeError("export", err), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Exported to %s", path))
	appendMessages(&sb, rec)
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── DataImportTool ─────────────────────────────────────────────────────────

// DataImportTool handles the data_import MCP tool.
type DataImportTool struct {
	store  *records.Store
	logger zerolog.Logger
}

// NewDataImportTool creates a DataImportTool.
func NewDataImportTool(store *records.Store, logger zerolog.Logger) *DataImportTool {
	return &DataImportTool{store: store, logger: logger}
}

// Definition returns the MCP tool definition for data_import.
func (t *DataImportTool) Definition() mcp.Tool {
	return mcp.NewTool("data_import",
		mcp.WithDescription(
			"Restore data from an export document. Each section present (diary, hearing, settings) "+
				"replaces the stored one wholesale; absent sections are left alone. "+
				"A document that is not valid JSON changes nothing.",
		),
		mcp.WithString("path",
			mcp.Description("Path of the JSON file to import"),
		),
		mcp.WithString("document",
			mcp.Description("The JSON document itself, as an alternative to 'path'"),
		),
	)
}

// Handle processes the data_import tool call.
func (t *DataImportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := strings.TrimSpace(req.GetString("path", ""))
	document := req.GetString("document", "")
	if (path == "") == (document == "") {
		return mcp.NewToolResultError("provide exactly one of 'path' or 'document'"), nil
	}

	rec := &notify.Recorder{}
	n := notify.Fanout{rec, notify.NewLog(t.logger)}

	var (
		res *records.ImportResult
		err error
	)
	if path != "" {
		res, err = transfer.ImportFile(t.store, path, n)
	} else {
		res, err = transfer.Import(t.store, strings.NewReader(document), n)
	}

	var sb strings.Builder
	if err != nil {
		sb.WriteString(fmt.Sprintf("Import failed: %v", err))
		appendMessages(&sb, rec)
		return mcp.NewToolResultError(sb.String()), nil
	}

	sections := res.Sections()
	if len(sections) == 0 {
		sb.WriteString("Nothing imported: the document has no diary, hearing or settings section.")
	} else {
		sb.WriteString("Imported sections: " + strings.Join(sections, ", "))
	}
	appendMessages(&sb, rec)
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── DataClearTool ──────────────────────────────────────────────────────────

// DataClearTool handles the data_clear MCP tool.
type DataClearTool struct {
	store  *records.Store
	logger zerolog.Logger
}

// NewDataClearTool creates a DataClearTool.
func NewDataClearTool(store *records.Store, logger zerolog.Logger) *DataClearTool {
	return &DataClearTool{store: store, logger: logger}
}

// Definition returns the MCP tool definition for data_clear.
func (t *DataClearTool) Definition() mcp.Tool {
	return mcp.NewTool("data_clear",
		mcp.WithDescription(
			"Delete ALL diary entries, hearing tests and settings. This cannot be undone; "+
				"suggest data_export first.",
		),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true to proceed"),
		),
	)
}

// Handle processes the data_clear tool call.
func (t *DataClearTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !boolArg(req, "confirm", false) {
		return mcp.NewToolResultError("refusing to clear data without confirm=true"), nil
	}
	if err := t.store.Clear(); err != nil {
		t.logger.Error().Err(err).Msg("data_clear failed")
		return storeError("clear data", err), nil
	}
	t.logger.Info().Msg("all data cleared")
	return mcp.NewToolResultText("All data cleared. Settings are back to defaults."), nil
}
