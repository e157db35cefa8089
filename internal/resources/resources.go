// Package resources implements MCP resource handlers for the tracker.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (noisedetox://...) following MCP conventions.
package resources

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/noisedetox/internal/analysis"
	"github.com/HendryAvila/noisedetox/internal/records"
	"github.com/HendryAvila/noisedetox/internal/tools"
)

const (
	SettingsURI = "noisedetox://settings"
	SummaryURI  = "noisedetox://summary"
)

// Handler manages resource endpoints.
type Handler struct {
	store *records.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *records.Store) *Handler {
	return &Handler{store: store}
}

// SettingsResource returns the MCP resource definition for the settings.
func (h *Handler) SettingsResource() mcp.Resource {
	return mcp.NewResource(
		SettingsURI,
		"Noise Detox Settings",
		mcp.WithResourceDescription("Current user settings (defaults when none saved)"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSettings returns the settings as JSON.
func (h *Handler) HandleSettings(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s, err := h.store.Settings()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonContents(req.Params.URI, s)
}

// SummaryResource returns the MCP resource definition for the weekly summary.
func (h *Handler) SummaryResource() mcp.Resource {
	return mcp.NewResource(
		SummaryURI,
		"Noise Detox Weekly Summary",
		mcp.WithResourceDescription("Noise, wellbeing and hearing aggregates over the last 7 days"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSummary returns the seven-day summary as JSON.
func (h *Handler) HandleSummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s, err := tools.Summary(h.store, analysis.DefaultDays)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonContents(req.Params.URI, s)
}
