// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens the storage medium, builds the
// record store and injects it into the tools, prompts and resources that
// depend on it. No business logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/noisedetox/internal/analysis"
	"github.com/HendryAvila/noisedetox/internal/config"
	"github.com/HendryAvila/noisedetox/internal/dates"
	"github.com/HendryAvila/noisedetox/internal/kv"
	"github.com/HendryAvila/noisedetox/internal/prompts"
	"github.com/HendryAvila/noisedetox/internal/records"
	"github.com/HendryAvila/noisedetox/internal/resources"
	"github.com/HendryAvila/noisedetox/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// OpenStore applies the configured timezone, opens the configured medium
// and wraps it in a record store. The returned cleanup closes the medium;
// it is always non-nil.
func OpenStore(cfg *config.Config, logger zerolog.Logger) (*records.Store, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, noop, err
	}
	dates.SetLocation(loc)

	medium, err := kv.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, noop, fmt.Errorf("opening %s storage in %s: %w", cfg.Backend, cfg.DataDir, err)
	}
	logger.Debug().Str("backend", cfg.Backend).Str("data_dir", cfg.DataDir).Msg("storage opened")

	cleanup := func() {
		if err := medium.Close(); err != nil {
			logger.Warn().Err(err).Msg("storage close")
		}
	}
	return records.NewStore(medium), cleanup, nil
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the storage medium and must be
// called on shutdown (typically via defer). It is always non-nil.
func New(cfg *config.Config, logger zerolog.Logger) (*server.MCPServer, func(), error) {
	store, cleanup, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, noop, err
	}

	s := server.NewMCPServer(
		"noisedetox",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerTools(s, store, cfg, logger)

	// --- Register prompts ---

	checkin := prompts.NewCheckinPrompt()
	s.AddPrompt(checkin.Definition(), checkin.Handle)

	review := prompts.NewReviewPrompt(func(days int) (analysis.Summary, error) {
		return tools.Summary(store, days)
	})
	s.AddPrompt(review.Definition(), review.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.SettingsResource(), resourceHandler.HandleSettings)
	s.AddResource(resourceHandler.SummaryResource(), resourceHandler.HandleSummary)

	logger.Info().Str("version", Version).Msg("noisedetox MCP server ready")
	return s, cleanup, nil
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// registerTools registers all 16 MCP tools with the server.
func registerTools(s *server.MCPServer, store *records.Store, cfg *config.Config, logger zerolog.Logger) {
	// --- Diary ---
	diaryAdd := tools.NewDiaryAddTool(store, logger)
	s.AddTool(diaryAdd.Definition(), diaryAdd.Handle)

	diaryList := tools.NewDiaryListTool(store)
	s.AddTool(diaryList.Definition(), diaryList.Handle)

	diaryDelete := tools.NewDiaryDeleteTool(store, logger)
	s.AddTool(diaryDelete.Definition(), diaryDelete.Handle)

	diaryRange := tools.NewDiaryRangeTool(store)
	s.AddTool(diaryRange.Definition(), diaryRange.Handle)

	// --- Hearing tests ---
	hearingAdd := tools.NewHearingAddTool(store, logger)
	s.AddTool(hearingAdd.Definition(), hearingAdd.Handle)

	hearingList := tools.NewHearingListTool(store)
	s.AddTool(hearingList.Definition(), hearingList.Handle)

	// --- Settings ---
	settingsGet := tools.NewSettingsGetTool(store)
	s.AddTool(settingsGet.Definition(), settingsGet.Handle)

	settingsSave := tools.NewSettingsSaveTool(store, logger)
	s.AddTool(settingsSave.Definition(), settingsSave.Handle)

	// --- Statistics ---
	statsNoise := tools.NewStatsNoiseTool(store)
	s.AddTool(statsNoise.Definition(), statsNoise.Handle)

	statsWellbeing := tools.NewStatsWellbeingTool(store)
	s.AddTool(statsWellbeing.Definition(), statsWellbeing.Handle)

	statsCorrelation := tools.NewStatsCorrelationTool(store)
	s.AddTool(statsCorrelation.Definition(), statsCorrelation.Handle)

	statsDaily := tools.NewStatsDailyTool(store)
	s.AddTool(statsDaily.Definition(), statsDaily.Handle)

	statsSummary := tools.NewStatsSummaryTool(store)
	s.AddTool(statsSummary.Definition(), statsSummary.Handle)

	// --- Backup ---
	dataExport := tools.NewDataExportTool(store, cfg.ExportDir, logger)
	s.AddTool(dataExport.Definition(), dataExport.Handle)

	dataImport := tools.NewDataImportTool(store, logger)
	s.AddTool(dataImport.Definition(), dataImport.Handle)

	dataClear := tools.NewDataClearTool(store, logger)
	s.AddTool(dataClear.Definition(), dataClear.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use the tracker.
func serverInstructions() string {
	return `You have access to Noise Detox, a personal tracker for noise exposure,
wellbeing and hearing self-tests. All data stays on this machine.

## WHEN TO USE IT

- The user mentions a noisy place, a loud event or how noise made them feel:
  offer to log it with diary_add.
- The user reports a hearing test result: store it with hearing_add.
- The user asks how their week went, whether noise affects them, or wants
  charts: use stats_summary (or stats_daily / stats_correlation for detail).

## DATA MODEL

- Diary entry: noise_level (quiet, moderate, loud, veryLoud) plus any of the
  wellbeing tags good, tired, headache, irritated, sleepy, tinnitus.
- Hearing test: score, left_ear, right_ear (0-100). Append-only.
- Settings: notifications (bool) and theme (light or dark).

## SAFETY

- data_clear deletes everything. Always suggest data_export first and only
  pass confirm=true after the user explicitly agrees.
- data_import replaces whole sections. Tell the user which sections the
  document contains before importing.

Dates are shown as DD.MM.YYYY and times on a 24-hour clock.`
}
