package server

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/noisedetox/internal/config"
	"github.com/HendryAvila/noisedetox/internal/kv"
	"github.com/HendryAvila/noisedetox/internal/records"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Backend = kv.BackendMemory
	cfg.Timezone = "UTC"
	return cfg
}

func rpc(t *testing.T, cfg *config.Config, method string) map[string]json.RawMessage {
	t.Helper()
	s, cleanup, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(cleanup)

	req := `{"jsonrpc":"2.0","id":1,"method":"` + method + `"}`
	resp := s.HandleMessage(context.Background(), json.RawMessage(req))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.NotNil(t, envelope.Result, "no result in %s", raw)
	return envelope.Result
}

func names(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var items []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(raw, &items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	sort.Strings(out)
	return out
}

func TestNew_RegistersAllTools(t *testing.T) {
	result := rpc(t, memoryConfig(t), "tools/list")
	assert.Equal(t, []string{
		"data_clear", "data_export", "data_import",
		"diary_add", "diary_delete", "diary_list", "diary_range",
		"hearing_add", "hearing_list",
		"settings_get", "settings_save",
		"stats_correlation", "stats_daily", "stats_noise", "stats_summary", "stats_wellbeing",
	}, names(t, result["tools"]))
}

func TestNew_RegistersPrompts(t *testing.T) {
	result := rpc(t, memoryConfig(t), "prompts/list")
	assert.Equal(t, []string{"daily-checkin", "weekly-review"}, names(t, result["prompts"]))
}

func TestNew_RegistersResources(t *testing.T) {
	result := rpc(t, memoryConfig(t), "resources/list")
	var items []struct {
		URI string `json:"uri"`
	}
	require.NoError(t, json.Unmarshal(result["resources"], &items))
	var uris []string
	for _, it := range items {
		uris = append(uris, it.URI)
	}
	assert.ElementsMatch(t, []string{"noisedetox://settings", "noisedetox://summary"}, uris)
}

func TestNew_BadTimezone(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Timezone = "Nowhere/Atlantis"

	s, cleanup, err := New(cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, s)
	require.NotNil(t, cleanup)
	cleanup()
}

func TestOpenStore_FileBackendPersists(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Backend = kv.BackendFile

	store, cleanup, err := OpenStore(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.SaveSettings(records.Settings{Notifications: false, Theme: "dark"}))
	cleanup()

	reopened, cleanup2, err := OpenStore(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer cleanup2()
	s, err := reopened.Settings()
	require.NoError(t, err)
	assert.Equal(t, "dark", s.Theme)
	assert.False(t, s.Notifications)
}
