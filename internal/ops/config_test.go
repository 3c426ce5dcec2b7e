package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.InventoryCap.Equal(decimal.NewFromInt(1000)))
	assert.True(t, cfg.EmergencyTotalPnL.Equal(decimal.NewFromInt(-2000)))
	assert.Equal(t, 60*time.Second, cfg.MaxOrderAge)
	assert.Equal(t, 250*time.Millisecond, cfg.CycleGap)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().MaxOrderSize, cfg.MaxOrderSize)
}

func TestLoadPartialFileOverridesOnlyNamedFields(t *testing.T) {
	path := writeConfig(t, `{
		"quoting": {"maxOrderSize": 250, "normalLevels": 4},
		"risk": {"inventoryCap": 5000, "emergencyTotalPnl": -10000},
		"cadence": {"cycleGapMs": 500}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(250), cfg.MaxOrderSize)
	assert.Equal(t, 4, cfg.NormalLevels)
	assert.True(t, cfg.InventoryCap.Equal(decimal.NewFromInt(5000)))
	assert.True(t, cfg.EmergencyTotalPnL.Equal(decimal.NewFromInt(-10000)))
	assert.Equal(t, 500*time.Millisecond, cfg.CycleGap)

	// Everything the file does not name keeps its default.
	assert.Equal(t, Default().BootstrapLevels, cfg.BootstrapLevels)
	assert.True(t, cfg.TickSize.Equal(Default().TickSize))
	assert.Equal(t, Default().QuotingGap, cfg.QuotingGap)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `{"quoting": {"normalSizeDecay": 2.0}}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size decay")
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"quoting": `)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestValidateCatchesBrokenConfig(t *testing.T) {
	cfg := Default()
	cfg.TickSize = decimal.Zero
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MaxDrainPerPass = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.CycleGap = 0
	assert.Error(t, cfg.Validate())
}
