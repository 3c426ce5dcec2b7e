package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// FileConfig mirrors the JSON config layout. Zero fields fall back to
// defaults, so a partial file only overrides what it names.
type FileConfig struct {
	Quoting   QuotingConfig   `json:"quoting"`
	Risk      RiskConfig      `json:"risk"`
	Cadence   CadenceConfig   `json:"cadence"`
	Model     ModelConfig     `json:"model"`
	Journal   JournalConfig   `json:"journal"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// QuotingConfig tunes ladder construction and reconciliation.
type QuotingConfig struct {
	TickSize            float64 `json:"tickSize"`
	MaxOrderSize        int64   `json:"maxOrderSize"`
	MinLevelSize        int64   `json:"minLevelSize"`
	MaxBookMult         int64   `json:"maxBookMult"`
	PriceTolerance      float64 `json:"priceTolerance"`
	BootstrapSpreadPct  float64 `json:"bootstrapSpreadPct"`
	BootstrapLevels     int     `json:"bootstrapLevels"`
	BootstrapBaseSize   int64   `json:"bootstrapBaseSize"`
	BootstrapSizeDecay  float64 `json:"bootstrapSizeDecay"`
	NormalLevels        int     `json:"normalLevels"`
	NormalSizeDecay     float64 `json:"normalSizeDecay"`
	StressedSpreadMult  float64 `json:"stressedSpreadMult"`
	StressedLevels      int     `json:"stressedLevels"`
	StressedBaseSize    int64   `json:"stressedBaseSize"`
	StressedSizeDecay   float64 `json:"stressedSizeDecay"`
	CappedLevels        int     `json:"cappedLevels"`
	CappedBaseSize      int64   `json:"cappedBaseSize"`
	CappedSizeDecay     float64 `json:"cappedSizeDecay"`
	MidDriftRequotePct  float64 `json:"midDriftRequotePct"`
	RollingCapacity     int     `json:"rollingCapacity"`
}

// RiskConfig tunes the mode state machine and cancellation triggers.
type RiskConfig struct {
	InventoryCap          float64 `json:"inventoryCap"`
	TargetInventory       float64 `json:"targetInventory"`
	EmergencyTotalPnL     float64 `json:"emergencyTotalPnl"`
	EmergencyRealizedPnL  float64 `json:"emergencyRealizedPnl"`
	StressedVolatility    float64 `json:"stressedVolatility"`
	InventoryWarningRatio float64 `json:"inventoryWarningRatio"`
	InventoryCancelRatio  float64 `json:"inventoryCancelRatio"`
	BootstrapMinTrades    int64   `json:"bootstrapMinTrades"`
	BootstrapMinVolume    int64   `json:"bootstrapMinVolume"`
	BootstrapMinSamples   int     `json:"bootstrapMinSamples"`
	BootstrapSpreadExit   float64 `json:"bootstrapSpreadExit"`
	MaxOrderAgeSec        int64   `json:"maxOrderAgeSec"`
	MidShockPct           float64 `json:"midShockPct"`
	MinSpread             float64 `json:"minSpread"`
	MinProfitableSpread   float64 `json:"minProfitableSpread"`
	DepthCollapseRatio    float64 `json:"depthCollapseRatio"`
	MaxDistanceSpreadMult float64 `json:"maxDistanceSpreadMult"`
}

// CadenceConfig sets per-symbol timer gaps in milliseconds.
type CadenceConfig struct {
	SampleGapMs     int64 `json:"sampleGapMs"`
	VolatilityGapMs int64 `json:"volatilityGapMs"`
	QuotingGapMs    int64 `json:"quotingGapMs"`
	CycleGapMs      int64 `json:"cycleGapMs"`
	MaxDrainPerPass int   `json:"maxDrainPerPass"`
}

// ModelConfig sets the default pricing-model parameters for new symbols.
type ModelConfig struct {
	RiskAversion   float64 `json:"riskAversion"`
	TimeToTerminal float64 `json:"timeToTerminal"`
	LiquidityK     float64 `json:"liquidityK"`
}

// JournalConfig points at the optional Postgres fill journal.
type JournalConfig struct {
	DSN string `json:"dsn"`
}

// TelemetryConfig controls the metrics endpoint and profiler.
type TelemetryConfig struct {
	MetricsAddr   string `json:"metricsAddr"`
	PyroscopeURL  string `json:"pyroscopeUrl"`
	PyroscopeName string `json:"pyroscopeName"`
}

// Config is the resolved configuration ready for use by the engine.
type Config struct {
	TickSize       decimal.Decimal
	MaxOrderSize   int64
	MinLevelSize   int64
	MaxBookMult    int64
	PriceTolerance decimal.Decimal

	BootstrapSpreadPct decimal.Decimal
	BootstrapLevels    int
	BootstrapBaseSize  int64
	BootstrapSizeDecay float64
	NormalLevels       int
	NormalSizeDecay    float64
	StressedSpreadMult decimal.Decimal
	StressedLevels     int
	StressedBaseSize   int64
	StressedSizeDecay  float64
	CappedLevels       int
	CappedBaseSize     int64
	CappedSizeDecay    float64

	MidDriftRequotePct decimal.Decimal
	RollingCapacity    int

	InventoryCap          decimal.Decimal
	TargetInventory       decimal.Decimal
	EmergencyTotalPnL     decimal.Decimal
	EmergencyRealizedPnL  decimal.Decimal
	StressedVolatility    decimal.Decimal
	InventoryWarningRatio decimal.Decimal
	InventoryCancelRatio  decimal.Decimal

	BootstrapMinTrades  int64
	BootstrapMinVolume  int64
	BootstrapMinSamples int
	BootstrapSpreadExit decimal.Decimal

	MaxOrderAge           time.Duration
	MidShockPct           decimal.Decimal
	MinSpread             decimal.Decimal
	MinProfitableSpread   decimal.Decimal
	DepthCollapseRatio    float64
	MaxDistanceSpreadMult decimal.Decimal

	SampleGap       time.Duration
	VolatilityGap   time.Duration
	QuotingGap      time.Duration
	CycleGap        time.Duration
	MaxDrainPerPass int

	RiskAversion   decimal.Decimal
	TimeToTerminal decimal.Decimal
	LiquidityK     decimal.Decimal

	JournalDSN    string
	MetricsAddr   string
	PyroscopeURL  string
	PyroscopeName string
}

// Default returns the configuration matching the built-in literals.
func Default() Config {
	return Config{
		TickSize:       decimal.NewFromFloat(0.01),
		MaxOrderSize:   100,
		MinLevelSize:   10,
		MaxBookMult:    2,
		PriceTolerance: decimal.NewFromFloat(0.01),

		BootstrapSpreadPct: decimal.NewFromFloat(0.04),
		BootstrapLevels:    5,
		BootstrapBaseSize:  100,
		BootstrapSizeDecay: 0.85,
		NormalLevels:       10,
		NormalSizeDecay:    0.85,
		StressedSpreadMult: decimal.NewFromFloat(2.0),
		StressedLevels:     5,
		StressedBaseSize:   50,
		StressedSizeDecay:  0.80,
		CappedLevels:       10,
		CappedBaseSize:     50,
		CappedSizeDecay:    0.90,

		MidDriftRequotePct: decimal.NewFromFloat(0.0005),
		RollingCapacity:    100,

		InventoryCap:          decimal.NewFromInt(1000),
		TargetInventory:       decimal.Zero,
		EmergencyTotalPnL:     decimal.NewFromInt(-2000),
		EmergencyRealizedPnL:  decimal.NewFromInt(-1500),
		StressedVolatility:    decimal.NewFromFloat(0.06),
		InventoryWarningRatio: decimal.NewFromFloat(0.80),
		InventoryCancelRatio:  decimal.NewFromFloat(0.85),

		BootstrapMinTrades:  20,
		BootstrapMinVolume:  1000,
		BootstrapMinSamples: 20,
		BootstrapSpreadExit: decimal.NewFromFloat(0.02),

		MaxOrderAge:           60 * time.Second,
		MidShockPct:           decimal.NewFromFloat(0.001),
		MinSpread:             decimal.NewFromFloat(0.01),
		MinProfitableSpread:   decimal.NewFromFloat(0.001),
		DepthCollapseRatio:    0.3,
		MaxDistanceSpreadMult: decimal.NewFromInt(5),

		SampleGap:       50 * time.Millisecond,
		VolatilityGap:   100 * time.Millisecond,
		QuotingGap:      200 * time.Millisecond,
		CycleGap:        250 * time.Millisecond,
		MaxDrainPerPass: 1024,

		RiskAversion:   decimal.NewFromFloat(0.1),
		TimeToTerminal: decimal.NewFromInt(1),
		LiquidityK:     decimal.NewFromFloat(1.5),
	}
}

// Load reads a JSON config file and resolves it over the defaults.
// An empty path returns the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	var file FileConfig
	if err := json.Unmarshal(data, &file); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	apply(&cfg, file)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot quote with.
func (c Config) Validate() error {
	if !c.TickSize.IsPositive() {
		return errors.New("tickSize must be > 0")
	}
	if !c.InventoryCap.IsPositive() {
		return errors.New("inventoryCap must be > 0")
	}
	if c.MaxOrderSize <= 0 {
		return errors.New("maxOrderSize must be > 0")
	}
	if c.BootstrapLevels <= 0 || c.NormalLevels <= 0 || c.StressedLevels <= 0 || c.CappedLevels <= 0 {
		return errors.New("ladder levels must be > 0")
	}
	for _, decay := range []float64{c.BootstrapSizeDecay, c.NormalSizeDecay, c.StressedSizeDecay, c.CappedSizeDecay} {
		if decay <= 0 || decay > 1 {
			return errors.New("size decay must be in (0, 1]")
		}
	}
	if c.RollingCapacity <= 0 {
		return errors.New("rollingCapacity must be > 0")
	}
	if c.SampleGap <= 0 || c.VolatilityGap <= 0 || c.QuotingGap <= 0 || c.CycleGap <= 0 {
		return errors.New("cadence gaps must be > 0")
	}
	if c.MaxDrainPerPass <= 0 {
		return errors.New("maxDrainPerPass must be > 0")
	}
	return nil
}

func apply(cfg *Config, file FileConfig) {
	q := file.Quoting
	setDecimal(&cfg.TickSize, q.TickSize)
	setInt64(&cfg.MaxOrderSize, q.MaxOrderSize)
	setInt64(&cfg.MinLevelSize, q.MinLevelSize)
	setInt64(&cfg.MaxBookMult, q.MaxBookMult)
	setDecimal(&cfg.PriceTolerance, q.PriceTolerance)
	setDecimal(&cfg.BootstrapSpreadPct, q.BootstrapSpreadPct)
	setInt(&cfg.BootstrapLevels, q.BootstrapLevels)
	setInt64(&cfg.BootstrapBaseSize, q.BootstrapBaseSize)
	setFloat(&cfg.BootstrapSizeDecay, q.BootstrapSizeDecay)
	setInt(&cfg.NormalLevels, q.NormalLevels)
	setFloat(&cfg.NormalSizeDecay, q.NormalSizeDecay)
	setDecimal(&cfg.StressedSpreadMult, q.StressedSpreadMult)
	setInt(&cfg.StressedLevels, q.StressedLevels)
	setInt64(&cfg.StressedBaseSize, q.StressedBaseSize)
	setFloat(&cfg.StressedSizeDecay, q.StressedSizeDecay)
	setInt(&cfg.CappedLevels, q.CappedLevels)
	setInt64(&cfg.CappedBaseSize, q.CappedBaseSize)
	setFloat(&cfg.CappedSizeDecay, q.CappedSizeDecay)
	setDecimal(&cfg.MidDriftRequotePct, q.MidDriftRequotePct)
	setInt(&cfg.RollingCapacity, q.RollingCapacity)

	r := file.Risk
	setDecimal(&cfg.InventoryCap, r.InventoryCap)
	if r.TargetInventory != 0 {
		cfg.TargetInventory = decimal.NewFromFloat(r.TargetInventory)
	}
	if r.EmergencyTotalPnL != 0 {
		cfg.EmergencyTotalPnL = decimal.NewFromFloat(r.EmergencyTotalPnL)
	}
	if r.EmergencyRealizedPnL != 0 {
		cfg.EmergencyRealizedPnL = decimal.NewFromFloat(r.EmergencyRealizedPnL)
	}
	setDecimal(&cfg.StressedVolatility, r.StressedVolatility)
	setDecimal(&cfg.InventoryWarningRatio, r.InventoryWarningRatio)
	setDecimal(&cfg.InventoryCancelRatio, r.InventoryCancelRatio)
	setInt64(&cfg.BootstrapMinTrades, r.BootstrapMinTrades)
	setInt64(&cfg.BootstrapMinVolume, r.BootstrapMinVolume)
	setInt(&cfg.BootstrapMinSamples, r.BootstrapMinSamples)
	setDecimal(&cfg.BootstrapSpreadExit, r.BootstrapSpreadExit)
	if r.MaxOrderAgeSec > 0 {
		cfg.MaxOrderAge = time.Duration(r.MaxOrderAgeSec) * time.Second
	}
	setDecimal(&cfg.MidShockPct, r.MidShockPct)
	setDecimal(&cfg.MinSpread, r.MinSpread)
	setDecimal(&cfg.MinProfitableSpread, r.MinProfitableSpread)
	setFloat(&cfg.DepthCollapseRatio, r.DepthCollapseRatio)
	setDecimal(&cfg.MaxDistanceSpreadMult, r.MaxDistanceSpreadMult)

	ca := file.Cadence
	setGap(&cfg.SampleGap, ca.SampleGapMs)
	setGap(&cfg.VolatilityGap, ca.VolatilityGapMs)
	setGap(&cfg.QuotingGap, ca.QuotingGapMs)
	setGap(&cfg.CycleGap, ca.CycleGapMs)
	setInt(&cfg.MaxDrainPerPass, ca.MaxDrainPerPass)

	m := file.Model
	setDecimal(&cfg.RiskAversion, m.RiskAversion)
	setDecimal(&cfg.TimeToTerminal, m.TimeToTerminal)
	setDecimal(&cfg.LiquidityK, m.LiquidityK)

	if file.Journal.DSN != "" {
		cfg.JournalDSN = file.Journal.DSN
	}
	if file.Telemetry.MetricsAddr != "" {
		cfg.MetricsAddr = file.Telemetry.MetricsAddr
	}
	if file.Telemetry.PyroscopeURL != "" {
		cfg.PyroscopeURL = file.Telemetry.PyroscopeURL
	}
	if file.Telemetry.PyroscopeName != "" {
		cfg.PyroscopeName = file.Telemetry.PyroscopeName
	}
}

func setDecimal(dst *decimal.Decimal, v float64) {
	if v > 0 {
		*dst = decimal.NewFromFloat(v)
	}
}

func setFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setInt64(dst *int64, v int64) {
	if v > 0 {
		*dst = v
	}
}

func setGap(dst *time.Duration, ms int64) {
	if ms > 0 {
		*dst = time.Duration(ms) * time.Millisecond
	}
}
