package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/de-tools/approval-atlas/pkg/services/anomaly"
	"github.com/de-tools/approval-atlas/pkg/services/insight"
	"github.com/spf13/viper"
)

const EnvPrefix = "ATLAS"

type DetectionSettings struct {
	ZThreshold      float64 `mapstructure:"z_threshold"`
	PThreshold      float64 `mapstructure:"p_threshold"`
	MinTransactions int64   `mapstructure:"min_transactions"`
	Workers         int     `mapstructure:"workers"`
	ApproxCDF       bool    `mapstructure:"approx_cdf"`
}

type RankingSettings struct {
	TopN int `mapstructure:"top_n"`
	MinN int `mapstructure:"min_n"`
}

type SeveritySettings struct {
	CriticalUSD float64 `mapstructure:"critical_usd"`
	HighUSD     float64 `mapstructure:"high_usd"`
	MediumUSD   float64 `mapstructure:"medium_usd"`
}

type WindowSettings struct {
	WeeksPerPeriod float64 `mapstructure:"weeks_per_period"`
	WeeksPerMonth  float64 `mapstructure:"weeks_per_month"`
}

type StoreSettings struct {
	DBPath string `mapstructure:"db_path"`
}

type ServerSettings struct {
	Addr string `mapstructure:"addr"`
}

type IDSettings struct {
	// Seed makes insight ids deterministic; empty means random ids
	Seed string `mapstructure:"seed"`
}

// Settings is the full set of externally overridable knobs.
type Settings struct {
	Detection DetectionSettings `mapstructure:"detection"`
	Ranking   RankingSettings   `mapstructure:"ranking"`
	Severity  SeveritySettings  `mapstructure:"severity"`
	Window    WindowSettings    `mapstructure:"window"`
	Store     StoreSettings     `mapstructure:"store"`
	Server    ServerSettings    `mapstructure:"server"`
	IDs       IDSettings        `mapstructure:"ids"`
}

func setDefaults(v *viper.Viper) {
	detector := anomaly.DefaultSettings()
	ranker := insight.DefaultSettings()

	v.SetDefault("detection.z_threshold", detector.ZThreshold)
	v.SetDefault("detection.p_threshold", detector.PThreshold)
	v.SetDefault("detection.min_transactions", detector.MinTransactions)
	v.SetDefault("detection.workers", detector.Workers)
	v.SetDefault("detection.approx_cdf", false)
	v.SetDefault("ranking.top_n", ranker.TopN)
	v.SetDefault("ranking.min_n", ranker.MinN)
	v.SetDefault("severity.critical_usd", ranker.Severity.CriticalUSD)
	v.SetDefault("severity.high_usd", ranker.Severity.HighUSD)
	v.SetDefault("severity.medium_usd", ranker.Severity.MediumUSD)
	v.SetDefault("window.weeks_per_period", detector.WeeksPerPeriod)
	v.SetDefault("window.weeks_per_month", detector.WeeksPerMonth)
	v.SetDefault("store.db_path", "approval-atlas.db")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("ids.seed", "")
}

// LoadSettings reads defaults, the optional settings file at path and
// ATLAS_* environment overrides, in increasing precedence.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s Settings) Validate() error {
	var errs []error
	if s.Ranking.TopN < 1 {
		errs = append(errs, fmt.Errorf("ranking.top_n must be at least 1, got %d", s.Ranking.TopN))
	}
	if s.Ranking.MinN < 0 {
		errs = append(errs, fmt.Errorf("ranking.min_n must not be negative, got %d", s.Ranking.MinN))
	}
	if s.Detection.PThreshold <= 0 || s.Detection.PThreshold > 1 {
		errs = append(errs, fmt.Errorf("detection.p_threshold must be in (0, 1], got %g", s.Detection.PThreshold))
	}
	if s.Detection.ZThreshold < 0 {
		errs = append(errs, fmt.Errorf("detection.z_threshold must not be negative, got %g", s.Detection.ZThreshold))
	}
	if s.Detection.Workers < 1 {
		errs = append(errs, fmt.Errorf("detection.workers must be at least 1, got %d", s.Detection.Workers))
	}
	if s.Window.WeeksPerPeriod <= 0 || s.Window.WeeksPerMonth <= 0 {
		errs = append(errs, fmt.Errorf("window sizes must be positive"))
	}
	if s.Severity.CriticalUSD < s.Severity.HighUSD || s.Severity.HighUSD < s.Severity.MediumUSD {
		errs = append(errs, fmt.Errorf("severity thresholds must satisfy critical >= high >= medium"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid settings: %w", errors.Join(errs...))
	}
	return nil
}

func (s Settings) DetectorSettings() anomaly.Settings {
	tail := anomaly.NormalTail
	if s.Detection.ApproxCDF {
		tail = anomaly.ApproxNormalTail
	}
	return anomaly.Settings{
		ZThreshold:      s.Detection.ZThreshold,
		PThreshold:      s.Detection.PThreshold,
		MinTransactions: s.Detection.MinTransactions,
		WeeksPerPeriod:  s.Window.WeeksPerPeriod,
		WeeksPerMonth:   s.Window.WeeksPerMonth,
		Workers:         s.Detection.Workers,
		Tail:            tail,
	}
}

func (s Settings) RankerSettings() insight.Settings {
	settings := insight.Settings{
		TopN:           s.Ranking.TopN,
		MinN:           s.Ranking.MinN,
		WeeksPerPeriod: s.Window.WeeksPerPeriod,
		Severity: insight.SeverityThresholds{
			CriticalUSD: s.Severity.CriticalUSD,
			HighUSD:     s.Severity.HighUSD,
			MediumUSD:   s.Severity.MediumUSD,
		},
		IDs: insight.RandomIDs{},
	}
	if s.IDs.Seed != "" {
		settings.IDs = insight.NewSeededIDs(s.IDs.Seed)
	}
	return settings
}
