package labs

import (
	"sort"

	"github.com/tidwall/gjson"

	"github.com/wisp-cms/wisp/internal/app/domain/setting"
	"github.com/wisp-cms/wisp/pkg/logger"
)

// Source reads the raw stored value of a setting. The settings cache
// satisfies it.
type Source interface {
	GetString(key string) string
}

// Config captures the environment facts the alpha visibility rule needs.
type Config struct {
	DeveloperExperiments bool
	DevOrTesting         bool
}

// Service resolves flag state from the stored labs object and the tier
// rules.
type Service struct {
	src Source
	cfg Config
	log *logger.Logger
}

// New constructs a labs service reading flag state from src.
func New(src Source, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("labs")
	}
	return &Service{src: src, cfg: cfg, log: log}
}

func (s *Service) alphaVisible() bool {
	return s.cfg.DeveloperExperiments || s.cfg.DevOrTesting
}

// All returns the resolved flag map: stored beta flags with their values,
// stored alpha flags when visible, and every GA flag forced true. Unknown
// stored keys are dropped.
func (s *Service) All() map[string]bool {
	flags := make(map[string]bool)

	stored := gjson.Parse(s.src.GetString(setting.KeyLabs))
	if stored.IsObject() {
		stored.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			switch TierOf(name) {
			case TierBeta:
				flags[name] = value.Bool()
			case TierAlpha:
				if s.alphaVisible() {
					flags[name] = value.Bool()
				}
			}
			return true
		})
	}

	for _, key := range GAFlags {
		flags[key] = true
	}
	return flags
}

// IsEnabled reports whether the flag resolves to true.
func (s *Service) IsEnabled(key string) bool {
	return s.All()[key]
}

// Flag describes one registered flag for the admin API.
type Flag struct {
	Key     string `json:"key"`
	Tier    string `json:"tier"`
	Enabled bool   `json:"enabled"`
}

// Flags returns every registered flag with its tier and resolved state,
// sorted by key. Alpha flags are listed even when invisible so the admin
// API can show them as disabled.
func (s *Service) Flags() []Flag {
	resolved := s.All()

	all := make([]Flag, 0, len(GAFlags)+len(BetaFlags)+len(AlphaFlags))
	for _, key := range GAFlags {
		all = append(all, Flag{Key: key, Tier: TierGA, Enabled: true})
	}
	for _, key := range BetaFlags {
		all = append(all, Flag{Key: key, Tier: TierBeta, Enabled: resolved[key]})
	}
	for _, key := range AlphaFlags {
		all = append(all, Flag{Key: key, Tier: TierAlpha, Enabled: resolved[key]})
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Key < all[j].Key })
	return all
}
