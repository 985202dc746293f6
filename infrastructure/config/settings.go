package config

import (
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Settings is the full set of recognized configuration options from the
// external-interfaces contract. Defaults mirror the upstream system's
// historical values.
type Settings struct {
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
	LogOutput string `env:"LOG_OUTPUT,default=stdout"`

	DatabaseURL string `env:"DATABASE_URL,default=postgres://localhost/nodestatus?sslmode=disable"`
	RedisAddr   string `env:"REDIS_ADDR"`
	BoltPath    string `env:"BOLT_PATH,default=nodestatus.bolt"`

	AlephAPIServer        string `env:"ALEPH_API_SERVER,default=https://api2.aleph.im"`
	AlephTestnetAPIServer string `env:"ALEPH_TESTNET_API_SERVER,default=https://api2.test.aleph.im"`
	AlephChannel          string `env:"ALEPH_CHANNEL,default=TEST"`

	Decimals int `env:"DECIMALS,default=18"`

	NodeThreshold       int64 `env:"NODE_THRESHOLD,default=199999"`
	StakingThreshold    int64 `env:"STAKING_THRESHOLD,default=9999"`
	ActivationThreshold int64 `env:"ACTIVATION_THRESHOLD,default=500000"`
	NodeMaxLinked       int   `env:"NODE_MAX_LINKED,default=8"`
	NodeMaxPaid         int   `env:"NODE_MAX_PAID,default=5"`

	CRNInactivityThresholdDays int64 `env:"CRN_INACTIVITY_THRESHOLD_DAYS,default=90"`
	CRNInactivityCutoffHeight  uint64 `env:"CRN_INACTIVITY_CUTOFF_HEIGHT"`

	RewardStartHeight uint64  `env:"REWARD_START_HEIGHT,default=11519440"`
	BlocksPerDay      int64   `env:"BLOCKS_PER_DAY,default=7130"`
	DailyNodesReward  float64 `env:"DAILY_NODES_REWARD,default=15000"`
	DailyStakersBase  float64 `env:"DAILY_STAKERS_BASE,default=15000"`

	ResourceNodeMonthlyBase     float64 `env:"RESOURCE_NODE_MONTHLY_BASE,default=250"`
	ResourceNodeMonthlyVariable float64 `env:"RESOURCE_NODE_MONTHLY_VARIABLE,default=1250"`

	BonusStartHeight uint64  `env:"BONUS_START_HEIGHT,default=12020360"`
	BonusModifier    float64 `env:"BONUS_MODIFIER,default=1.25"`
	BonusDecay       float64 `env:"BONUS_DECAY,default=0.0000001"`

	BatchSize int `env:"BATCH_SIZE,default=200"`

	ScoresSendersRaw   string `env:"SCORES_SENDERS"`
	BalancesSendersRaw string `env:"BALANCES_SENDERS"`
	PlatformsRaw       string `env:"BALANCES_PLATFORMS,default=ALEPH_ETH,ALEPH_SOL"`
}

// ScoresSenders returns the configured set of addresses authorized to
// submit score reports.
func (s Settings) ScoresSenders() []string {
	return SplitAndTrimCSV(s.ScoresSendersRaw)
}

// BalancesSenders returns the configured set of addresses authorized to
// submit balance-update messages.
func (s Settings) BalancesSenders() []string {
	return SplitAndTrimCSV(s.BalancesSendersRaw)
}

// Platforms returns the recognized balance-platform identifiers.
func (s Settings) Platforms() []string {
	return SplitAndTrimCSV(s.PlatformsRaw)
}

// Load reads a .env file if present (ignored if absent) and decodes
// Settings from the environment.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !strings.Contains(err.Error(), "no such file") {
		return Settings{}, err
	}

	var s Settings
	if err := envdecode.Decode(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
