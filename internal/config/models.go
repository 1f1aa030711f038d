package config

import "time"

type App struct {
	BindAddress     string              `json:"bind_address" mapstructure:"bind_address"`
	ShutdownTimeout time.Duration       `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	Elasticsearch   ElasticsearchClient `json:"elasticsearch" mapstructure:"elasticsearch"`
	ApmClient       *ApmClient          `json:"apm,omitempty" mapstructure:"apm"`
	Auth            *Auth               `json:"auth,omitempty" mapstructure:"auth"`
	Logging         *Logging            `json:"logging,omitempty" mapstructure:"logging"`
	Records         Records             `json:"records" mapstructure:"records"`
	Changes         Changes             `json:"changes" mapstructure:"changes"`
	Flags           []Flag              `json:"flags,omitempty" mapstructure:"flags"`
	AuditRetention  AuditRetention      `json:"audit_retention" mapstructure:"audit_retention"`
}

type Logging struct {
	Json  *bool   `json:"json,omitempty" mapstructure:"json"`
	File  *string `json:"file,omitempty" mapstructure:"file"`
	Level *string `json:"level,omitempty" mapstructure:"level"`
}

type ElasticsearchClient struct {
	Addresses []string       `json:"addresses" mapstructure:"addresses"`
	User      *BasicAuthUser `json:"user,omitempty" mapstructure:"user"`
}

type ApmClient struct {
	Address     *string `json:"address,omitempty" mapstructure:"address"`
	SecretToken *string `json:"secret_token,omitempty" mapstructure:"secret_token"`
}

type Records struct {
	Defaults RecordsDefaults `json:"defaults" mapstructure:"defaults"`
}

type RecordsDefaults struct {
	// How many times an unconditional (no client version) write re-reads
	// and retries when it loses a race with another writer
	ForcedWriteRetryTimes uint          `json:"forced_write_retry_times" mapstructure:"forced_write_retry_times"`
	ScrollSize            uint          `json:"scroll_size" mapstructure:"scroll_size"`
	ScrollTtl             time.Duration `json:"scroll_ttl" mapstructure:"scroll_ttl"`
}

type Changes struct {
	// Per-subscriber event buffer; a subscriber that falls further behind
	// than this misses events
	Buffer uint `json:"buffer" mapstructure:"buffer"`
}

type Flag struct {
	Name              string `json:"name" mapstructure:"name"`
	Enabled           bool   `json:"enabled" mapstructure:"enabled"`
	RolloutPercentage uint32 `json:"rollout_percentage" mapstructure:"rollout_percentage"`
}

type AuditRetention struct {
	// Cron expression for when the sweep runs
	Schedule string `json:"schedule" mapstructure:"schedule"`
	// Monthly audit indices older than this many months get dropped
	KeepMonths uint `json:"keep_months" mapstructure:"keep_months"`
}

type Auth struct {
	BasicAuth []BasicAuthUser `json:"basic_auth" mapstructure:"basic_auth"`
}

type BasicAuthUser struct {
	Name     string `json:"name" mapstructure:"name"`
	Password string `json:"password" mapstructure:"password"`
}

// TopLevel wraps App so that the config file can namespace everything under
// recordguard.server, which plays better with env var overrides
type TopLevel struct {
	Recordguard Recordguard `json:"recordguard" mapstructure:"recordguard"`
}

type Recordguard struct {
	Server App `json:"server" mapstructure:"server"`
}
