package config

import "time"

type Config struct {
	Env          string             `yaml:"env" env:"ENV" env-default:"local"`
	HttpServer   HttpServerConfig   `yaml:"httpServer"`
	DB           DBConfig           `yaml:"db"`
	Google       GoogleConfig       `yaml:"google"`
	Sources      SourcesConfig      `yaml:"sources"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
}

type HttpServerConfig struct {
	Address string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost"`
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout time.Duration `yaml:"timeout" env-default:"15s"`
	Secret  string        `yaml:"secret" env:"HTTP_SECRET" env-default:""`
}

type DBConfig struct {
	Enabled  bool   `yaml:"enabled" env:"DB_ENABLED" env-default:"false"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name     string `yaml:"name" env:"DB_NAME" env-default:"cmf"`
	User     string `yaml:"user" env:"DB_USER" env-default:"cmf"`
	Password string `yaml:"password" env:"DB_PASSWORD" env-default:""`
}

type GoogleConfig struct {
	APIKey string `yaml:"apiKey" env:"GOOGLE_API_KEY" env-default:""`
	// SheetHeaderRow is the zero-based row index holding column names.
	SheetHeaderRow int    `yaml:"sheetHeaderRow" env-default:"0"`
	SheetTab       string `yaml:"sheetTab" env-default:"Sheet1"`
}

// NineteenHzRegion maps one 19hz regional listing page to the timezone every
// event on that page is assumed to share.
type NineteenHzRegion struct {
	Key      string `yaml:"key"`
	URL      string `yaml:"url"`
	Timezone string `yaml:"timezone"`
	Suffix   string `yaml:"suffix"` // appended to bare venue strings, e.g. ", CA, USA"
}

type SourcesConfig struct {
	MobilizeBaseURL string             `yaml:"mobilizeBaseUrl" env-default:"https://api.mobilize.us/v1"`
	FoopeeBaseURL   string             `yaml:"foopeeBaseUrl" env-default:"http://www.foopee.com/punk/the-list/"`
	PluraGraphQLURL string             `yaml:"pluraGraphqlUrl" env-default:"https://api.plura.io/graphql"`
	NineteenHz      []NineteenHzRegion `yaml:"nineteenHz"`
}

type OrchestratorConfig struct {
	// Schedule is a cron spec (robfig/cron syntax, e.g. "@every 1h").
	// Empty disables the warm-up job.
	Schedule string `yaml:"schedule" env:"ORCHESTRATOR_SCHEDULE" env-default:""`
	// SourceIDs are full identifiers like "gc:calendar@example.com".
	SourceIDs []string `yaml:"sourceIds"`
}
