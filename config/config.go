/*
Copyright 2025 Finrecon Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"

	// Matching defaults. Every one of these can be overridden via
	// finrecon.json or FINRECON_* environment variables.
	DefaultIncomeDay           = 5
	DefaultFixedExpenseDay     = 10
	DefaultSuggestionFloor     = 30
	DefaultAutoAcceptThreshold = 80
	DefaultCacheTTLSeconds     = 300
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"FINRECON_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"FINRECON_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"FINRECON_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"FINRECON_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"FINRECON_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"FINRECON_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"FINRECON_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"FINRECON_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"FINRECON_REDIS_SKIP_TLS_VERIFY"`
}

type QueueConfig struct {
	EvaluationQueue string `json:"evaluation_queue" envconfig:"FINRECON_QUEUE_EVALUATION"`
	WorkerCount     int    `json:"worker_count" envconfig:"FINRECON_QUEUE_WORKER_COUNT"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"FINRECON_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"FINRECON_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"FINRECON_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"FINRECON_SLACK_WEBHOOK_URL"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

// MatchingConfig carries every scoring and projection knob of the engine.
// Keeping the heuristics here (rather than hard-coded in the matcher)
// lets deployments localize stop words and category keywords and lets
// tests pin exact values.
type MatchingConfig struct {
	IncomeDay           int      `json:"income_day" envconfig:"FINRECON_MATCHING_INCOME_DAY"`
	FixedExpenseDay     int      `json:"fixed_expense_day" envconfig:"FINRECON_MATCHING_FIXED_EXPENSE_DAY"`
	SuggestionFloor     int      `json:"suggestion_floor" envconfig:"FINRECON_MATCHING_SUGGESTION_FLOOR"`
	AutoAcceptThreshold int      `json:"auto_accept_threshold" envconfig:"FINRECON_MATCHING_AUTO_ACCEPT_THRESHOLD"`
	TokenDrift          int      `json:"token_drift" envconfig:"FINRECON_MATCHING_TOKEN_DRIFT"`
	StopWords           []string `json:"stop_words" envconfig:"FINRECON_MATCHING_STOP_WORDS"`
	FallbackIncomeTypes []string `json:"fallback_income_types" envconfig:"FINRECON_MATCHING_FALLBACK_INCOME_TYPES"`
	CacheTTLSeconds     int      `json:"cache_ttl_seconds" envconfig:"FINRECON_MATCHING_CACHE_TTL_SECONDS"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"FINRECON_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Queue        QueueConfig      `json:"queue"`
	Matching     MatchingConfig   `json:"matching"`
	Notification Notification     `json:"notification"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("finrecon", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called finrecon.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		cnf.ProjectName = "Finrecon Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Queue.EvaluationQueue == "" {
		cnf.Queue.EvaluationQueue = "recon_evaluation"
	}
	if cnf.Queue.WorkerCount <= 0 {
		cnf.Queue.WorkerCount = 5
	}

	cnf.Matching.applyDefaults()

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

func (m *MatchingConfig) applyDefaults() {
	if m.IncomeDay < 1 || m.IncomeDay > 31 {
		m.IncomeDay = DefaultIncomeDay
	}
	if m.FixedExpenseDay < 1 || m.FixedExpenseDay > 31 {
		m.FixedExpenseDay = DefaultFixedExpenseDay
	}
	if m.SuggestionFloor <= 0 {
		m.SuggestionFloor = DefaultSuggestionFloor
	}
	if m.AutoAcceptThreshold <= 0 {
		m.AutoAcceptThreshold = DefaultAutoAcceptThreshold
	}
	if m.TokenDrift < 0 {
		m.TokenDrift = 0
	}
	if len(m.StopWords) == 0 {
		m.StopWords = []string{"para", "com", "das", "dos", "por", "ser", "tem", "prestados"}
	}
	if len(m.FallbackIncomeTypes) == 0 {
		m.FallbackIncomeTypes = []string{"salario", "freelancer"}
	}
	if m.CacheTTLSeconds <= 0 {
		m.CacheTTLSeconds = DefaultCacheTTLSeconds
	}
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	mockConfig.Matching.applyDefaults()
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
