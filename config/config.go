/*
Copyright 2025 Tradepost Authors.

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
	DEFAULT_PORT = "5401"

	// DEFAULT_FEED_BATCH_SIZE caps how many rows a single change-feed query
	// returns per entity type.
	DEFAULT_FEED_BATCH_SIZE = 200

	// DEFAULT_POLL_INTERVAL_SEC is the dashboard poll period.
	DEFAULT_POLL_INTERVAL_SEC = 5
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"TRADEPOST_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"TRADEPOST_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"TRADEPOST_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"TRADEPOST_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"TRADEPOST_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"TRADEPOST_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"TRADEPOST_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"TRADEPOST_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"TRADEPOST_REDIS_SKIP_TLS_VERIFY"`
}

type QueueConfig struct {
	OrderQueue     string `json:"order_queue" envconfig:"TRADEPOST_QUEUE_ORDER"`
	WebhookQueue   string `json:"webhook_queue" envconfig:"TRADEPOST_QUEUE_WEBHOOK"`
	MonitoringPort string `json:"monitoring_port" envconfig:"TRADEPOST_QUEUE_MONITORING_PORT"`
}

type ChangeFeedConfig struct {
	BatchSize int `json:"batch_size" envconfig:"TRADEPOST_FEED_BATCH_SIZE"`
}

type PollerConfig struct {
	IntervalSec int    `json:"interval_sec" envconfig:"TRADEPOST_POLL_INTERVAL_SEC"`
	StateFile   string `json:"state_file" envconfig:"TRADEPOST_POLL_STATE_FILE"`
	ServerURL   string `json:"server_url" envconfig:"TRADEPOST_POLL_SERVER_URL"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"TRADEPOST_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"TRADEPOST_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"TRADEPOST_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"TRADEPOST_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Queue        QueueConfig      `json:"queue"`
	ChangeFeed   ChangeFeedConfig `json:"change_feed"`
	Poller       PollerConfig     `json:"poller"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
	Notification Notification     `json:"notification"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("tradepost", &cnf)
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
		return nil, errors.New("config not loaded from file. Create a json file called tradepost.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Tradepost Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Queue.OrderQueue == "" {
		cnf.Queue.OrderQueue = "new:order"
	}
	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = "new:webhook"
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = "5403"
	}

	if cnf.ChangeFeed.BatchSize <= 0 {
		cnf.ChangeFeed.BatchSize = DEFAULT_FEED_BATCH_SIZE
	}

	if cnf.Poller.IntervalSec <= 0 {
		cnf.Poller.IntervalSec = DEFAULT_POLL_INTERVAL_SEC
	}
	if cnf.Poller.StateFile == "" {
		cnf.Poller.StateFile = ".tradepost-watermarks.json"
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	// Set default cleanup interval if not specified
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
		log.Printf("Warning: Rate limit cleanup interval not specified. Setting default value: %d seconds", defaultCleanup)
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
