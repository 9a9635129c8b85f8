package config

import (
	"encoding/json"
	"os"
	"testing"
)

func TestValidateAndAddDefaults(t *testing.T) {
	cnf := Configuration{
		ProjectName: "",
		DataSource: DataSourceConfig{
			Dns: "",
		},
		Redis: RedisConfig{
			Dns: "localhost:6379",
		},
	}

	err := cnf.validateAndAddDefaults()
	if err == nil || err.Error() != "data source DNS is required" {
		t.Errorf("Expected data source DNS required error, got %v", err)
	}

	cnf = Configuration{
		ProjectName: "",
		DataSource: DataSourceConfig{
			Dns: "postgres://localhost:5432",
		},
		Redis: RedisConfig{
			Dns: "",
		},
	}

	err = cnf.validateAndAddDefaults()
	if err == nil || err.Error() != "redis DNS is required" {
		t.Errorf("Expected redis DNS required error, got %v", err)
	}

	cnf = Configuration{
		ProjectName: "Test Project",
		DataSource: DataSourceConfig{
			Dns: "some-dns",
		},
		Redis: RedisConfig{
			Dns: "localhost:6379",
		},
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if cnf.Server.Port != DEFAULT_PORT {
		t.Errorf("Expected default port %s, got %s", DEFAULT_PORT, cnf.Server.Port)
	}
	if cnf.ChangeFeed.BatchSize != DEFAULT_FEED_BATCH_SIZE {
		t.Errorf("Expected default feed batch size %d, got %d", DEFAULT_FEED_BATCH_SIZE, cnf.ChangeFeed.BatchSize)
	}
	if cnf.Poller.IntervalSec != DEFAULT_POLL_INTERVAL_SEC {
		t.Errorf("Expected default poll interval %d, got %d", DEFAULT_POLL_INTERVAL_SEC, cnf.Poller.IntervalSec)
	}
	if cnf.Queue.OrderQueue != "new:order" || cnf.Queue.WebhookQueue != "new:webhook" {
		t.Errorf("Expected default queue names, got %+v", cnf.Queue)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "tradepost.json")
	if err != nil {
		t.Fatalf("Unable to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	want := Configuration{
		ProjectName: "Tradepost Test",
		DataSource:  DataSourceConfig{Dns: "postgres://localhost:5432/tradepost"},
		Redis:       RedisConfig{Dns: "localhost:6379"},
	}
	if err := json.NewEncoder(tmpFile).Encode(&want); err != nil {
		t.Fatalf("Unable to write config: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("Unable to close config file: %v", err)
	}

	if err := loadConfigFromFile(tmpFile.Name()); err != nil {
		t.Fatalf("Expected config to load, got %v", err)
	}

	got, err := Fetch()
	if err != nil {
		t.Fatalf("Expected config fetch, got %v", err)
	}
	if got.ProjectName != want.ProjectName {
		t.Errorf("Expected project name %q, got %q", want.ProjectName, got.ProjectName)
	}
	if got.ChangeFeed.BatchSize != DEFAULT_FEED_BATCH_SIZE {
		t.Errorf("Expected defaulted batch size, got %d", got.ChangeFeed.BatchSize)
	}
}
