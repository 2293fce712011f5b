package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mzare/ecotrace/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given a default configuration", t, func() {
		cfg := config.New()

		Convey("Then the defaults are sensible", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.DBPath, ShouldEqual, "ecotrace.db")
			So(cfg.IngestQueueSize, ShouldEqual, 100_000)
			So(cfg.WorkerCount, ShouldBeGreaterThan, 0)
			So(cfg.MaxAlternatives, ShouldEqual, 25)
			So(cfg.MaxGreenestLimit, ShouldEqual, 100)
			So(cfg.InsightModel, ShouldEqual, "gemini-1.5-flash")
			So(cfg.InsightEndpoint, ShouldBeBlank)
			So(cfg.PredictorEndpoint, ShouldBeBlank)
		})
	})
}

func TestLoadDefaults(t *testing.T) {
	Convey("When loading with no overrides", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then the defaults survive", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.LogLevel, ShouldEqual, "info")
		})
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ECOTRACE_ADDR", ":7070")
	t.Setenv("ECOTRACE_LOG_LEVEL", "debug")
	t.Setenv("ECOTRACE_DB_PATH", "/tmp/test.db")
	t.Setenv("ECOTRACE_MAX_ALTERNATIVES", "5")

	Convey("When environment variables override fields", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then the env values win", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.LogLevel, ShouldEqual, "debug")
			So(cfg.DBPath, ShouldEqual, "/tmp/test.db")
			So(cfg.MaxAlternatives, ShouldEqual, 5)
		})
	})
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("addr: \":6060\"\nqueue_size: 500\nworker_count: 3\n")
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("ECOTRACE_CONFIG", path)

	Convey("When a config file is provided", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then the file values apply over the defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6060")
			So(cfg.IngestQueueSize, ShouldEqual, 500)
			So(cfg.WorkerCount, ShouldEqual, 3)
			So(cfg.DBPath, ShouldEqual, "ecotrace.db")
		})
	})
}

func TestLoadEnvOutranksFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("addr: \":6060\"\n"), 0600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("ECOTRACE_CONFIG", path)
	t.Setenv("ECOTRACE_ADDR", ":5050")

	Convey("When both the file and the environment set a field", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then the environment wins", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":5050")
		})
	})
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("ECOTRACE_CONFIG", "/no/such/config.yaml")

	Convey("When the config file is missing", t, func() {
		_, err := config.Load(context.Background())

		Convey("Then loading fails with the load error kind", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, config.ErrLoadConfig.Error())
		})
	})
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("ECOTRACE_ADDR", "")

	Convey("When a value fails validation", t, func() {
		_, err := config.Load(context.Background())

		Convey("Then loading fails with the invalid error kind", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, config.ErrInvalidConfig.Error())
		})
	})
}

func TestLoadInvalidQueueSize(t *testing.T) {
	t.Setenv("ECOTRACE_QUEUE_SIZE", "0")

	Convey("When the queue size is non-positive", t, func() {
		_, err := config.Load(context.Background())
		So(err, ShouldNotBeNil)
	})
}
