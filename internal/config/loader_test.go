package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/formsubmit/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should target /submit_form with no timeout", func() {
			convey.So(cfg.SubmitPath, convey.ShouldEqual, "/submit_form")
			convey.So(cfg.Timeout(), convey.ShouldEqual, time.Duration(0))
			convey.So(cfg.StrictStatus, convey.ShouldBeFalse)
			convey.So(cfg.Submissions, convey.ShouldEqual, 1)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BaseURL, convey.ShouldEqual, "http://localhost:8080")
				convey.So(cfg.SubmitPath, convey.ShouldEqual, config.DefaultSubmitPath)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FORMSUBMIT_BASE_URL", "https://forms.example.com")
			_ = os.Setenv("FORMSUBMIT_TIMEOUT_MS", "1500")
			_ = os.Setenv("FORMSUBMIT_STRICT_STATUS", "true")
			_ = os.Setenv("FORMSUBMIT_SUBMISSIONS", "2")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BaseURL, convey.ShouldEqual, "https://forms.example.com")
				convey.So(cfg.Timeout(), convey.ShouldEqual, 1500*time.Millisecond)
				convey.So(cfg.StrictStatus, convey.ShouldBeTrue)
				convey.So(cfg.Submissions, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with YAML file and env overrides", func() {
			tmpFile := createTempConfigFile(t, `
base_url: "http://127.0.0.1:9000"
submit_path: "/submit_form"
form_file: "form.yaml"
log_level: debug
`)
			_ = os.Setenv("FORMSUBMIT_CONFIG", tmpFile)
			_ = os.Setenv("FORMSUBMIT_LOG_LEVEL", "warn")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BaseURL, convey.ShouldEqual, "http://127.0.0.1:9000")
				convey.So(cfg.FormFile, convey.ShouldEqual, "form.yaml")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
				convey.So(cfg.Submissions, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When loading config with a dotenv file", func() {
			dir := t.TempDir()
			envFile := filepath.Join(dir, ".env")
			err := os.WriteFile(envFile, []byte("FORMSUBMIT_METRICS_FILE=/tmp/formsubmit.prom\n"), 0o600)
			convey.So(err, convey.ShouldBeNil)
			_ = os.Setenv("FORMSUBMIT_ENV_FILE", envFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then dotenv values are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsFile, convey.ShouldEqual, "/tmp/formsubmit.prom")
			})
		})

		convey.Convey("When the dotenv file is missing", func() {
			_ = os.Setenv("FORMSUBMIT_ENV_FILE", "/non/existent/.env")

			cfg, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("FORMSUBMIT_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When base_url is relative", func() {
			_ = os.Setenv("FORMSUBMIT_BASE_URL", "/relative")

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then loading succeeds and validation rejects it", func() {
				convey.So(cfg.BaseURL, convey.ShouldEqual, "/relative")
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "base_url")
			})
		})

		convey.Convey("When submit_path lacks a leading slash", func() {
			_ = os.Setenv("FORMSUBMIT_SUBMIT_PATH", "submit_form")

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When submissions is zero", func() {
			_ = os.Setenv("FORMSUBMIT_SUBMISSIONS", "0")

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a numeric variable is not a number", func() {
			_ = os.Setenv("FORMSUBMIT_TIMEOUT_MS", "soon")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"FORMSUBMIT_CONFIG",
		"FORMSUBMIT_ENV_FILE",
		"FORMSUBMIT_BASE_URL",
		"FORMSUBMIT_SUBMIT_PATH",
		"FORMSUBMIT_TIMEOUT_MS",
		"FORMSUBMIT_STRICT_STATUS",
		"FORMSUBMIT_SUBMISSIONS",
		"FORMSUBMIT_LOG_LEVEL",
		"FORMSUBMIT_METRICS_FILE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formsubmit-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
