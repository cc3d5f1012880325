package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/soapscribe/internal/config"
)

// AdvancedSection represents a section in the advanced settings menu
type AdvancedSection string

const (
	AdvancedServer  AdvancedSection = "server"
	AdvancedStorage AdvancedSection = "storage"
	AdvancedLogging AdvancedSection = "logging"
	AdvancedBack    AdvancedSection = "back"
)

// editAdvanced handles the advanced settings submenu
func editAdvanced(cfg *config.Config) error {
	for {
		options := []huh.Option[AdvancedSection]{
			huh.NewOption(formatAdvancedServerLabel(cfg), AdvancedServer),
			huh.NewOption(formatAdvancedStorageLabel(cfg), AdvancedStorage),
			huh.NewOption(formatAdvancedLoggingLabel(cfg), AdvancedLogging),
			huh.NewOption("Back to Main Menu", AdvancedBack),
		}

		var selected AdvancedSection
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[AdvancedSection]().
					Title("Advanced Settings").
					Description("Server, storage and logging").
					Options(options...).
					Value(&selected),
			),
		).WithTheme(getTheme())

		if err := form.Run(); err != nil {
			return err
		}

		switch selected {
		case AdvancedBack:
			return nil
		case AdvancedServer:
			_ = editServer(cfg)
		case AdvancedStorage:
			_ = editStorage(cfg)
		case AdvancedLogging:
			_ = editLogging(cfg)
		}
	}
}

func formatAdvancedServerLabel(cfg *config.Config) string {
	return fmt.Sprintf("Server (addr=%s, timeout=%s, upload=%dMB)", cfg.Server.Addr, cfg.Server.RequestTimeout, cfg.Server.MaxUploadMB)
}

func formatAdvancedStorageLabel(cfg *config.Config) string {
	return fmt.Sprintf("Storage (db=%s)", cfg.Storage.Path)
}

func formatAdvancedLoggingLabel(cfg *config.Config) string {
	return fmt.Sprintf("Logging (level=%s, format=%s)", cfg.Logging.Level, cfg.Logging.Format)
}

func editServer(cfg *config.Config) error {
	addr := cfg.Server.Addr
	requestTimeout := cfg.Server.RequestTimeout.String()
	shutdownTimeout := cfg.Server.ShutdownTimeout.String()
	maxUpload := strconv.Itoa(cfg.Server.MaxUploadMB)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen Address").
				Description("host:port for the HTTP API").
				Placeholder("127.0.0.1:8080").
				Value(&addr),
			huh.NewInput().
				Title("Request Timeout").
				Description("Upper bound for one transcription + generation request (e.g., '2m', '5m')").
				Placeholder("5m").
				Value(&requestTimeout).
				Validate(validateDuration),
			huh.NewInput().
				Title("Shutdown Timeout").
				Description("How long in-flight requests may finish after a stop signal").
				Placeholder("15s").
				Value(&shutdownTimeout).
				Validate(validateDuration),
			huh.NewInput().
				Title("Max Upload (MB)").
				Placeholder("100").
				Value(&maxUpload).
				Validate(validatePositiveInt),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Server.Addr = addr
	cfg.Server.RequestTimeout, _ = time.ParseDuration(requestTimeout)
	cfg.Server.ShutdownTimeout, _ = time.ParseDuration(shutdownTimeout)
	cfg.Server.MaxUploadMB, _ = strconv.Atoi(maxUpload)
	return nil
}

func editStorage(cfg *config.Config) error {
	path := cfg.Storage.Path
	spool := cfg.Audio.SpoolDir
	templatesDir := cfg.Templates.Dir
	watch := cfg.Templates.Watch

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Note Database").
				Description("SQLite file holding stored notes").
				Value(&path).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Audio Spool Directory").
				Description("Where recordings are staged during transcription. Empty = system temp dir.").
				Placeholder("(system temp)").
				Value(&spool),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Templates Directory").
				Description("Extra *.toml note templates. Empty = built-in templates only.").
				Value(&templatesDir),
			huh.NewConfirm().
				Title("Watch templates directory?").
				Description("Publish new template files while the server runs").
				Value(&watch),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Storage.Path = path
	cfg.Audio.SpoolDir = spool
	cfg.Templates.Dir = templatesDir
	cfg.Templates.Watch = watch && templatesDir != ""
	return nil
}

func editLogging(cfg *config.Config) error {
	level := cfg.Logging.Level
	format := cfg.Logging.Format

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log Level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&level),
			huh.NewSelect[string]().
				Title("Log Format").
				Options(
					huh.NewOption("console - human readable", "console"),
					huh.NewOption("json - structured", "json"),
				).
				Value(&format),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Logging.Level = level
	cfg.Logging.Format = format
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration format (use '30s', '2m', etc.)")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}
