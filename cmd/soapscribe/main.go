package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leonardotrapani/soapscribe/internal/api"
	"github.com/leonardotrapani/soapscribe/internal/apperr"
	"github.com/leonardotrapani/soapscribe/internal/config"
	"github.com/leonardotrapani/soapscribe/internal/daemon"
	"github.com/leonardotrapani/soapscribe/internal/deps"
	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/models/whisper"
	"github.com/leonardotrapani/soapscribe/internal/provider"
	"github.com/leonardotrapani/soapscribe/internal/templates"
	"github.com/leonardotrapani/soapscribe/internal/tui"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", apperr.KindOf(err), apperr.ReasonOf(err))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "soapscribe",
	Short:         "Turn clinical visit recordings into SOAP notes",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/soapscribe/config.toml)")
	rootCmd.AddCommand(
		serveCmd(),
		transcribeCmd(),
		generateCmd(),
		notesCmd(),
		analyzeCmd(),
		templatesCmd(),
		configureCmd(),
		doctorCmd(),
		modelsCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := openApp(ctx, needs{audio: true, generate: true, analysis: true})
	if err != nil {
		return err
	}
	cfg := a.cfg

	pidPath, err := daemon.PidPath()
	if err != nil {
		a.Close()
		return fmt.Errorf("failed to resolve pid file: %w", err)
	}

	handler := api.NewHandler(a.pipeline, a.aggregator, a.store, a.registry, api.Options{
		MaxUploadBytes:  int64(cfg.Server.MaxUploadMB) << 20,
		RequestTimeout:  cfg.Server.RequestTimeout,
		DefaultTemplate: cfg.DefaultTemplate(),
		DefaultTier:     provider.Tier(cfg.Transcription.Tier),
		DefaultLanguage: cfg.Transcription.Language,
	}, a.log)

	d := daemon.New(daemon.Config{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		PidPath:         pidPath,
	}, handler.Routes(), a.log)

	d.OnShutdown("logger", func(context.Context) error {
		_ = a.log.Sync()
		return nil
	})
	d.OnShutdown("notes", func(context.Context) error {
		return a.store.Close()
	})

	if cfg.Templates.Watch {
		watcher := templates.NewWatcher(a.registry, cfg.Templates.Dir, a.log)
		if err := watcher.Start(ctx); err != nil {
			a.Close()
			return fmt.Errorf("failed to watch templates: %w", err)
		}
		d.OnShutdown("template watcher", func(context.Context) error {
			watcher.Stop()
			return nil
		})
	}

	a.log.Info("soapscribe starting",
		logger.String("addr", cfg.Server.Addr),
		logger.String("transcription", cfg.Transcription.Provider),
		logger.String("generation", cfg.Generation.Provider),
		logger.String("template", cfg.DefaultTemplate().String()),
		logger.String("database", cfg.Storage.Path))
	return d.Run(ctx)
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration wizard for soapscribe.
This will guide you through setting up:
- Provider API keys (OpenAI, Groq, ElevenLabs, Gemini)
- Transcription provider, tier and language
- Note generation model and default template
- Server, storage and logging`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	path := configPath
	if path == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Println(tui.StyleError.Render("Configuration validation failed"))
		return err
	}
	if err := config.Save(path, result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println(tui.StyleSuccess.Render("Configuration saved successfully!"))
	fmt.Println()
	showNextSteps(result.Config, path)
	return nil
}

func showNextSteps(cfg *config.Config, path string) {
	fmt.Println("Next Steps:")
	step := 1
	if cfg.Transcription.Provider == provider.ProviderWhisperCpp {
		tier := provider.Tier(cfg.Transcription.Tier)
		id, _ := provider.ResolveModel(cfg.Transcription.Provider, provider.Transcription, tier, tierOverride(cfg, tier))
		fmt.Printf("%d. Download a model: soapscribe models download %s\n", step, id)
		step++
	}
	fmt.Printf("%d. Check your setup: soapscribe doctor\n", step)
	step++
	fmt.Printf("%d. Start the API: soapscribe serve (listening on %s)\n", step, cfg.Server.Addr)
	fmt.Println()
	fmt.Printf("Config file location: %s\n", path)
}

// tierOverride returns the configured model for tier, empty for the provider default
func tierOverride(cfg *config.Config, tier provider.Tier) string {
	if tier == provider.TierFast {
		return cfg.Transcription.Models.Fast
	}
	return cfg.Transcription.Models.Accurate
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and local dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

func runDoctor() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	failed := false
	check := func(name string, err error) {
		if err != nil {
			failed = true
			fmt.Printf("  %s %s: %v\n", tui.StyleError.Render("[x]"), name, err)
			return
		}
		fmt.Printf("  %s %s\n", tui.StyleSuccess.Render("[ok]"), name)
	}

	fmt.Println("Configuration:")
	check("config valid", cfg.Validate())
	if keys := cfg.UnknownKeys(); len(keys) > 0 {
		fmt.Printf("  %s unknown keys ignored: %s\n", tui.StyleWarning.Render("[!]"), strings.Join(keys, ", "))
	}
	registry, err := loadRegistry(cfg, logger.Nop())
	check("templates load", err)
	if err == nil {
		_, err = registry.Resolve(cfg.DefaultTemplate())
		check(fmt.Sprintf("default template %s", cfg.DefaultTemplate()), err)
	}
	check("database directory writable", deps.CheckWritableDir(filepath.Dir(cfg.Storage.Path)))
	if cfg.Audio.SpoolDir != "" {
		check("audio spool writable", deps.CheckWritableDir(cfg.Audio.SpoolDir))
	}

	if cfg.Transcription.Provider == provider.ProviderWhisperCpp {
		fmt.Println("whisper.cpp:")
		status := deps.CheckWhisperCli(cfg.Transcription.WhisperBinary)
		if status.Installed {
			check(fmt.Sprintf("%s found at %s", status.Name, status.Path), nil)
		} else {
			check(status.Name, fmt.Errorf("not found in PATH"))
		}
		store := whisper.NewStore(cfg.Transcription.WhisperModelsDir, nil)
		for _, tier := range []provider.Tier{provider.TierFast, provider.TierAccurate} {
			id, err := provider.ResolveModel(cfg.Transcription.Provider, provider.Transcription, tier, tierOverride(cfg, tier))
			if err != nil {
				check(fmt.Sprintf("%s model", tier), err)
				continue
			}
			path, err := store.Path(id)
			if err != nil {
				// explicit file paths are not in the catalog
				path = id
			}
			check(fmt.Sprintf("%s model %s", tier, id), deps.CheckFile(path))
		}
	}

	if failed {
		return apperr.New(apperr.InvalidRequest, "doctor found problems")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}
