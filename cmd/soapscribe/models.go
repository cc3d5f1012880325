package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/leonardotrapani/soapscribe/internal/config"
	"github.com/leonardotrapani/soapscribe/internal/models/whisper"
	"github.com/leonardotrapani/soapscribe/internal/provider"
	"github.com/spf13/cobra"
)

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List provider models and manage local whisper models",
	}
	cmd.AddCommand(modelsListCmd(), modelsDownloadCmd(), modelsRemoveCmd())
	return cmd
}

// modelStore opens the whisper model directory from config, or the default one
func modelStore() (*whisper.Store, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	return whisper.NewStore(cfg.Transcription.WhisperModelsDir, nil), nil
}

func modelsListCmd() *cobra.Command {
	var providerFilter string
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available transcription and generation models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelList(providerFilter, typeFilter)
		},
	}

	cmd.Flags().StringVar(&providerFilter, "provider", "", "filter by provider name")
	cmd.Flags().StringVar(&typeFilter, "type", "", "filter by type: transcription, generation")

	return cmd
}

func runModelList(providerFilter, typeFilter string) error {
	var filterType *provider.ModelType
	if typeFilter != "" {
		switch strings.ToLower(typeFilter) {
		case "transcription":
			t := provider.Transcription
			filterType = &t
		case "generation", "llm":
			t := provider.Generation
			filterType = &t
		default:
			return fmt.Errorf("invalid type: %s (use 'transcription' or 'generation')", typeFilter)
		}
	}

	providerNames := provider.ListProviders()
	if providerFilter != "" {
		if provider.GetProvider(providerFilter) == nil {
			return fmt.Errorf("unknown provider: %s", providerFilter)
		}
		providerNames = []string{providerFilter}
	}

	store, err := modelStore()
	if err != nil {
		return err
	}

	for _, name := range providerNames {
		p := provider.GetProvider(name)
		models := p.Models()
		if filterType != nil {
			models = provider.ModelsOfType(p, *filterType)
		}
		if len(models) == 0 {
			continue
		}

		fmt.Printf("\n%s:\n", name)
		for _, m := range models {
			fmt.Println(modelLine(m, store.IsInstalled))
		}
	}
	fmt.Println()
	return nil
}

func modelLine(m provider.Model, installed func(string) bool) string {
	prefix := "  "
	if m.Local {
		if installed(m.ID) {
			prefix = "  [x]"
		} else {
			prefix = "  [ ]"
		}
	}

	var parts []string
	if m.Type == provider.Generation {
		parts = append(parts, "generation")
	}
	if len(m.SupportedLanguages) > 0 {
		parts = append(parts, strings.Join(m.SupportedLanguages, "/")+" only")
	}
	if m.LocalInfo != nil && m.LocalInfo.Size != "" {
		parts = append(parts, m.LocalInfo.Size)
	}

	line := fmt.Sprintf("%s %s", prefix, m.ID)
	if m.Description != "" {
		line += fmt.Sprintf(" - %s", m.Description)
	}
	if len(parts) > 0 {
		line += fmt.Sprintf(" [%s]", strings.Join(parts, ", "))
	}
	return line
}

func modelsDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <model-name>",
		Short: "Download a local whisper model (e.g. base.en)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelDownload(cmd.Context(), args[0])
		},
	}
}

func runModelDownload(ctx context.Context, modelName string) error {
	store, err := modelStore()
	if err != nil {
		return err
	}
	path, err := store.Path(modelName)
	if err != nil {
		return err
	}
	if store.IsInstalled(modelName) {
		fmt.Printf("model '%s' is already installed at %s\n", modelName, path)
		return nil
	}

	fmt.Printf("downloading %s...\n", modelName)
	var lastPercent int
	err = store.Download(ctx, modelName, func(downloaded, total int64) {
		if total > 0 {
			percent := int(downloaded * 100 / total)
			if percent >= lastPercent+10 {
				fmt.Printf("%d%% ", percent)
				lastPercent = percent
			}
		}
	})
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Printf("\ndownload complete: %s\n", path)
	return nil
}

func modelsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model-name>",
		Short: "Remove a downloaded whisper model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := modelStore()
			if err != nil {
				return err
			}
			if err := store.Remove(args[0]); err != nil {
				return err
			}
			fmt.Printf("model '%s' removed successfully\n", args[0])
			return nil
		},
	}
}
