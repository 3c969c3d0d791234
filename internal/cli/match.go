package cli

import (
	"context"
	"fmt"
	"strings"

	"atspro/internal/ai"
	"atspro/internal/ats"
	"atspro/internal/common"
	"atspro/internal/config"
	"atspro/internal/formatters"
	"atspro/internal/types"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match [resume-file] [job-description-file]",
	Short: "Score a resume against a job description",
	Long: `Score a resume against a job description with the configured resume
matching provider. The resume may be a PDF or a plain-text file; the job
description must be plain text. Nothing is stored.

The result includes:
- Overall match score and band
- Required skills found and missing
- Keyword coverage
- Education and experience fit
- Strengths, gaps and recommendations`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		// Apply default format if not specified
		if matchConfig.OutputFormat == "" {
			matchConfig.OutputFormat = cfg.App.DefaultFormat
		}
		matchConfig.MaxFileSize = cfg.App.MaxFileSize
		return common.ValidateOutputFormat(matchConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runMatch,
}

var (
	matchConfig common.CommandConfig
	matchTitle  string
)

func init() {
	matchCmd.Flags().StringVarP(&matchConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	matchCmd.Flags().StringVar(&matchConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	matchCmd.Flags().StringVar(&matchTitle, "title", "", "Job title, used to weight the title keywords")

	_ = matchCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil || len(cfg.App.SupportedFormats) == 0 {
			return formatters.GlobalRegistry.GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
		}
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	aiService, err := ai.NewService(cfg, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() { _ = aiService.Close() }()

	createInput := func(contents []string) (types.MatchResumeInput, error) {
		if len(contents) != 2 {
			return types.MatchResumeInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return types.MatchResumeInput{
			Resume:         contents[0],
			JobDescription: contents[1],
			JobTitle:       strings.TrimSpace(matchTitle),
		}, nil
	}

	logDetails := func(input types.MatchResumeInput, cfg common.CommandConfig) {
		logger.Info("Starting resume match",
			"provider", aiService.ProviderName(config.OpResumeMatch),
			"resume_chars", len(input.Resume),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	matchOperation := func(ctx context.Context, input types.MatchResumeInput) (any, error) {
		out, err := aiService.MatchResume(ctx, input)
		if err != nil {
			return nil, err
		}
		logger.Info("Resume matched", "score", out.MatchScore, "band", ai.MatchBand(out.MatchScore))
		return ats.NewResumeAnalysis(input, out), nil
	}

	if err := common.RunAICommand(cmd.Context(), logger, matchConfig, args, createInput, matchOperation, logDetails); err != nil {
		return fmt.Errorf("failed to match resume: %w", err)
	}
	return nil
}
