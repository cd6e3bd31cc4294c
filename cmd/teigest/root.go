package main

import (
	"context"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/dgallion1/teigest/internal/config"
	"github.com/dgallion1/teigest/internal/pipeline"
)

type commandContext struct {
	configFlag *string
	outputFlag *string
	jsonFlag   *bool
}

// load resolves configuration for one invocation. Flags win over the file
// and environment.
func (c *commandContext) load() (config.Config, error) {
	cfg, err := config.Load(strings.TrimSpace(*c.configFlag))
	if err != nil {
		return cfg, err
	}
	if out := strings.TrimSpace(*c.outputFlag); out != "" {
		cfg.OutputDir = out
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *commandContext) pipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg)
	stdout := cmd.OutOrStdout()
	if *c.jsonFlag {
		// stdout carries only the run record.
		stdout = nil
	}
	return pipeline.New(cfg, log, stdout), nil
}

// finish prints the run record when --json is set and passes err through.
func (c *commandContext) finish(cmd *cobra.Command, run *pipeline.Run, err error) error {
	if *c.jsonFlag && run != nil {
		if jerr := writeJSON(cmd, run); jerr != nil && err == nil {
			err = jerr
		}
	}
	return err
}

func newRootCommand() *cobra.Command {
	var configFlag, outputFlag string
	var jsonFlag bool
	ctx := &commandContext{configFlag: &configFlag, outputFlag: &outputFlag, jsonFlag: &jsonFlag}

	rootCmd := &cobra.Command{
		Use:           "teigest",
		Short:         "Convert Korean literary transcripts to TEI XML",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output-dir", "o", "", "Directory for generated files")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print the run record as JSON instead of the report table")

	rootCmd.AddCommand(newStageCommand(ctx, "generate <transcript>",
		"Build a TEI document from a transcript", (*pipeline.Pipeline).Generate))
	rootCmd.AddCommand(newStageCommand(ctx, "addressee <tei.xml>",
		"Tag addressees in a generated document", (*pipeline.Pipeline).Addressee))
	rootCmd.AddCommand(newStageCommand(ctx, "transform <tei.xml>",
		"Canonicalize the header and rewrite speeches as quotations", (*pipeline.Pipeline).Transform))
	rootCmd.AddCommand(newReportCommand(ctx))
	rootCmd.AddCommand(newStageCommand(ctx, "run <transcript>",
		"Run every stage on a transcript", (*pipeline.Pipeline).RunAll))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

type stageFunc func(p *pipeline.Pipeline, ctx context.Context, input string) (*pipeline.Run, error)

func newStageCommand(ctx *commandContext, use, short string, stage stageFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  oneInput,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.pipeline(cmd)
			if err != nil {
				return err
			}
			run, err := stage(p, cmd.Context(), args[0])
			return ctx.finish(cmd, run, err)
		},
	}
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report <tei_final.xml>",
		Short: "Validate a finished document and write the quality report",
		Args:  oneInput,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.pipeline(cmd)
			if err != nil {
				return err
			}
			run, _, err := p.Report(cmd.Context(), args[0])
			return ctx.finish(cmd, run, err)
		},
	}
}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.load()
			if err != nil {
				return err
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// oneInput requires exactly one positional path and shows usage otherwise.
func oneInput(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		cmd.PrintErr(cmd.UsageString())
		return err
	}
	return nil
}
