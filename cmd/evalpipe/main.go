// Command evalpipe trains and evaluates machine learning pipelines defined
// in YAML config files against CSV datasets.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/evalpipe/evalpipe/components"
	"github.com/evalpipe/evalpipe/objectives"
	"github.com/evalpipe/evalpipe/pipeline"
	"github.com/evalpipe/evalpipe/pkg/log"
)

const version = "v0.1.0"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	provider := log.NewZerologProviderWithLogger(zlog.Logger, log.LevelInfo)
	provider.RouteWarnings()
	pipeline.SetLoggerProvider(provider)
	components.SetLoggerProvider(provider)

	rootCmd := &cobra.Command{
		Use:     "evalpipe",
		Short:   "Train and evaluate ML pipelines from config files",
		Version: version,
	}

	objectivesCmd := &cobra.Command{
		Use:   "objectives",
		Short: "List the available objectives",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range objectives.Names() {
				fmt.Println(name)
			}
		},
	}

	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the pipeline a config file defines",
		RunE:  runDescribe,
	}
	describeCmd.Flags().String("config", "pipeline.yaml", "Pipeline config file")

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Train a pipeline on a CSV dataset and report scores",
		RunE:  runTrain,
	}
	trainCmd.Flags().String("config", "pipeline.yaml", "Pipeline config file")
	trainCmd.Flags().String("data", "", "Training data CSV (required)")
	trainCmd.Flags().Float64("test-fraction", 0.2, "Share of rows held out for scoring")
	trainCmd.Flags().String("importances-chart", "", "Write a feature importance chart to this file")
	_ = trainCmd.MarkFlagRequired("data")

	rootCmd.AddCommand(objectivesCmd, describeCmd, trainCmd)

	if err := rootCmd.Execute(); err != nil {
		zlog.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func runDescribe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	p, err := cfg.BuildPipeline()
	if err != nil {
		return err
	}
	p.Describe()
	return nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dataPath, _ := cmd.Flags().GetString("data")
	testFraction, _ := cmd.Flags().GetFloat64("test-fraction")
	chartPath, _ := cmd.Flags().GetString("importances-chart")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	p, err := cfg.BuildPipeline()
	if err != nil {
		return err
	}
	extras, err := cfg.ExtraObjectiveList()
	if err != nil {
		return err
	}

	dataset, err := LoadCSV(dataPath, cfg.TargetColumn)
	if err != nil {
		return err
	}
	rows, cols := dataset.X.Dims()
	zlog.Info().Int("rows", rows).Int("features", cols).Str("data", dataPath).Msg("dataset loaded")

	XTrain, XTest, yTrain, yTest, err := pipeline.TrainTestSplit(dataset.X, dataset.Y, testFraction, cfg.RandomState)
	if err != nil {
		return err
	}

	if err := p.Fit(XTrain, yTrain); err != nil {
		return err
	}

	primary, others, err := p.Score(XTest, yTest, extras...)
	if err != nil {
		return err
	}

	event := zlog.Info().
		Str("pipeline", p.Name()).
		Str("objective", p.Objective().Name()).
		Float64("score", primary)
	for _, other := range others {
		event = event.Float64(other.Name, other.Score)
	}
	event.Msg("pipeline scored")

	if chartPath != "" {
		if err := p.FeatureImportancesChart(chartPath); err != nil {
			return err
		}
		zlog.Info().Str("file", chartPath).Msg("importance chart written")
	}
	return nil
}
