package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"imageprep/config"
	"imageprep/database"
	"imageprep/imageprocessor"
	"imageprep/imageprocessor/opencv"
	"imageprep/logging"
	"imageprep/pipeline"
	"imageprep/signalhandler"
	"imageprep/types"
	"imageprep/utils"
)

func main() {
	ctx, cancel := signalhandler.SetupHandler()
	defer cancel()

	args := utils.ParseArguments(os.Args[1:])

	if _, ok := args["help"]; ok {
		utils.PrintUsage()
		return
	}

	// Setup debug logging if enabled
	if _, ok := args["debug"]; ok {
		logPath := "imageprep.log"
		if customLogPath, ok := args["logfile"]; ok && customLogPath != "" {
			logPath = customLogPath
		}
		if err := logging.SetupLogger(logPath); err != nil {
			fmt.Printf("Warning: Failed to setup logging: %v\n", err)
		} else {
			fmt.Printf("Debug mode enabled. Logging to: %s\n", logPath)
		}
	}
	defer logging.CloseLogger()

	var err error
	switch command := args["command"]; command {
	case utils.CommandRun:
		err = handleRunCommand(ctx, args)
	case utils.CommandReport:
		err = handleReportCommand(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		utils.PrintUsage()
		os.Exit(1)
	}

	if err != nil {
		logging.LogError("%v", err)
		logging.CloseLogger()
		log.Fatalf("Error: %v", err)
	}
}

func handleRunCommand(ctx context.Context, args map[string]string) error {
	overrides := config.Overrides{
		BaseDir:     args["base"],
		RefDir:      args["ref"],
		OutputDir:   args["output"],
		JournalPath: args["journal"],
		Engine:      args["engine"],
	}
	if value, ok := args["max-dim"]; ok {
		maxDim, err := utils.ParseMaxDimension(value)
		if err != nil {
			return err
		}
		overrides.MaxDimension = maxDim
	}

	cfg, err := config.Load(args["config"], utils.GetDefaultRoot())
	if err != nil {
		return err
	}
	cfg = cfg.ApplyOverrides(overrides)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	opts := pipeline.Options{Out: os.Stdout}

	switch cfg.Engine {
	case config.EngineOpenCV:
		opts.Resampler = opencv.NewResampler()
	default:
		opts.Resampler = imageprocessor.NewLanczosResampler()
	}

	var journal *database.Journal
	if cfg.JournalPath != "" {
		db, err := database.InitDatabase(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("error initializing journal: %v", err)
		}
		defer db.Close()

		// Record the directories the passes actually rewrite
		workBase, workRef := cfg.BaseDir, cfg.RefDir
		if cfg.OutputDir != "" {
			workBase, workRef = pipeline.MirrorDirs(cfg)
		}

		journal, err = database.StartRun(db, workBase, workRef)
		if err != nil {
			return err
		}
		opts.Recorder = journal
		opts.RunID = journal.RunID()
	}

	startTime := time.Now()
	summary, runErr := pipeline.Run(ctx, cfg, opts)

	if journal != nil {
		if err := journal.Finish(); err != nil {
			logging.LogError("%v", err)
		}
	}

	if summary != nil {
		pipeline.PrintSummary(os.Stdout, summary)
		fmt.Printf("Total execution time: %v\n", time.Since(startTime))
		if journal != nil {
			fmt.Printf("Journal: %s (run %d)\n", cfg.JournalPath, journal.RunID())
		}
	}

	if errors.Is(runErr, context.Canceled) {
		fmt.Println("\nInterrupted. Remaining files were left as they are.")
		return nil
	}
	return runErr
}

func handleReportCommand(args map[string]string) error {
	dbPath := args["journal"]
	if dbPath == "" {
		utils.PrintUsage()
		return fmt.Errorf("missing journal path (use --journal=FILE)")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("journal does not exist: %s", dbPath)
	}

	db, err := database.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("error opening journal: %v", err)
	}
	defer db.Close()

	runID, err := reportRunID(db, args)
	if err != nil {
		return err
	}

	stats, err := database.GetRunStats(db, runID)
	if err != nil {
		return err
	}

	printRunStats(stats)
	return nil
}

func reportRunID(db *sql.DB, args map[string]string) (int64, error) {
	if value, ok := args["run"]; ok {
		return utils.ParseRunID(value)
	}
	return database.LatestRunID(db)
}

func printRunStats(stats *database.RunStats) {
	finished := stats.FinishedAt
	if finished == "" {
		finished = "(not finished)"
	}

	fmt.Printf("Run %d\n", stats.RunID)
	fmt.Printf("- Base directory: %s\n", stats.BaseDir)
	fmt.Printf("- Ref directory: %s\n", stats.RefDir)
	fmt.Printf("- Started: %s\n", stats.StartedAt)
	fmt.Printf("- Finished: %s\n", finished)
	fmt.Printf("- Events: %d\n", stats.Events)

	stages := []types.Stage{types.StageNormalize, types.StageCap, types.StageReconcile}
	actions := []types.Action{
		types.ActionConverted,
		types.ActionResized,
		types.ActionUnchanged,
		types.ActionMissingCounterpart,
		types.ActionFailed,
	}

	fmt.Printf("\nActions:\n")
	for _, stage := range stages {
		counts := stats.Counts[stage]
		if len(counts) == 0 {
			continue
		}
		fmt.Printf("- %s:", stage)
		for _, action := range actions {
			if n, ok := counts[action]; ok {
				fmt.Printf(" %s=%d", action, n)
			}
		}
		fmt.Println()
	}

	if len(stats.Failures) > 0 {
		fmt.Printf("\nProblems:\n")
		for i, e := range stats.Failures {
			fmt.Printf("%d. [%s] %s %s\n", i+1, e.Stage, e.Action, e.Path)
			if e.Message != "" {
				fmt.Printf("   %s\n", e.Message)
			}
		}
	}
}
