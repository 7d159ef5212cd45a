package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Commands understood by ParseArguments
const (
	CommandRun    = "run"
	CommandReport = "report"
)

// ParseArguments converts command-line arguments (without the program
// name) into a map of flags and values. The command is stored under
// "command" and defaults to run.
func ParseArguments(argv []string) map[string]string {
	args := make(map[string]string)
	args["command"] = CommandRun
	haveCommand := false

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		// Handle flags with equals sign (--key=value)
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			args[strings.TrimPrefix(parts[0], "--")] = parts[1]
			continue
		}

		// Handle flags without equals sign (--key value)
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			// Boolean flag when no value follows, or the next word is a command
			next := ""
			if i+1 < len(argv) {
				next = argv[i+1]
			}
			if next == "" || strings.HasPrefix(next, "--") || isCommand(next) {
				args[flagName] = "true"
			} else {
				args[flagName] = next
				i++
			}
			continue
		}

		// The first bare word is the command
		if !haveCommand {
			args["command"] = arg
			haveCommand = true
		}
	}

	return args
}

func isCommand(arg string) bool {
	return arg == CommandRun || arg == CommandReport
}

// GetDefaultRoot returns the directory holding the base and ref folders
// when none are configured: the directory of the executable.
func GetDefaultRoot() string {
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return "."
	}
	return filepath.Dir(exePath)
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s [run] [--base=DIR] [--ref=DIR] [--max-dim=N] [--config=FILE] [--output=DIR]\n", os.Args[0])
	fmt.Printf("      [--journal=FILE] [--engine=imaging|opencv] [--debug] [--logfile=PATH]\n")
	fmt.Printf("  %s report --journal=FILE [--run=ID]\n", os.Args[0])
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --base        : Directory of base images (default: %s)\n", filepath.Join(GetDefaultRoot(), "base"))
	fmt.Printf("  --ref         : Directory of reference images (default: %s)\n", filepath.Join(GetDefaultRoot(), "ref"))
	fmt.Printf("  --max-dim     : Largest allowed width or height (default: 2048)\n")
	fmt.Printf("  --config      : YAML configuration file\n")
	fmt.Printf("  --output      : Write results under this directory and leave the sources untouched\n")
	fmt.Printf("  --journal     : SQLite file recording every action of the run\n")
	fmt.Printf("  --engine      : Resampling engine (imaging or opencv, default: imaging)\n")
	fmt.Printf("  --run         : Run id to report on (default: latest)\n")
	fmt.Printf("  --debug       : Enable debug mode (logs detailed information)\n")
	fmt.Printf("  --logfile     : Specify custom log file path (default: imageprep.log)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s\n", os.Args[0])
	fmt.Printf("  %s run --base=/data/base --ref=/data/ref --journal=prep.db --debug\n", os.Args[0])
	fmt.Printf("  %s report --journal=prep.db\n", os.Args[0])
}

// ParseMaxDimension parses and validates a --max-dim value
func ParseMaxDimension(value string) (int, error) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return 0, fmt.Errorf("invalid max dimension '%s', must be a positive integer", value)
	}
	return parsed, nil
}

// ParseRunID parses and validates a --run value
func ParseRunID(value string) (int64, error) {
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 1 {
		return 0, fmt.Errorf("invalid run id '%s'", value)
	}
	return parsed, nil
}
