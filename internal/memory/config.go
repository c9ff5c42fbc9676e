package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"media-transcoder/internal/logging"
)

// DefaultMemoryRatio is the share of container memory given to the Go heap.
// The rest is left for ffmpeg and ffprobe.
const DefaultMemoryRatio = 0.25

// Result describes what ConfigureFromEnv did.
type Result struct {
	// Configured is true when a limit is in effect
	Configured bool

	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	Source string

	// ContainerLimit is the parsed MEMORY_LIMIT in bytes
	ContainerLimit int64

	// GoMemLimit is the runtime limit in bytes
	GoMemLimit int64

	// Ratio is the share applied to ContainerLimit
	Ratio float64
}

// ConfigureFromEnv sets the runtime memory limit from the environment.
// Call it early in main, before significant allocations.
func ConfigureFromEnv() Result {
	return configure(os.LookupEnv, debug.SetMemoryLimit)
}

func configure(lookup func(string) (string, bool), setLimit func(int64) int64) Result {
	if v, ok := lookup("GOMEMLIMIT"); ok && v != "" {
		result := Result{Source: "GOMEMLIMIT"}
		if limit := setLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		return result
	}

	limitStr, _ := lookup("MEMORY_LIMIT")
	if limitStr == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return Result{Source: "none"}
	}

	ratioStr, _ := lookup("MEMORY_RATIO")
	containerLimit, ratio, err := computeLimit(limitStr, ratioStr)
	if err != nil {
		logging.Warn("Memory limit not configured: %v", err)
		return Result{Source: "none"}
	}

	goMemLimit := int64(float64(containerLimit) * ratio)
	setLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		formatBytes(goMemLimit), ratio*100, formatBytes(containerLimit))

	return Result{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

// computeLimit parses the container limit and ratio. An invalid ratio falls
// back to the default; an invalid limit is an error.
func computeLimit(limitStr, ratioStr string) (int64, float64, error) {
	limit, err := strconv.ParseInt(strings.TrimSpace(limitStr), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid MEMORY_LIMIT %q: %w", limitStr, err)
	}
	if limit <= 0 {
		return 0, 0, fmt.Errorf("MEMORY_LIMIT must be positive, got %d", limit)
	}

	ratio := DefaultMemoryRatio
	if ratioStr != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(ratioStr), 64)
		switch {
		case err != nil:
			logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", ratioStr, err, DefaultMemoryRatio)
		case parsed <= 0 || parsed > 1.0:
			logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using default %.2f", ratioStr, DefaultMemoryRatio)
		default:
			ratio = parsed
		}
	}

	return limit, ratio, nil
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
