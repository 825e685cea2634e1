package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"ripple/internal/logging"
)

// ErrConversion marks a failed ffmpeg run.
var ErrConversion = errors.New("conversion failed")

// Runner executes ffmpeg conversions.
type Runner struct {
	binary string
	logger *slog.Logger
}

// NewRunner builds a Runner using the given ffmpeg binary name or path.
func NewRunner(binary string, logger *slog.Logger) *Runner {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{binary: binary, logger: logging.NewComponentLogger(logger, "convert")}
}

// Convert transcodes input into the codec's container next to the input file
// and returns the output path. The encode targets a temp file first; the
// output only appears under its final name after ffmpeg succeeds, so a
// killed run never leaves a plausible-looking but truncated file.
func (r *Runner) Convert(ctx context.Context, codec Codec, input string, opts Options) (string, error) {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	output := filepath.Join(filepath.Dir(input), base+"."+codec.Container)
	temp := filepath.Join(filepath.Dir(input), fmt.Sprintf(".%s.%d.partial", filepath.Base(output), time.Now().UnixNano()))

	args, err := codec.BuildArgs(input, temp, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConversion, err)
	}

	r.logger.Debug("launching ffmpeg",
		logging.String("codec", codec.Name),
		logging.String("input", input),
		logging.String("output", output),
	)

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(temp)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("%w: %s: %s", ErrConversion, err, detail)
		}
		return "", fmt.Errorf("%w: %s", ErrConversion, err)
	}

	if _, err := os.Stat(temp); err != nil {
		return "", fmt.Errorf("%w: ffmpeg exited cleanly but produced no output", ErrConversion)
	}
	if err := os.Rename(temp, output); err != nil {
		_ = os.Remove(temp)
		return "", fmt.Errorf("%w: finalize output: %w", ErrConversion, err)
	}
	return output, nil
}
