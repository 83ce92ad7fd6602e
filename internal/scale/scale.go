// Package scale batch-resizes job images so the longest side matches a
// target pixel size, writing results into a sibling folder and never touching
// the originals.
package scale

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/draw"

	"photojobs/internal/logging"
	"photojobs/internal/match"
)

// DefaultJPEGQuality is used when the caller does not override it.
const DefaultJPEGQuality = 95

// OutputRoot returns the default destination folder for a root and target
// size. Callers deriving lock paths must use this so a trailing separator on
// root cannot produce a second location.
func OutputRoot(root string, size int) string {
	return fmt.Sprintf("%s_%d", filepath.Clean(root), size)
}

// Params configures one scaling run.
type Params struct {
	Root        string
	Size        int    // target longest side in pixels
	OutDir      string // empty means <root>_<size>
	JPEGQuality int    // <= 0 means DefaultJPEGQuality
}

// Outcome tallies one scaling run.
type Outcome struct {
	Found      int
	Scaled     int
	Skipped    int // output exists or image already at size
	Failed     int
	OutputRoot string
	Failures   []string
}

// Scaler resizes images.
type Scaler struct {
	logger *slog.Logger
}

// New constructs a scaler.
func New(logger *slog.Logger) *Scaler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scaler{logger: logger.With(logging.String(logging.FieldComponent, "scale"))}
}

// Run resizes every image directly under p.Root into the output folder.
// Per-file failures are recorded and the run continues.
func (s *Scaler) Run(ctx context.Context, p Params) (*Outcome, error) {
	if p.Size <= 0 {
		return nil, fmt.Errorf("target size must be positive, got %d", p.Size)
	}
	quality := p.JPEGQuality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	outputRoot := p.OutDir
	if outputRoot == "" {
		outputRoot = OutputRoot(p.Root, p.Size)
	}

	entries, err := os.ReadDir(p.Root)
	if err != nil {
		return nil, fmt.Errorf("read root: %w", err)
	}
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !match.IsImage(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	outcome := &Outcome{Found: len(names), OutputRoot: outputRoot}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		dest := filepath.Join(outputRoot, name)
		if _, err := os.Stat(dest); err == nil {
			outcome.Skipped++
			continue
		}

		switch scaled, err := s.scaleOne(filepath.Join(p.Root, name), dest, p.Size, quality); {
		case err != nil:
			outcome.Failed++
			outcome.Failures = append(outcome.Failures, fmt.Sprintf("%s: %v", name, err))
		case scaled:
			outcome.Scaled++
		default:
			outcome.Skipped++
		}
	}
	sort.Strings(outcome.Failures)

	s.logger.Info("scaling finished",
		logging.Int("found", outcome.Found),
		logging.Int("scaled", outcome.Scaled),
		logging.Int("skipped", outcome.Skipped),
		logging.Int("failed", outcome.Failed))
	return outcome, nil
}

// scaleOne reports scaled=false when the image is already within the target
// size; nothing is written in that case.
func (s *Scaler) scaleOne(source, dest string, size, quality int) (bool, error) {
	file, err := os.Open(source)
	if err != nil {
		return false, err
	}
	defer file.Close()

	src, format, err := image.Decode(file)
	if err != nil {
		return false, fmt.Errorf("decode: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	longest := max(width, height)
	if longest <= size {
		return false, nil
	}

	ratio := float64(size) / float64(longest)
	dstW := max(1, int(float64(width)*ratio+0.5))
	dstH := max(1, int(float64(height)*ratio+0.5))

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	out, err := os.Create(dest)
	if err != nil {
		return false, err
	}
	defer out.Close()

	switch {
	case format == "png" || strings.EqualFold(filepath.Ext(dest), ".png"):
		err = png.Encode(out, dst)
	default:
		err = jpeg.Encode(out, dst, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		os.Remove(dest)
		return false, fmt.Errorf("encode: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return false, err
	}
	s.logger.Debug("scaled image",
		logging.String("path", dest),
		logging.Int("width", dstW),
		logging.Int("height", dstH))
	return true, nil
}
