package postprocess

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"visionserver/internal/model"
)

var (
	passColor = color.NRGBA{R: 0, G: 200, B: 0, A: 255}
	failColor = color.NRGBA{R: 220, G: 0, B: 0, A: 255}
)

// Processor writes annotated copies of captured frames. Annotation is a
// verdict-colored border so a glance at the gallery shows pass/fail.
type Processor struct {
	imagesDir string
	outputDir string
}

func NewProcessor(imagesDir, outputDir string) (*Processor, error) {
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Processor{imagesDir: imagesDir, outputDir: outputDir}, nil
}

// SaveOriginal ensures the captured frame exists on disk under the images
// directory. Simulator frames already do; webcam frames arrive as bytes only.
func (p *Processor) SaveOriginal(frame *model.Frame) error {
	if frame.Path != "" {
		return nil
	}
	path := filepath.Join(p.imagesDir, frame.Filename)
	if err := os.WriteFile(path, frame.Data, 0644); err != nil {
		return fmt.Errorf("failed to save original frame: %w", err)
	}
	frame.Path = path
	return nil
}

// Annotate writes the processed copy of the frame and returns its path.
func (p *Processor) Annotate(frame *model.Frame, result model.Result) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(frame.Data))
	if err != nil {
		return "", fmt.Errorf("failed to decode frame %s: %w", frame.Filename, err)
	}

	annotated := imaging.Clone(img)

	border := passColor
	if result.Verdict == model.VerdictFail {
		border = failColor
	}

	bounds := annotated.Bounds()
	thickness := bounds.Dy() / 40
	if thickness < 4 {
		thickness = 4
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if x-bounds.Min.X < thickness || bounds.Max.X-x <= thickness ||
				y-bounds.Min.Y < thickness || bounds.Max.Y-y <= thickness {
				annotated.SetNRGBA(x, y, border)
			}
		}
	}

	ext := filepath.Ext(frame.Filename)
	base := strings.TrimSuffix(filepath.Base(frame.Filename), ext)
	if ext == "" {
		ext = ".jpg"
	}
	outName := fmt.Sprintf("%s_processed_%s%s", base, time.Now().Format("20060102150405"), ext)
	outPath := filepath.Join(p.outputDir, outName)

	if err := imaging.Save(annotated, outPath); err != nil {
		return "", fmt.Errorf("failed to save processed image: %w", err)
	}
	return outPath, nil
}
