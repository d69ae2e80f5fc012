package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"visionserver/internal/model"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
}

// Simulator replays image files from a directory in sorted order, wrapping
// around at the end. It stands in for a physical camera.
type Simulator struct {
	id        string
	imagesDir string
	latency   time.Duration

	mu        sync.Mutex
	files     []string
	next      int
	connected bool
}

func NewSimulator(id, imagesDir string) *Simulator {
	return &Simulator{id: id, imagesDir: imagesDir}
}

// SetLatency adds an artificial delay to every Capture call.
func (s *Simulator) SetLatency(d time.Duration) {
	s.mu.Lock()
	s.latency = d
	s.mu.Unlock()
}

// Connect scans the image directory. An empty directory is not an error at
// connect time; Capture will fail until files appear.
func (s *Simulator) Connect() error {
	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		return fmt.Errorf("failed to create images directory: %w", err)
	}

	entries, err := os.ReadDir(s.imagesDir)
	if err != nil {
		return fmt.Errorf("failed to read images directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	s.mu.Lock()
	s.files = files
	s.next = 0
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *Simulator) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Simulator) Capture(ctx context.Context) (*model.Frame, error) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil, ErrNotConnected
	}
	if len(s.files) == 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("no images available in %s", s.imagesDir)
	}
	filename := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	latency := s.latency
	s.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.imagesDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", filename, err)
	}

	return &model.Frame{
		Device:    s.id,
		Filename:  filename,
		Path:      path,
		Data:      data,
		Timestamp: time.Now(),
	}, nil
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}
