//go:build govips && cgo

package pipeline

import (
	"fmt"
	"image"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	startupOnce sync.Once
	shutdownMu  sync.Mutex
	started     bool
)

func Startup() error {
	startupOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(&vips.Config{
			MaxCacheFiles: 0,
			MaxCacheMem:   128 * 1024 * 1024,
			MaxCacheSize:  100,
		})

		shutdownMu.Lock()
		started = true
		shutdownMu.Unlock()
	})
	return nil
}

func Shutdown() {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if !started {
		return
	}
	vips.Shutdown()
	started = false
}

func nativeHeicAvailable() bool {
	if err := Startup(); err != nil {
		return false
	}
	return vips.IsTypeSupported(vips.ImageTypeHEIF)
}

func nativeHeicDecode(path string) (image.Image, error) {
	ref, err := vips.NewImageFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("libvips HEIC load failed: %w", err)
	}
	defer ref.Close()

	img, err := ref.ToImage(vips.NewDefaultPNGExportParams())
	if err != nil {
		return nil, fmt.Errorf("libvips HEIC export failed: %w", err)
	}
	return img, nil
}
