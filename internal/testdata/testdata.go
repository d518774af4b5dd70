// Package testdata generates fixed-size random-body fixture files on
// disk for probe steps driven by a k6 script (executor "k6"), since a
// k6 script reads its request body from a file rather than generating
// one in-process the way HTTPRunner does.
package testdata

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ethanadams/sigv4probe/internal/config"
)

const dataDir = "/tmp/sigv4probe-data"

// EnsureBodyFiles generates fixture body files for all configured
// k6-driven probe steps that specify a body size, if they don't already
// exist. Called once at startup.
func EnsureBodyFiles(cfg *config.Config) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create test data directory: %w", err)
	}

	log.Printf("Ensuring probe body fixtures in %s...", dataDir)

	fileSizes := make(map[string]int64)

	for _, p := range cfg.Probes {
		for _, step := range p.Steps {
			if step.Script == "" {
				continue
			}
			if step.BodySize != nil && step.BodySize.Int64() > 0 {
				size := step.BodySize.Int64()
				key := fmt.Sprintf("%s-%s-%d", p.Name, step.Name, size)
				fileSizes[key] = size
			}
		}
	}

	if len(fileSizes) == 0 {
		log.Printf("No k6-driven probe steps with a body size found, skipping fixture generation")
		return nil
	}

	for key, size := range fileSizes {
		filename := filepath.Join(dataDir, key+".bin")
		if err := ensureFile(filename, size); err != nil {
			log.Printf("Warning: failed to generate %s: %v", filename, err)
		}
	}

	entries, err := os.ReadDir(dataDir)
	if err == nil {
		log.Printf("Probe body fixtures ready (%d files):", len(entries))
		for _, entry := range entries {
			if info, err := entry.Info(); err == nil {
				log.Printf("  - %s (%s)", entry.Name(), formatBytes(info.Size()))
			}
		}
	}

	return nil
}

// ensureFile creates a fixture file if it doesn't exist or is the wrong size.
func ensureFile(filename string, size int64) error {
	if info, err := os.Stat(filename); err == nil {
		if info.Size() == size {
			log.Printf("  Using existing: %s", filepath.Base(filename))
			return nil
		}
		log.Printf("  Regenerating: %s (wrong size: %d vs %d)", filepath.Base(filename), info.Size(), size)
		os.Remove(filename)
	}

	log.Printf("  Generating: %s (%s)", filepath.Base(filename), formatBytes(size))

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	const chunkSize = 1024 * 1024 // 1MB chunks
	buf := make([]byte, chunkSize)
	remaining := size

	for remaining > 0 {
		toWrite := chunkSize
		if remaining < int64(chunkSize) {
			toWrite = int(remaining)
		}

		if _, err := rand.Read(buf[:toWrite]); err != nil {
			return fmt.Errorf("failed to generate random data: %w", err)
		}

		if _, err := f.Write(buf[:toWrite]); err != nil {
			return fmt.Errorf("failed to write data: %w", err)
		}

		remaining -= int64(toWrite)
	}

	return nil
}

// formatBytes formats bytes for human-readable output
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
