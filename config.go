package mural

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the user-tunable startup settings read from ~/.muralrc.
type Config struct {
	ResolutionW   float64
	ResolutionH   float64
	Background    string
	Linking       bool
	SaveDirectory string
}

// DefaultConfig returns the settings used when no rc file exists.
func DefaultConfig() *Config {
	return &Config{
		ResolutionW: 1280,
		ResolutionH: 720,
		Background:  "#ffffff",
		Linking:     true,
	}
}

// LoadConfig reads ~/.muralrc, a key=value file with # comments.
// Unknown keys and malformed lines are skipped; a missing file yields
// the defaults.
func LoadConfig() *Config {
	config := DefaultConfig()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return config
	}

	configPath := filepath.Join(homeDir, ".muralrc")
	file, err := os.Open(configPath)
	if err != nil {
		return config
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch strings.ToLower(key) {
		case "resolution":
			// WxH, e.g. 1920x1080
			dims := strings.SplitN(strings.ToLower(value), "x", 2)
			if len(dims) != 2 {
				continue
			}
			w, werr := strconv.ParseFloat(strings.TrimSpace(dims[0]), 64)
			h, herr := strconv.ParseFloat(strings.TrimSpace(dims[1]), 64)
			if werr == nil && herr == nil && w >= 1 && h >= 1 {
				config.ResolutionW = w
				config.ResolutionH = h
			}
		case "background", "bg":
			if strings.HasPrefix(value, "#") {
				config.Background = value
			}
		case "linking", "link":
			config.Linking = strings.ToLower(value) == "true"
		case "savedirectory", "save_directory", "savedir":
			if strings.HasPrefix(value, "~") {
				value = filepath.Join(homeDir, strings.TrimPrefix(value, "~"))
			}
			if !filepath.IsAbs(value) {
				if absPath, err := filepath.Abs(value); err == nil {
					value = absPath
				}
			}
			config.SaveDirectory = value
		}
	}

	return config
}

// GetSavePath resolves a snapshot filename against the configured save
// directory, creating the directory on first use.
func (c *Config) GetSavePath(filename string) string {
	if c.SaveDirectory == "" {
		return filename
	}
	os.MkdirAll(c.SaveDirectory, 0755)
	return filepath.Join(c.SaveDirectory, filename)
}
