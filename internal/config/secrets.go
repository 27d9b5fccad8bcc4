// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kataras/golog"
)

// LoadSecrets reads every file in dir and returns a map of filename to
// trimmed contents. Supported keys are anthropic-api-key and
// semantic-scholar-api-key. A missing directory yields an empty map;
// unreadable files are logged and skipped.
func LoadSecrets(dir string, logger *golog.Logger) (map[string]string, error) {
	if logger == nil {
		logger = golog.Default
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warnf("could not read secret %s: %v", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}
