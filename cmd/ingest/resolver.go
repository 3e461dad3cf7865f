package main

import (
	"strings"

	"github.com/kirillkom/beready-legal-assistant/internal/core/usecase"
	"github.com/kirillkom/beready-legal-assistant/internal/infrastructure/watcher"
)

const sidecarSuffix = ".meta.yaml"

type keyMapper interface {
	Key(path string) (string, error)
}

// guideKeyResolver maps a changed file to its guide key. A changed PDF
// sidecar re-publishes the PDF it describes.
func guideKeyResolver(storage keyMapper) watcher.Resolver {
	return func(path string) (string, bool) {
		key, err := storage.Key(path)
		if err != nil {
			return "", false
		}
		if strings.HasSuffix(strings.ToLower(key), sidecarSuffix) {
			key = key[:len(key)-len(sidecarSuffix)] + ".pdf"
		}
		return key, usecase.IsGuideSource(key)
	}
}
