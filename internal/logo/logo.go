package logo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher retrieves the raw logo payload for an ISIN. *api.Client satisfies
// this through GetLogo.
type Fetcher interface {
	GetLogo(ctx context.Context, isin, assetClass string) (data []byte, contentType string, err error)
}

// Variant classifies a decoded logo payload.
type Variant int

const (
	// Static is an SVG document, delivered raw or embedded in JSON.
	Static Variant = iota
	// Animated is a Lottie animation; frame 0 is exported.
	Animated
)

func (v Variant) String() string {
	if v == Animated {
		return "animated"
	}
	return "static"
}

// Service fetches logos once and caches the rendered SVG on disk.
type Service struct {
	fetcher Fetcher
	dir     string
	logger  *slog.Logger
}

// New creates a logo Service caching under dir.
func New(fetcher Fetcher, dir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fetcher: fetcher, dir: dir, logger: logger}
}

// EnsureLogo returns the path of the cached SVG for the ISIN, fetching and
// rendering it on the first call. Every supported payload form ends up as an
// SVG artifact at <dir>/<isin>.svg; re-rendering overwrites in place.
func (s *Service) EnsureLogo(ctx context.Context, isin, assetClass string) (string, error) {
	path := filepath.Join(s.dir, isin+".svg")

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	data, contentType, err := s.fetcher.GetLogo(ctx, isin, assetClass)
	if err != nil {
		return "", fmt.Errorf("fetch logo for %s: %w", isin, err)
	}

	svg, variant, err := Render(data, contentType)
	if err != nil {
		return "", fmt.Errorf("render logo for %s: %w", isin, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create logo dir: %w", err)
	}
	if err := os.WriteFile(path, svg, 0o644); err != nil {
		return "", fmt.Errorf("write logo artifact: %w", err)
	}

	s.logger.Debug("cached logo", "isin", isin, "variant", variant, "path", path)
	return path, nil
}

// Render decodes a logo payload into SVG bytes and reports its variant.
// Supported forms: raw SVG, JSON with an embedded "svg" string, and Lottie
// JSON (frame 0). Anything else is rejected.
func Render(data []byte, contentType string) ([]byte, Variant, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")

	if looksJSON(trimmed, contentType) {
		// JSON with an embedded SVG document
		var wrapper struct {
			SVG string `json:"svg"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err == nil && strings.Contains(wrapper.SVG, "<svg") {
			return []byte(wrapper.SVG), Static, nil
		}

		svg, err := exportLottieFrame(trimmed)
		if err != nil {
			return nil, Animated, err
		}
		return svg, Animated, nil
	}

	if bytes.HasPrefix(trimmed, []byte("<svg")) {
		return data, Static, nil
	}

	return nil, Static, fmt.Errorf("unsupported logo payload (content-type %q)", contentType)
}

func looksJSON(trimmed []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/json") {
		return true
	}
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
