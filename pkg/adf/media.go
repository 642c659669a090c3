package adf

import (
	"fmt"
	"image"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	// Decoders for the formats Confluence attachments use in practice.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// SizeProber reports the pixel dimensions of an image given a local path
// or an absolute URL.
type SizeProber interface {
	ProbeSize(pathOrURL string) (width, height int, err error)
}

// StandardProber probes local files with image.DecodeConfig and remote
// URLs over HTTP. The HTTP timeout is the latency boundary for remote
// probes; the conversion itself imposes none.
type StandardProber struct {
	Client *http.Client
}

// NewStandardProber returns a prober with a 30s HTTP timeout.
func NewStandardProber() *StandardProber {
	return &StandardProber{Client: &http.Client{Timeout: 30 * time.Second}}
}

// ProbeSize implements SizeProber.
func (p *StandardProber) ProbeSize(pathOrURL string) (int, int, error) {
	if isRemoteURL(pathOrURL) {
		client := p.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Get(pathOrURL)
		if err != nil {
			return 0, 0, fmt.Errorf("probe %s: %w", pathOrURL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return 0, 0, fmt.Errorf("probe %s: status %d", pathOrURL, resp.StatusCode)
		}
		cfg, _, err := image.DecodeConfig(resp.Body)
		if err != nil {
			return 0, 0, fmt.Errorf("probe %s: %w", pathOrURL, err)
		}
		return cfg.Width, cfg.Height, nil
	}

	f, err := os.Open(pathOrURL)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("probe %s: %w", pathOrURL, err)
	}
	return cfg.Width, cfg.Height, nil
}

func isRemoteURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// dimensions of a media node; nil fields mean unresolved.
type dimensions struct {
	width  *int
	height *int
}

// resolveDimensions determines a media node's width and height.
//
// Explicit width and height attributes win verbatim. Otherwise the image
// is probed (over HTTP for absolute URLs, else the first existing local
// candidate: imagesdir/target, then target, both against baseDir). With
// one explicit dimension the other is computed from the probed aspect
// ratio. Total failure leaves both nil: the media node is emitted without
// dimensions rather than erroring. quiet suppresses the warn log for
// inline images.
func (c *Converter) resolveDimensions(widthAttr, heightAttr, target string, quiet bool) dimensions {
	width := parseDimension(widthAttr)
	height := parseDimension(heightAttr)
	if width != nil && height != nil {
		return dimensions{width: width, height: height}
	}

	probeTarget, attempted, ok := c.locateImage(target)
	if !ok {
		if !quiet {
			c.logger.Warn("image not found, emitting media node without dimensions",
				"target", target, "searched", strings.Join(attempted, ", "))
		}
		return dimensions{width: width, height: height}
	}

	probedW, probedH, err := c.prober.ProbeSize(probeTarget)
	if err != nil || probedW <= 0 || probedH <= 0 {
		if !quiet {
			c.logger.Warn("image probe failed, emitting media node without dimensions",
				"target", probeTarget, "error", err)
		}
		return dimensions{width: width, height: height}
	}

	switch {
	case width != nil:
		h := scaleDimension(*width, probedH, probedW)
		return dimensions{width: width, height: &h}
	case height != nil:
		w := scaleDimension(*height, probedW, probedH)
		return dimensions{width: &w, height: height}
	default:
		return dimensions{width: &probedW, height: &probedH}
	}
}

// locateImage picks the path or URL to probe for a target, returning every
// candidate tried for the failure log.
func (c *Converter) locateImage(target string) (string, []string, bool) {
	if isRemoteURL(target) {
		return target, []string{target}, true
	}

	var attempted []string
	if c.imagesDir != "" {
		candidate := normalizeAgainst(c.baseDir, filepath.Join(c.imagesDir, target))
		attempted = append(attempted, candidate)
		if fileExists(candidate) {
			return candidate, attempted, true
		}
	}
	candidate := normalizeAgainst(c.baseDir, target)
	attempted = append(attempted, candidate)
	if fileExists(candidate) {
		return candidate, attempted, true
	}
	return "", attempted, false
}

func normalizeAgainst(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(baseDir, path))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func parseDimension(attr string) *int {
	attr = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(attr), "px"))
	if attr == "" {
		return nil
	}
	v, err := strconv.Atoi(attr)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// scaleDimension computes given*num/den with exact integer rounding.
func scaleDimension(given, num, den int) int {
	return int(math.Round(float64(given) * float64(num) / float64(den)))
}
