package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachingExtractor memoizes extraction results by document content hash,
// so re-uploading the same file skips OCR.
type CachingExtractor struct {
	next   TextExtractor
	cache  *cache.Cache
	logger *slog.Logger
}

func NewCachingExtractor(next TextExtractor, ttl, cleanup time.Duration, logger *slog.Logger) *CachingExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingExtractor{
		next:   next,
		cache:  cache.New(ttl, cleanup),
		logger: logger,
	}
}

func (c *CachingExtractor) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	key, err := FileSHA256(path)
	if err != nil {
		// unreadable here means unreadable downstream too; let the extractor report it
		return c.next.Extract(ctx, path)
	}
	if v, ok := c.cache.Get(key); ok {
		res := v.(TextExtractionResult)
		res.Cached = true
		c.logger.Debug("extract.cache.hit", "path", path, "sha256", key[:12])
		return res, nil
	}

	res, err := c.next.Extract(ctx, path)
	if err != nil {
		return res, err
	}
	if strings.TrimSpace(res.Text) != "" {
		c.cache.SetDefault(key, res)
	}
	return res, nil
}

// Len reports the number of cached documents.
func (c *CachingExtractor) Len() int { return c.cache.ItemCount() }

// FileSHA256 hashes a file's content.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
