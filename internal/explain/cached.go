package explain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// CachedExplainer memoizes another explainer. Only non-empty, grounded
// answers are stored. Cache failures are logged and treated as misses.
type CachedExplainer struct {
	next   Explainer
	cache  Cache
	logger *logrus.Logger
}

// NewCachedExplainer decorates next with cache.
func NewCachedExplainer(next Explainer, cache Cache, logger *logrus.Logger) *CachedExplainer {
	return &CachedExplainer{next: next, cache: cache, logger: logger}
}

// Explain implements Explainer
func (c *CachedExplainer) Explain(ctx context.Context, req Request) (string, error) {
	key := CacheKey(req)

	text, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("topic", req.Topic).Warn("Explanation cache read failed")
	} else if ok {
		return text, nil
	}

	text, err = c.next.Explain(ctx, req)
	if err != nil {
		return "", err
	}
	if text == "" {
		return text, nil
	}
	if err := CheckGrounded(text, req); err != nil {
		c.logger.WithError(err).WithField("topic", req.Topic).Debug("Not caching ungrounded explanation")
		return text, nil
	}

	if err := c.cache.Set(ctx, key, text); err != nil {
		c.logger.WithError(err).WithField("topic", req.Topic).Warn("Explanation cache write failed")
	}
	return text, nil
}

// CacheKey is the hex SHA-256 of the request's JSON form. encoding/json sorts
// map keys, so equal requests share a key.
func CacheKey(req Request) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
