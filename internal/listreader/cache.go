package listreader

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/indexbuild/pipeline/internal/codec"
	"github.com/indexbuild/pipeline/internal/index"
	pipeerr "github.com/indexbuild/pipeline/pkg/errors"
	"github.com/indexbuild/pipeline/pkg/metrics"
	"github.com/indexbuild/pipeline/pkg/redis"
	"github.com/indexbuild/pipeline/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "postings:"

// BlockCache fronts an Index with a Redis-backed cache of decoded posting
// blocks, keyed by (term, block index). Blocks are immutable once a merge
// has committed, so entries never need invalidation, only a TTL for memory
// pressure. A circuit breaker isolates callers from a degraded Redis: on an
// open circuit CachedIndex falls straight through to disk.
type BlockCache struct {
	client  *redis.Client
	ttlSecs int
	group   singleflight.Group
	cb      *resilience.CircuitBreaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewBlockCache wraps a Redis client as a posting-block cache.
func NewBlockCache(client *redis.Client, ttlSeconds int, m *metrics.Metrics) *BlockCache {
	return &BlockCache{
		client:  client,
		ttlSecs: ttlSeconds,
		cb:      resilience.NewCircuitBreaker("listreader-redis", resilience.CircuitBreakerConfig{}),
		metrics: m,
		logger:  slog.Default().With("component", "block-cache"),
	}
}

// CachedIndex decorates an Index so that decoded blocks are looked up in a
// BlockCache before falling back to disk.
type CachedIndex struct {
	*Index
	cache *BlockCache
}

// WithCache returns idx decorated with caching of decoded blocks.
func (idx *Index) WithCache(cache *BlockCache) *CachedIndex {
	return &CachedIndex{Index: idx, cache: cache}
}

// OpenList positions a cursor at the start of term's posting list, routing
// block decodes through the cache.
func (ci *CachedIndex) OpenList(ctx context.Context, term string) (*CachedListHandle, error) {
	h, err := ci.Index.OpenList(term)
	if err != nil {
		return nil, err
	}
	return &CachedListHandle{ListHandle: h, ctx: ctx, cache: ci.cache}, nil
}

// CachedListHandle is a ListHandle whose block decoding is interposed with
// a BlockCache lookup.
type CachedListHandle struct {
	*ListHandle
	ctx   context.Context
	cache *BlockCache
}

// NextGEQ behaves like ListHandle.NextGEQ but serves decoded blocks from
// the cache when present, populating it on miss.
func (h *CachedListHandle) NextGEQ(target uint32) (index.Posting, error) {
	blockIdx := h.blockSearch(target)
	if blockIdx >= len(h.entry.blocks) {
		return index.Posting{}, pipeerr.EndOfList
	}
	if h.decodedBlock != blockIdx {
		docIDs, freqs, err := h.cache.getOrDecode(h.ctx, h.term, blockIdx, h.entry.blocks[blockIdx], func() ([]uint32, []uint32, error) {
			if err := h.decode(blockIdx); err != nil {
				return nil, nil, err
			}
			return h.docIDs, h.freqs, nil
		})
		if err != nil {
			return index.Posting{}, err
		}
		h.docIDs, h.freqs, h.decodedBlock = docIDs, freqs, blockIdx
	}
	pos := sort.Search(len(h.docIDs), func(i int) bool { return h.docIDs[i] >= target })
	if pos >= len(h.docIDs) {
		return index.Posting{}, pipeerr.EndOfList
	}
	return index.Posting{DocID: h.docIDs[pos], TermFreq: h.freqs[pos]}, nil
}

// getOrDecode fetches a decoded block from Redis, falling back to fetchFn
// (which decodes from disk and repopulates the cache) on a miss or when the
// circuit breaker has tripped the cache as unavailable. Concurrent lookups
// for the same key are collapsed via singleflight.
func (c *BlockCache) getOrDecode(ctx context.Context, term string, blockIdx int, b block, fetchFn func() ([]uint32, []uint32, error)) ([]uint32, []uint32, error) {
	key := c.blockKey(term, blockIdx)

	if c.cb.GetState() != resilience.StateOpen {
		if raw, err := c.client.Get(ctx, key); err == nil {
			docIDs, freqs, decErr := decodeCachedBlock(raw, b)
			if decErr == nil {
				c.metrics.ListCacheHitsTotal.Inc()
				c.cb.Execute(func() error { return nil })
				return docIDs, freqs, nil
			}
			c.logger.Warn("discarding corrupt cache entry", "key", key, "error", decErr)
		} else if !redis.IsNilError(err) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
	}
	c.metrics.ListCacheMissTotal.Inc()

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		docIDs, freqs, err := fetchFn()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, docIDs, freqs)
		return [2][]uint32{docIDs, freqs}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	pair := val.([2][]uint32)
	return pair[0], pair[1], nil
}

func (c *BlockCache) set(ctx context.Context, key string, docIDs, freqs []uint32) {
	buf := encodeCachedBlock(docIDs, freqs)
	cbErr := c.cb.Execute(func() error {
		return c.client.Set(ctx, key, buf, secondsToDuration(c.ttlSecs))
	})
	if cbErr != nil {
		c.logger.Warn("cache set failed", "key", key, "error", cbErr)
	}
}

func secondsToDuration(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}

func (c *BlockCache) blockKey(term string, blockIdx int) string {
	h := sha256.Sum256([]byte(term))
	return fmt.Sprintf("%s%s:%d", cacheKeyPrefix, base64.RawURLEncoding.EncodeToString(h[:16]), blockIdx)
}

// encodeCachedBlock serializes a decoded block as a count prefix followed
// by its docIDs and termFreqs, each varbyte-coded the same way index.bin
// stores them. This keeps cached entries small without round-tripping
// through the d-gap/base machinery, since the cache stores final docIDs.
func encodeCachedBlock(docIDs, freqs []uint32) string {
	buf := make([]byte, 0, len(docIDs)*2+4)
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(docIDs)))
	buf = append(buf, countBuf[:]...)
	for _, d := range docIDs {
		buf = codec.AppendVarbyte(buf, d)
	}
	for _, f := range freqs {
		buf = codec.AppendVarbyte(buf, f)
	}
	return string(buf)
}

func decodeCachedBlock(raw string, b block) ([]uint32, []uint32, error) {
	buf := []byte(raw)
	if len(buf) < 4 {
		return nil, nil, pipeerr.New(pipeerr.ErrParse, "cached block too short")
	}
	count := int(binary.LittleEndian.Uint32(buf[:4]))
	if count != b.postings {
		return nil, nil, pipeerr.Newf(pipeerr.ErrParse, "cached block posting count %d != expected %d", count, b.postings)
	}
	docIDs, n, err := codec.DecodeVarbyteN(buf[4:], count)
	if err != nil {
		return nil, nil, err
	}
	freqs, _, err := codec.DecodeVarbyteN(buf[4+n:], count)
	if err != nil {
		return nil, nil, err
	}
	return docIDs, freqs, nil
}
