package bucketing

import (
	"hash"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"

	"storefront/internal/config"
)

// BucketingManager assigns stable partition buckets for wide rows in
// Scylla. Users and orders hash to a fixed bucket so lookups by id always
// hit a single partition.
type BucketingManager struct {
	userBuckets  int
	orderBuckets int
	hasherPool   sync.Pool
}

func NewBucketingManager(cfg *config.Config) *BucketingManager {
	bm := &BucketingManager{
		userBuckets:  cfg.Bucketing.UserBuckets,
		orderBuckets: cfg.Bucketing.OrderBuckets,
	}

	// Pool of hash functions to avoid per-call allocation
	bm.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}

	return bm
}

// UserBucket returns the consistent bucket for a user id (0..userBuckets-1).
func (bm *BucketingManager) UserBucket(userID string) int {
	return bm.getBucket(userID, bm.userBuckets)
}

// OrderBucket returns the consistent bucket for an order id.
func (bm *BucketingManager) OrderBucket(orderID string) int {
	return bm.getBucket(orderID, bm.orderBuckets)
}

// DateBucket returns the UTC date partition key used for analytics rows.
func (bm *BucketingManager) DateBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (bm *BucketingManager) getBucket(key string, numBuckets int) int {
	if numBuckets <= 0 {
		return 0
	}
	return int(bm.getHash(key) % uint64(numBuckets))
}

func (bm *BucketingManager) getHash(key string) uint64 {
	hasher := bm.hasherPool.Get().(hash.Hash64)
	defer bm.hasherPool.Put(hasher)

	hasher.Reset()
	hasher.Write([]byte(key))
	return hasher.Sum64()
}
