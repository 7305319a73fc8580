package utils

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/salepilot/salepilot_backend/config"
)

var mutex sync.Mutex

// cache a list of models under "<storeId>-All<Type>List"
func StoreRedisList[T any](items []*T, storeId string) error {
	key := storeId + "-All" + GetTypeName[T]() + "List"
	return config.SetRedisObject(key, items, 0)
}

func RetrieveRedisList[T any](storeId string) ([]*T, error) {
	key := storeId + "-All" + GetTypeName[T]() + "List"
	var items []*T
	exists, err := config.GetRedisObject(key, &items)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return items, nil
}

func ClearRedisList[T any](storeId string) error {
	key := storeId + "-All" + GetTypeName[T]() + "List"
	return config.RemoveRedisKey(key)
}

// GetSequence hands out the next per-store sequence number for T.
// Redis is the fast path; on a cold counter we seed it from MAX(sequence_no)
// in the database, then verify uniqueness before handing it out.
func GetSequence[T any](ctx context.Context, storeId string) (int64, error) {
	var model T
	mutex.Lock()
	defer mutex.Unlock()

	cacheKey := storeId + "-" + strings.ToLower(GetTypeName[T]()) + "_seq"
	var seqNo int64
	var err error
	db := config.GetDB()

	for {
		seqNo, err = config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		// if not found in redis, seed from db
		if seqNo <= 1 {
			var dbSeq *int64
			if err := db.WithContext(ctx).Model(&model).Select("max(sequence_no)").
				Where("store_id = ?", storeId).
				Scan(&dbSeq).Error; err != nil {
				return 0, err
			}
			if dbSeq == nil {
				seqNo = 0
			} else {
				seqNo = *dbSeq
			}
			seqNo++
			if err := config.SetRedisObject(cacheKey, &seqNo, 0); err != nil {
				return 0, err
			}
		}
		// collision check against rows written before the counter was seeded
		err = ValidateUnique[T](ctx, storeId, "sequence_no", seqNo, 0)
		if err == nil {
			break
		}
	}
	return seqNo, nil
}

// best-effort invalidation of the cached AR aggregates for a store
func InvalidateReceivableCache(storeId string) {
	_ = config.RemoveRedisKey(
		"report:receivable-summary:"+storeId,
		"report:ar-aging:"+storeId,
	)
}

// session tokens live in redis with a sliding TTL
func StoreSessionToken(token, username string, ttl time.Duration) error {
	return config.SetRedisValue("Token:"+token, username, ttl)
}
