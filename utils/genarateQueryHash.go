package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// GenerateHash generates two keys: one for searching (without timestamp) and one
// for storage (search key plus today's timestamp). A stored entry therefore only
// matches a search made on the same day.
func GenerateHash(resourceType string, filters map[string]string, page, pageSize int) (string, string) {
	timestamp := Today().Unix()

	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	query := fmt.Sprintf("resource=%s&page=%d&page_size=%d", resourceType, page, pageSize)
	for _, key := range keys {
		query += fmt.Sprintf("&%s=%s", key, filters[key])
	}

	searchHash := sha256.Sum256([]byte(query))
	searchKey := fmt.Sprintf("%s:%s", resourceType, hex.EncodeToString(searchHash[:]))
	storageKey := fmt.Sprintf("%s:%d", searchKey, timestamp)

	return searchKey, storageKey
}

// FindMatchingFile returns the file path stored under any key starting with
// searchKey. redis.Nil is returned when nothing is cached.
func FindMatchingFile(ctx context.Context, rdb *redis.Client, searchKey string) (string, error) {
	iter := rdb.Scan(ctx, 0, searchKey+":*", 0).Iterator()
	for iter.Next(ctx) {
		filePath, err := rdb.Get(ctx, iter.Val()).Result()
		if err == nil {
			return filePath, nil
		}
	}
	if err := iter.Err(); err != nil {
		return "", err
	}
	return "", redis.Nil
}
