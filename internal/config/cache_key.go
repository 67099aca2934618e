package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CourseDetailKey returns the cache key for a single course with its category
func (r *CacheKeyStruct) CourseDetailKey(courseID int) string {
	return fmt.Sprintf("course:%d:detail", courseID)
}

// CategoryListKey returns the cache key for the full category list
func (r *CacheKeyStruct) CategoryListKey() string {
	return "categories:all"
}

// OrderStatusChannel returns the Redis PubSub channel name for an order's payment status
func (r *CacheKeyStruct) OrderStatusChannel(orderID int) string {
	return fmt.Sprintf("order:%d:status", orderID)
}

var CacheKey = NewCacheKeyStruct()
