package redis

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// KeyPrefixChild is the prefix for child record keys
	KeyPrefixChild = "cradle:child:"
	// KeyPrefixStats is the prefix for service call stat keys
	KeyPrefixStats = "cradle:stats:"
	// KeyAllChildren is the key for the set of all child IDs
	KeyAllChildren = "cradle:children:all"
)

// ChildKey returns the Redis key for a child by ID
func ChildKey(id int) string {
	return KeyPrefixChild + strconv.Itoa(id)
}

// StatsKey returns the Redis key for a service call counter
func StatsKey(service string) string {
	return KeyPrefixStats + service
}

// AllChildrenKey returns the key for the set of all child IDs
func AllChildrenKey() string {
	return KeyAllChildren
}

// ExtractChildID extracts the child ID from a Redis key
func ExtractChildID(key string) (int, error) {
	if len(key) <= len(KeyPrefixChild) || !strings.HasPrefix(key, KeyPrefixChild) {
		return 0, fmt.Errorf("invalid child key: %s", key)
	}
	id, err := strconv.Atoi(key[len(KeyPrefixChild):])
	if err != nil {
		return 0, fmt.Errorf("invalid child key: %s", key)
	}
	return id, nil
}
