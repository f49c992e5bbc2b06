package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// String returns the variable or def when it is unset
func String(key, def string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return val
}

// Int returns the variable parsed as an integer, def when unset or malformed
func Int(key string, def int) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	val, err := strconv.Atoi(strings.TrimSpace(valStr))
	if err != nil {
		return def
	}
	return val
}

func Bool(key string, def bool) bool {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	val, err := strconv.ParseBool(strings.TrimSpace(valStr))
	if err != nil {
		return def
	}
	return val
}

func Duration(key string, def time.Duration) time.Duration {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	val, err := time.ParseDuration(strings.TrimSpace(valStr))
	if err != nil {
		return def
	}
	return val
}

// Int64List parses a comma separated list, skipping malformed items
func Int64List(key string) []int64 {
	valStr, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(valStr) == "" {
		return nil
	}

	var list []int64
	for _, item := range strings.Split(valStr, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(item), 10, 64)
		if err != nil {
			continue
		}
		list = append(list, id)
	}
	return list
}
