package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// Env returns the value of an environment variable, or defaultValue when
// the variable is unset or empty.
func Env(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// EnvList splits a comma separated environment variable into its trimmed
// items. A value without a comma yields a single item list.
func EnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		items = append(items, strings.TrimSpace(part))
	}
	return items
}

// EnvSet reports whether the variable is present with a non-empty value.
func EnvSet(key string) bool {
	return os.Getenv(key) != ""
}

func envFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return defaultValue
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Secret returns the first line of a mounted secret file with surrounding
// whitespace removed. ok is false when the file does not exist.
func Secret(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", true
	}
	return strings.TrimSpace(scanner.Text()), true
}

// SecretFile returns the full contents of a mounted secret file.
func SecretFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}
