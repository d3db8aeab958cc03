package utils

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Environment utilities
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Indian mobile numbers: 10 digits starting with 6-9
	phoneRegex = regexp.MustCompile(`^[6-9]\d{9}$`)
)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(strings.ReplaceAll(phone, " ", ""))
}

// IsPastDate reports whether the given YYYY-MM-DD date is before today.
// Malformed dates are treated as past so validation rejects them.
func IsPastDate(date string) bool {
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return true
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return d.Before(today)
}
