// Package utils provides helpers for working with generic database rows.
package utils

import (
	"fmt"
	"strconv"
)

// ParseString extracts a string value from a generic row column.
// MySQL drivers return text columns as []byte.
func ParseString(row map[string]interface{}, column string) string {
	value, ok := row[column]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParseNullableString extracts a string column that may be NULL.
func ParseNullableString(row map[string]interface{}, column string) *string {
	value, ok := row[column]
	if !ok || value == nil {
		return nil
	}
	s := ParseString(row, column)
	return &s
}

// ParseInt64 extracts an int64 value from a generic row column.
func ParseInt64(row map[string]interface{}, column string) int64 {
	value, ok := row[column]
	if !ok || value == nil {
		return 0
	}
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case []byte:
		parsed, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// ParseInt extracts an int value from a generic row column.
func ParseInt(row map[string]interface{}, column string) int {
	return int(ParseInt64(row, column))
}

// ParseBool extracts a boolean value from a generic row column.
// MySQL stores booleans as TINYINT(1).
func ParseBool(row map[string]interface{}, column string) bool {
	value, ok := row[column]
	if !ok || value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case []byte:
		return string(v) == "1" || string(v) == "true"
	case string:
		return v == "1" || v == "true"
	default:
		return false
	}
}
