package fallback

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Or returns value unless it is empty, in which case it returns the fallback.
// Prompt fragments use this so that an empty field becomes a default phrase.
func Or(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Text converts a loosely-typed JSON value into a string.
// nil becomes "", numbers and booleans are formatted, nested values are
// re-encoded as JSON.
func Text(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case map[string]interface{}, []interface{}:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(value)
}
