package telemetry

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Keys whose name contains any of these substrings never leave the process
// as telemetry. Document text and credentials in particular.
var denySubstrings = []string{
	"tender_text",
	"document",
	"phrase",
	"content",
	"authorization",
	"api_key",
	"token",
	"email",
	"phone",
}

const (
	maxStringAttr = 512
	maxSliceAttr  = 32
)

func blockedKey(key string) bool {
	lk := strings.ToLower(key)
	for _, bad := range denySubstrings {
		if strings.Contains(lk, bad) {
			return true
		}
	}
	return false
}

// SafeAttributes converts the map to OTEL attributes, dropping denied keys,
// oversized strings, and values of unsupported types.
func SafeAttributes(values map[string]interface{}) []attribute.KeyValue {
	if len(values) == 0 {
		return nil
	}

	attrs := make([]attribute.KeyValue, 0, len(values))
	for k, v := range values {
		if blockedKey(k) {
			continue
		}
		if kv, ok := toAttribute(k, v); ok {
			attrs = append(attrs, kv)
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func toAttribute(k string, v interface{}) (attribute.KeyValue, bool) {
	switch val := v.(type) {
	case string:
		if len(val) > maxStringAttr {
			return attribute.KeyValue{}, false
		}
		return attribute.String(k, val), true
	case bool:
		return attribute.Bool(k, val), true
	case int:
		return attribute.Int(k, val), true
	case int64:
		return attribute.Int64(k, val), true
	case float64:
		return attribute.Float64(k, val), true
	case []string:
		if len(val) > maxSliceAttr {
			val = val[:maxSliceAttr]
		}
		return attribute.StringSlice(k, val), true
	case []int:
		if len(val) > maxSliceAttr {
			val = val[:maxSliceAttr]
		}
		conv := make([]int64, len(val))
		for i, n := range val {
			conv[i] = int64(n)
		}
		return attribute.Int64Slice(k, conv), true
	default:
		return attribute.KeyValue{}, false
	}
}
