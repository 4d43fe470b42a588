package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// Record tables
const (
	tableUser      = "lfg_user"
	tableCharacter = "character"
	tablePost      = "lfg_post"
	tableApplicant = "applicant"
)

// resultRows flattens the {status, result} envelope of statement idx.
// A negative idx counts from the end.
func resultRows(result []interface{}, idx int) []map[string]interface{} {
	if idx < 0 {
		idx = len(result) + idx
	}
	if idx < 0 || idx >= len(result) {
		return nil
	}

	var raw interface{} = result[idx]
	if resp, ok := raw.(map[string]interface{}); ok {
		if _, has := resp["status"]; has {
			raw = resp["result"]
		}
	}

	switch v := raw.(type) {
	case []interface{}:
		rows := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				rows = append(rows, m)
			}
		}
		return rows
	case map[string]interface{}:
		return []map[string]interface{}{v}
	}
	return nil
}

// asRow unwraps a QueryOne result into a single record
func asRow(result interface{}) (map[string]interface{}, bool) {
	if arr, ok := result.([]interface{}); ok {
		if len(arr) == 0 {
			return nil, false
		}
		result = arr[0]
	}
	m, ok := result.(map[string]interface{})
	return m, ok
}

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to "table:key"
func convertSurrealID(id interface{}) string {
	if str, ok := id.(string); ok {
		return str
	}

	if rid, ok := id.(models.RecordID); ok {
		return fmt.Sprintf("%s:%v", rid.Table, rid.ID)
	}
	if rid, ok := id.(*models.RecordID); ok && rid != nil {
		return fmt.Sprintf("%s:%v", rid.Table, rid.ID)
	}

	// {"tb": "character", "id": {"String": "..."}} or similar
	if m, ok := id.(map[string]interface{}); ok {
		tb := ""
		for _, key := range []string{"tb", "TB", "Table"} {
			if t, ok := m[key].(string); ok {
				tb = t
				break
			}
		}
		idPart := ""
		if idVal, ok := m["id"]; ok {
			idPart = extractIDValue(idVal)
		} else if idVal, ok := m["ID"]; ok {
			idPart = extractIDValue(idVal)
		}
		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		if idPart != "" {
			return idPart
		}
	}

	return fmt.Sprintf("%v", id)
}

func extractIDValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	if m, ok := val.(map[string]interface{}); ok {
		if s, ok := m["String"].(string); ok {
			return s
		}
		if s, ok := m["string"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

// recordKey strips the table prefix and any ⟨⟩ escaping from a record id.
// Model ids are bare uuids.
func recordKey(id interface{}) string {
	s := convertSurrealID(id)
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimPrefix(s, "⟨")
	s = strings.TrimSuffix(s, "⟩")
	return strings.Trim(s, "`")
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getStringPtr(m map[string]interface{}, key string) *string {
	if v, ok := m[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}

// getTime extracts a time value from a map, zero when absent
func getTime(m map[string]interface{}, key string) time.Time {
	switch v := m[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	case time.Time:
		return v
	case models.CustomDateTime:
		return v.Time
	case *models.CustomDateTime:
		if v != nil {
			return v.Time
		}
	}
	return time.Time{}
}

// decodeInto round-trips a loosely typed value through JSON into out.
// Used for nested gems and engravings.
func decodeInto(v interface{}, out interface{}) error {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
