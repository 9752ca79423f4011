package apihttp

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
)

func int64ToString(value int64) string {
	return strconv.FormatInt(value, 10)
}

func intToString(value int) string {
	return strconv.Itoa(value)
}

func urlQueryEscape(value string) string {
	return url.QueryEscape(value)
}

var apiTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC1123,
}

// apiTime accepts both zoned and naive ISO timestamps; naive ones are read as UTC.
type apiTime struct {
	time.Time
}

func (t *apiTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range apiTimeLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	// Unknown formats are dropped rather than failing the whole response.
	t.Time = time.Time{}
	return nil
}

func (t *apiTime) ptr() *time.Time {
	if t == nil || t.Time.IsZero() {
		return nil
	}
	value := t.Time
	return &value
}

func (t *apiTime) value() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Time
}

func jsonUnmarshal(data []byte, target interface{}) error {
	return json.Unmarshal(data, target)
}
