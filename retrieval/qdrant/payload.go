package qdrant

import (
	"strconv"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/poiesic/verbatim/core"
)

// Payload keys written by the transcript indexer.
const (
	keyPageContent = "page_content"
	keyText        = "text"
	keyMetadata    = "metadata"
	keySource      = "source"
	keySpeaker     = "speaker"
	keyTime        = "time"
	keyStartTime   = "start_time"
	keyEndTime     = "end_time"
)

// toPassage maps a scored point onto a Passage.
func toPassage(point *qdrant.ScoredPoint) core.Passage {
	meta := convertPayloadToMap(point.GetPayload())
	if nested, ok := meta[keyMetadata].(map[string]any); ok {
		for k, v := range nested {
			if _, exists := meta[k]; !exists {
				meta[k] = v
			}
		}
	}

	p := core.Passage{
		Text:     firstString(meta, keyPageContent, keyText),
		SourceID: firstString(meta, keySource),
		Speaker:  firstString(meta, keySpeaker),
		Time:     firstString(meta, keyTime),
		Vector:   denseVector(point.GetVectors()),
	}
	if d, ok := offset(meta[keyStartTime]); ok {
		p.Start = &d
	}
	if d, ok := offset(meta[keyEndTime]); ok {
		p.End = &d
	}
	return p
}

func firstString(meta map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := meta[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

// offset accepts seconds as a number or numeric string, or an H:MM:SS clock.
func offset(v any) (time.Duration, bool) {
	switch val := v.(type) {
	case int64:
		return time.Duration(val) * time.Second, true
	case float64:
		return time.Duration(val * float64(time.Second)), true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), true
		}
		return core.ParseClock(s)
	default:
		return 0, false
	}
}

func denseVector(v *qdrant.VectorsOutput) []float32 {
	out := v.GetVector()
	if out == nil {
		return nil
	}
	if dense := out.GetDense(); dense != nil {
		return dense.GetData()
	}
	return out.GetData()
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
