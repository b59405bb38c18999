package adapters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"crawler-middleware/internal/logging/types"
)

// formatJSON renders an entry as a single JSON object with fields inlined
func formatJSON(entry *types.LogEntry) (string, error) {
	logData := map[string]interface{}{
		"level":   entry.Level.String(),
		"message": entry.Message,
		"time":    entry.Timestamp.Format(time.RFC3339Nano),
	}

	for k, v := range entry.Fields {
		if _, reserved := logData[k]; reserved {
			k = "fields." + k
		}
		logData[k] = v
	}

	data, err := json.Marshal(logData)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatText renders an entry as "time [LEVEL] message k=v ..." with keys sorted
func formatText(entry *types.LogEntry, colorize func(string) string) string {
	timestamp := entry.Timestamp.Format("2006-01-02T15:04:05.000Z07:00")
	level := strings.ToUpper(entry.Level.String())
	if colorize != nil {
		level = colorize(level)
	}

	output := fmt.Sprintf("%s [%s] %s", timestamp, level, entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		output += " " + strings.Join(pairs, " ")
	}

	return output
}

func format(entry *types.LogEntry, formatName string, colorize func(string) string) (string, error) {
	if strings.ToLower(formatName) == "text" {
		return formatText(entry, colorize), nil
	}
	return formatJSON(entry)
}
