package logging

import (
	"fmt"

	"crawler-middleware/internal/logging/adapters"
	"crawler-middleware/internal/logging/types"
)

// AdapterFactory creates logging adapters based on configuration
type AdapterFactory struct{}

// NewAdapterFactory creates a new adapter factory
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{}
}

// CreateAdapter creates a logging adapter based on the provided configuration
func (f *AdapterFactory) CreateAdapter(adapterConfig types.AdapterConfig) (types.LogAdapter, error) {
	switch adapterConfig.Type {
	case "stdout":
		return adapters.NewStdoutAdapter(adapterConfig.Name, adapters.StdoutConfig{
			Format:    getStringOption(adapterConfig.Options, "format", "json"),
			Colorized: getBoolOption(adapterConfig.Options, "colorized", false),
		}), nil
	case "file":
		return adapters.NewFileAdapter(adapterConfig.Name, adapters.FileConfig{
			FilePath:   getStringOption(adapterConfig.Options, "file_path", ""),
			Format:     getStringOption(adapterConfig.Options, "format", "json"),
			MaxSizeMB:  getIntOption(adapterConfig.Options, "max_size_mb", 100),
			MaxAgeDays: getIntOption(adapterConfig.Options, "max_age_days", 0),
			MaxBackups: getIntOption(adapterConfig.Options, "max_backups", 10),
			Compress:   getBoolOption(adapterConfig.Options, "compress", false),
			CreateDirs: getBoolOption(adapterConfig.Options, "create_dirs", true),
		})
	case "zap":
		return adapters.NewZapAdapter(adapterConfig.Name, adapters.ZapConfig{
			Output:      getStringOption(adapterConfig.Options, "output", "stdout"),
			Development: getBoolOption(adapterConfig.Options, "development", false),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported adapter type: %s", adapterConfig.Type)
	}
}

func getStringOption(options map[string]interface{}, key string, defaultValue string) string {
	if value, exists := options[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

// getIntOption accepts the numeric types YAML and JSON decoders produce
func getIntOption(options map[string]interface{}, key string, defaultValue int) int {
	if value, exists := options[key]; exists {
		switch v := value.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultValue
}

func getBoolOption(options map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := options[key]; exists {
		if boolVal, ok := value.(bool); ok {
			return boolVal
		}
	}
	return defaultValue
}
