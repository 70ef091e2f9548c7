package output

import (
	"fmt"
	"sort"
	"strings"

	"UMKMForecast/internal/domain/models"
)

// Formatter renders a dashboard into a byte slice.
type Formatter interface {
	Format(d *models.Dashboard) ([]byte, error)
	// Name returns the canonical format name used on the command line.
	Name() string
}

var builtInFormatters = []Formatter{
	ConsoleFormatter{},
	CSVFormatter{},
	JSONFormatter{Indent: true},
}

var aliasMap = map[string]string{
	"text":        "console",
	"table":       "console",
	"csv-summary": "csv",
	"json-pretty": "json",
}

// NormalizeFormatName lowers and resolves aliases.
func NormalizeFormatName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := aliasMap[n]; ok {
		return mapped
	}
	return n
}

// GetFormatter returns the formatter registered under name or one of its aliases.
func GetFormatter(name string) (Formatter, error) {
	n := NormalizeFormatName(name)
	for _, f := range builtInFormatters {
		if f.Name() == n {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown format %q (available: %s)", name, strings.Join(AvailableFormatterNames(), ", "))
}

// AvailableFormatterNames returns the canonical formatter names.
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(builtInFormatters))
	for _, f := range builtInFormatters {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases returns the supported alias keys.
func AvailableFormatAliases() []string {
	keys := make([]string, 0, len(aliasMap))
	for k := range aliasMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
