package output

import (
	"encoding/json"

	"UMKMForecast/internal/domain/models"
)

type JSONFormatter struct {
	Indent bool
}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(d *models.Dashboard) ([]byte, error) {
	if j.Indent {
		return json.MarshalIndent(d, "", "  ")
	}
	return json.Marshal(d)
}
