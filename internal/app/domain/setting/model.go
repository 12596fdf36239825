package setting

import "time"

// Groups a setting can belong to. The group determines which part of the
// admin API may edit the setting.
const (
	GroupSite  = "site"
	GroupTheme = "theme"
	GroupLabs  = "labs"
)

// KeyLabs is the setting holding the JSON object of experimental flag
// states.
const KeyLabs = "labs"

// Setting represents one persisted configuration value. Values are stored
// as text; Type records how the value should be interpreted.
type Setting struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Type      string    `json:"type"`
	Group     string    `json:"group"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Value types understood by the settings service.
const (
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeJSON    = "json"
)
