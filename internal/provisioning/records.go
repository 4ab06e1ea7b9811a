// Package provisioning grants default AI-service access to users lacking
// it. The default key is injected through configuration; no credential is
// ever embedded in source.
package provisioning

import "time"

// UsageStats tracks request counters on an API key assignment.
type UsageStats struct {
	TotalRequests int       `json:"totalRequests"`
	TodayRequests int       `json:"todayRequests"`
	LastReset     time.Time `json:"lastReset"`
}

// Assignment is the persisted API key assignment record, stored under
// api_assignment_<uid>.
type Assignment struct {
	UserID     string     `json:"userId"`
	APIKeyID   string     `json:"apiKeyId"`
	APIKey     string     `json:"apiKey"`
	AssignedAt time.Time  `json:"assignedAt"`
	Status     string     `json:"status"`
	UsageStats UsageStats `json:"usageStats"`
}

// StatusActive is the status tag written on instant setup.
const StatusActive = "active"

// Settings is the persisted AI settings record, stored under
// aiSettings_<uid>.
type Settings struct {
	KimiK2APIKey    string `json:"kimiK2ApiKey"`
	EnableAI        bool   `json:"enableAI"`
	AIProvider      string `json:"aiProvider"`
	MaxTokensPerDay int    `json:"maxTokensPerDay"`
}

// HasKey reports whether the settings grant usable AI access.
func (s Settings) HasKey() bool {
	return s.EnableAI && s.KimiK2APIKey != ""
}
