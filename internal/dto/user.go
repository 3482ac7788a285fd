package dto

// ResolvedSettings is the settings view returned to clients: unset flags are
// already resolved against the configured defaults.
type ResolvedSettings struct {
	EnableActual      bool `json:"enableActual"`
	EnableEmailExport bool `json:"enableEmailExport"`
}

// SettingsPatch updates only the flags that were present in the request body.
type SettingsPatch struct {
	EnableActual      *bool `json:"enableActual"`
	EnableEmailExport *bool `json:"enableEmailExport"`
}
