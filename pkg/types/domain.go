package types

// Profile is a named engine configuration found in the profiles directory.
type Profile struct {
	// Stable identifier (file name without extension).
	// example: home
	Name string `json:"name" example:"home"`
	// Absolute path to the JSON file.
	// example: /etc/hy2core/profiles/home.json
	Path string `json:"path" example:"/etc/hy2core/profiles/home.json"`
	// File size in bytes.
	// example: 512
	Size int64 `json:"size" example:"512"`
}

// ProfilesResponse wraps the list returned by GET /v1/profiles.
type ProfilesResponse struct {
	Profiles []Profile `json:"profiles"`
}
