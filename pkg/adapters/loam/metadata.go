package loam

// PresetMetadata is the frontmatter of a preset document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type PresetMetadata struct {
	ID        string         `json:"id" mapstructure:"id"`
	Algorithm string         `json:"algorithm" mapstructure:"algorithm"`
	Title     string         `json:"title" mapstructure:"title"`
	Seed      int64          `json:"seed" mapstructure:"seed"`
	Params    map[string]any `json:"params" mapstructure:"params"`

	// Play starts auto-play as soon as the trace is ready.
	Play bool `json:"play" mapstructure:"play"`
}
