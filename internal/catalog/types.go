package catalog

// Section is a top-level grouping of assessment areas.
type Section struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
}

// Area is a scored capability dimension within a section.
type Area struct {
	ID           string `json:"id"`
	SectionID    string `json:"section_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`

	// Rough effort estimates shown in the roadmap, one per level step.
	TimelineL1ToL2 string `json:"timeline_l1_to_l2"`
	TimelineL2ToL3 string `json:"timeline_l2_to_l3"`
	TimelineL3ToL4 string `json:"timeline_l3_to_l4"`
}

// Question is a single 1-4 scored item. LevelDescriptions[i] describes
// what score i+1 looks like in practice. Inactive questions stay in the
// catalog for old responses but are excluded from scoring and progress.
type Question struct {
	ID                string    `json:"id"`
	AreaID            string    `json:"area_id"`
	Text              string    `json:"text"`
	LevelDescriptions [4]string `json:"level_descriptions"`
	DisplayOrder      int       `json:"display_order"`
	Active            bool      `json:"active"`
}

// ActionGroup is one themed bundle of action items within a progression
// rule.
type ActionGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// ProgressionRule tells a team how to move an area from level
// TargetLevel-1 to TargetLevel. Target levels run 2 through 4; level 1
// is the floor and has no rule.
type ProgressionRule struct {
	AreaID         string        `json:"area_id"`
	TargetLevel    int           `json:"target_level"`
	Prerequisites  []string      `json:"prerequisites"`
	ActionItems    []ActionGroup `json:"action_items"`
	SuccessMetrics []string      `json:"success_metrics"`
	Timeline       string        `json:"timeline"`
	CommonPitfall  string        `json:"common_pitfall"`
}
