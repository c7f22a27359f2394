package models

// Step is one checklist entry of a work instruction. Read-only during
// execution; sessions reference steps by index.
type Step struct {
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	KeyPoints    []string `yaml:"key_points" json:"key_points"`
	SafetyPoints []string `yaml:"safety_points" json:"safety_points"`
	MaxTime      int      `yaml:"max_time" json:"max_time"` // target seconds, 0 = no target

	// Image fields as they appear in catalog files. Authors have used a
	// list, a comma-separated string, and the singular legacy keys over the
	// years; images.Resolve collapses them into one ordered list.
	Images   any    `yaml:"images" json:"images,omitempty"`
	Image    string `yaml:"image" json:"image,omitempty"`
	ImageURL string `yaml:"image_url" json:"image_url,omitempty"`
}

// WorkInstruction is an ordered list of steps describing how to perform a
// manufacturing order.
type WorkInstruction struct {
	ID        string `yaml:"id" json:"id"`
	Title     string `yaml:"title" json:"title"`
	MOPattern string `yaml:"mo_pattern" json:"mo_pattern"`
	Steps     []Step `yaml:"steps" json:"steps"`
}

// TargetTime returns the target seconds for a step, 0 when the index is out
// of range or the step has no target.
func (wi *WorkInstruction) TargetTime(index int) int {
	if index < 0 || index >= len(wi.Steps) {
		return 0
	}
	return wi.Steps[index].MaxTime
}
