// Package prompts holds the text prompt templates used to score tool slots
// against the vision-language model.
//
// The category set is closed: adding a tool means adding both a category
// name and a prompt template here.
package prompts

// Template pairs prompts that describe the tool with prompts that describe
// its absence. The presence score for a region is the mean positive
// similarity minus the mean negative similarity.
type Template struct {
	Positive []string
	Negative []string
}

// All returns every prompt, positives first.
func (t Template) All() []string {
	out := make([]string, 0, len(t.Positive)+len(t.Negative))
	out = append(out, t.Positive...)
	out = append(out, t.Negative...)
	return out
}

var templates = map[string]Template{
	"hammer": {
		Positive: []string{"hammer", "hammer tool", "claw hammer", "construction hammer"},
		Negative: []string{"no hammer", "empty space", "missing tool", "no tool"},
	},
	"flat_screwdriver": {
		Positive: []string{"screwdriver", "flat screwdriver", "flathead screwdriver", "screwdriver tool"},
		Negative: []string{"no screwdriver", "empty space", "missing tool", "no tool"},
	},
	"cross_screwdriver": {
		Positive: []string{"screwdriver", "phillips screwdriver", "cross screwdriver", "screwdriver tool"},
		Negative: []string{"no screwdriver", "empty space", "missing tool", "no tool"},
	},
	"cutter": {
		Positive: []string{"cutter", "utility knife", "box cutter", "cutting tool"},
		Negative: []string{"no cutter", "empty space", "missing tool", "no tool"},
	},
	"tape_measure": {
		Positive: []string{"tape measure", "measuring tape", "ruler", "measuring tool"},
		Negative: []string{"no tape measure", "empty space", "missing tool", "no tool"},
	},
	"hex_key_set": {
		Positive: []string{"hex keys", "allen keys", "hex key set", "allen wrench set"},
		Negative: []string{"no hex keys", "empty space", "missing tool", "no tool"},
	},
	"screw_box": {
		Positive: []string{"screws", "screw box", "hardware", "screw storage"},
		Negative: []string{"no screws", "empty compartment", "missing tool", "no tool"},
	},
	"pliers": {
		Positive: []string{"pliers", "pliers tool", "yellow pliers", "needle nose pliers"},
		Negative: []string{"no pliers", "empty space", "missing tool", "no tool"},
	},
	"wrench": {
		Positive: []string{"wrench", "adjustable wrench", "spanner", "wrench tool"},
		Negative: []string{"no wrench", "empty space", "missing tool", "no tool"},
	},
}

// categoryOrder keeps Categories deterministic.
var categoryOrder = []string{
	"hammer",
	"flat_screwdriver",
	"cross_screwdriver",
	"cutter",
	"tape_measure",
	"hex_key_set",
	"screw_box",
	"pliers",
	"wrench",
}

// ForCategory returns the template for a tool category.
func ForCategory(category string) (Template, bool) {
	t, ok := templates[category]
	return t, ok
}

// IsKnown reports whether category belongs to the closed category set.
func IsKnown(category string) bool {
	_, ok := templates[category]
	return ok
}

// Categories lists the closed category set in a stable order.
func Categories() []string {
	out := make([]string, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}
