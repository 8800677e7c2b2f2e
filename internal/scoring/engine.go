// ABOUTME: Pure score engine over the stratification registry.
// ABOUTME: Score, cutoff mapping, and override resolution.
package scoring

// Engine computes scores and priority levels from variable selections.
// It holds only immutable configuration, so one engine is shared by
// every computation and results are fully deterministic.
type Engine struct {
	registry Registry
	cutoffs  Cutoffs
}

// NewEngine builds an engine over the given registry and cutoffs.
func NewEngine(registry Registry, cutoffs Cutoffs) *Engine {
	return &Engine{registry: registry, cutoffs: cutoffs}
}

// NewDefaultEngine builds an engine over the default model.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultRegistry(), DefaultCutoffs)
}

// Registry exposes the engine's model, for callers that render labels.
func (e *Engine) Registry() Registry {
	return e.registry
}

// ComputeScore sums the point values of every answered variable.
// Selections that name no registry variable, or a value that is not
// one of the variable's options, contribute nothing.
func (e *Engine) ComputeScore(selections map[string]string) int {
	total := 0
	for _, v := range e.registry {
		sel, ok := selections[v.ID]
		if !ok {
			continue
		}
		for _, o := range v.Options {
			if o.Value == sel {
				total += o.Points
				break
			}
		}
	}
	return total
}

// LevelFromScore maps a numeric score onto a priority level using the
// configured cutoffs. Level 1 is the most urgent tier.
func (e *Engine) LevelFromScore(score int) int {
	switch {
	case score >= e.cutoffs.Level1:
		return 1
	case score >= e.cutoffs.Level2:
		return 2
	default:
		return 3
	}
}

// ResolveLevel returns the priority level for a score and its
// selections. Overrides are scanned in registry order and the first
// variable whose selection equals its trigger value wins outright; the
// numeric score is consulted only when no override fires. A selection
// that is not a declared option for its variable cannot trigger an
// override.
func (e *Engine) ResolveLevel(score int, selections map[string]string) int {
	for _, v := range e.registry {
		if v.Override == nil {
			continue
		}
		sel, ok := selections[v.ID]
		if !ok {
			continue
		}
		if !v.ValidSelection(sel) {
			continue
		}
		if sel == v.Override.TriggerValue {
			return v.Override.ForcedLevel
		}
	}
	return e.LevelFromScore(score)
}

// Evaluate is the common save-time path: score the selections and
// resolve the level in one call.
func (e *Engine) Evaluate(selections map[string]string) (score, level int) {
	score = e.ComputeScore(selections)
	return score, e.ResolveLevel(score, selections)
}

// ValidateSelections rejects selections that name unknown variables or
// values outside a variable's options. Used at the form boundary; the
// engine itself silently ignores such entries.
func (e *Engine) ValidateSelections(selections map[string]string) []string {
	var problems []string
	for id, val := range selections {
		v := e.registry.FindVariable(id)
		if v == nil {
			problems = append(problems, "unknown variable: "+id)
			continue
		}
		if !v.ValidSelection(val) {
			problems = append(problems, "variable "+id+" has no option "+val)
		}
	}
	return problems
}
