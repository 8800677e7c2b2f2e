// ABOUTME: Stratification model registry: variables, options, overrides.
// ABOUTME: Pure configuration; the engine never names a variable.
package scoring

// Option is one selectable answer for a stratification variable.
type Option struct {
	Value  string
	Label  string
	Points int
}

// Override forces a priority level when a variable's selection matches
// the trigger value, regardless of the numeric score.
type Override struct {
	TriggerValue string
	ForcedLevel  int
}

// Variable is one stratification factor. All variables are
// single-choice. Override is nil for variables without one.
type Variable struct {
	ID       string
	Label    string
	Options  []Option
	Override *Override
}

// Registry is the ordered stratification model. Order matters for
// override evaluation: the first matching override wins.
type Registry []Variable

// Cutoffs maps a total score onto a priority level. A score at or
// above Level1 is level 1, at or above Level2 is level 2, else 3.
type Cutoffs struct {
	Level1 int `json:"level1"`
	Level2 int `json:"level2"`
}

// DefaultCutoffs are the published model thresholds.
var DefaultCutoffs = Cutoffs{Level1: 23, Level2: 17}

// DefaultRegistry returns the CMO stratification model. Adding or
// retiring a variable is an edit here only; engine code is untouched.
func DefaultRegistry() Registry {
	return Registry{
		{
			ID:    "embarazo",
			Label: "Embarazo o lactancia",
			Options: []Option{
				{Value: "no", Label: "No", Points: 0},
				{Value: "si", Label: "Sí", Points: 4},
			},
			Override: &Override{TriggerValue: "si", ForcedLevel: 1},
		},
		{
			ID:    "edad",
			Label: "Edad",
			Options: []Option{
				{Value: "menor65", Label: "< 65 años", Points: 0},
				{Value: "65a74", Label: "65–74 años", Points: 1},
				{Value: "mayor75", Label: "≥ 75 años", Points: 2},
			},
		},
		{
			ID:    "pluripatologia",
			Label: "Pluripatología",
			Options: []Option{
				{Value: "ninguna", Label: "0–1 patologías", Points: 0},
				{Value: "moderada", Label: "2–3 patologías", Points: 2},
				{Value: "alta", Label: "≥ 4 patologías", Points: 4},
			},
		},
		{
			ID:    "polimedicacion",
			Label: "Polimedicación",
			Options: []Option{
				{Value: "baja", Label: "< 6 fármacos", Points: 0},
				{Value: "media", Label: "6–10 fármacos", Points: 2},
				{Value: "alta", Label: "> 10 fármacos", Points: 4},
			},
		},
		{
			ID:    "adherencia",
			Label: "Adherencia al tratamiento",
			Options: []Option{
				{Value: "adecuada", Label: "Adecuada", Points: 0},
				{Value: "dudosa", Label: "Dudosa", Points: 2},
				{Value: "incumplimiento", Label: "Incumplimiento", Points: 4},
			},
		},
		{
			ID:    "riesgo_medicamento",
			Label: "Medicamento de estrecho margen terapéutico",
			Options: []Option{
				{Value: "no", Label: "No", Points: 0},
				{Value: "si", Label: "Sí", Points: 3},
			},
		},
		{
			ID:    "hospitalizacion",
			Label: "Ingresos hospitalarios (último año)",
			Options: []Option{
				{Value: "ninguno", Label: "Ninguno", Points: 0},
				{Value: "uno", Label: "Uno", Points: 2},
				{Value: "varios", Label: "Dos o más", Points: 4},
			},
		},
		{
			ID:    "soporte_social",
			Label: "Soporte sociofamiliar",
			Options: []Option{
				{Value: "adecuado", Label: "Adecuado", Points: 0},
				{Value: "limitado", Label: "Limitado", Points: 2},
				{Value: "ausente", Label: "Ausente", Points: 3},
			},
		},
		{
			ID:    "organica",
			Label: "Insuficiencia renal o hepática",
			Options: []Option{
				{Value: "no", Label: "No", Points: 0},
				{Value: "si", Label: "Sí", Points: 3},
			},
		},
		{
			ID:    "control",
			Label: "Control de la patología",
			Options: []Option{
				{Value: "controlada", Label: "Controlada", Points: 0},
				{Value: "parcial", Label: "Parcialmente controlada", Points: 2},
				{Value: "descontrolada", Label: "No controlada", Points: 4},
			},
		},
	}
}

// FindVariable returns the variable with the given ID, or nil.
func (r Registry) FindVariable(id string) *Variable {
	for i := range r {
		if r[i].ID == id {
			return &r[i]
		}
	}
	return nil
}

// ValidSelection reports whether value matches one of the variable's
// declared options.
func (v *Variable) ValidSelection(value string) bool {
	for _, o := range v.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}
