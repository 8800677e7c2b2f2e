// ABOUTME: Declarative import schemas per entity kind.
// ABOUTME: Field lists double as the CSV export column orders.
package importer

import "github.com/farmahosp/cmoreg/internal/models"

// Kind names an importable entity collection.
type Kind string

const (
	KindPatients      Kind = "patients"
	KindVisits        Kind = "visits"
	KindInterventions Kind = "interventions"
)

// Kinds lists every importable kind.
var Kinds = []Kind{KindPatients, KindVisits, KindInterventions}

// ValidKind reports whether s names an importable collection.
func ValidKind(s string) bool {
	for _, k := range Kinds {
		if string(k) == s {
			return true
		}
	}
	return false
}

// FieldType is the declared type of a schema field.
type FieldType int

const (
	FieldString FieldType = iota
	FieldNumber
	FieldDate
	FieldBoolean
	FieldEnum
)

// Field is one column in an entity schema. Empty optional fields skip
// type checking entirely.
type Field struct {
	Key      string
	Required bool
	Type     FieldType
	Enum     []string
}

// Schema is the declarative field list for one entity kind. Column
// order defines the export header order.
type Schema struct {
	Kind   Kind
	Fields []Field
}

// Headers returns the ordered column names.
func (s Schema) Headers() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Key
	}
	return out
}

// RequiredKeys returns the keys of required fields.
func (s Schema) RequiredKeys() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Key)
		}
	}
	return out
}

// Find returns the field with the given key, or nil.
func (s Schema) Find(key string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Key == key {
			return &s.Fields[i]
		}
	}
	return nil
}

// SchemaFor returns the schema for a kind.
func SchemaFor(kind Kind) Schema {
	switch kind {
	case KindPatients:
		return patientSchema
	case KindVisits:
		return visitSchema
	default:
		return interventionSchema
	}
}

var patientSchema = Schema{
	Kind: KindPatients,
	Fields: []Field{
		{Key: "patientId", Required: true, Type: FieldString},
		{Key: "prevalentCondition", Required: true, Type: FieldString},
		{Key: "sex", Type: FieldString},
		{Key: "birthYear", Type: FieldNumber},
		{Key: "comorbidities", Type: FieldString},
		{Key: "notes", Type: FieldString},
		{Key: "status", Type: FieldEnum, Enum: []string{models.StatusActive, models.StatusInactive}},
		{Key: "stratVars", Type: FieldString},
		{Key: "cmoScore", Type: FieldNumber},
		{Key: "priorityLevel", Type: FieldNumber},
		{Key: "createdAt", Type: FieldString},
		{Key: "schemaVersion", Type: FieldString},
	},
}

var visitSchema = Schema{
	Kind: KindVisits,
	Fields: []Field{
		{Key: "visitId", Required: true, Type: FieldString},
		{Key: "patientId", Required: true, Type: FieldString},
		{Key: "date", Required: true, Type: FieldDate},
		{Key: "hospitalDrug", Type: FieldString},
		{Key: "ldl", Type: FieldNumber},
		{Key: "ldlTarget", Type: FieldNumber},
		{Key: "ldlGoalAchieved", Type: FieldBoolean},
		{Key: "treatment", Type: FieldString},
		{Key: "adherence", Type: FieldString},
		{Key: "ram", Type: FieldString},
		{Key: "stratVars", Type: FieldString},
		{Key: "cmoScore", Type: FieldNumber},
		{Key: "priorityLevel", Type: FieldNumber},
		{Key: "priorityJustification", Type: FieldString},
		{Key: "oftObjectives", Type: FieldString},
		{Key: "followUpPlan", Type: FieldString},
		{Key: "createdAt", Type: FieldString},
		{Key: "schemaVersion", Type: FieldString},
	},
}

var interventionSchema = Schema{
	Kind: KindInterventions,
	Fields: []Field{
		{Key: "interventionId", Required: true, Type: FieldString},
		{Key: "patientId", Required: true, Type: FieldString},
		{Key: "visitId", Required: true, Type: FieldString},
		{Key: "type", Type: FieldString},
		{Key: "cmoDimension", Required: true, Type: FieldEnum, Enum: models.CMODimensions},
		{Key: "description", Required: true, Type: FieldString},
		{Key: "status", Required: true, Type: FieldEnum, Enum: models.InterventionStatuses},
		{Key: "outcomeNotes", Type: FieldString},
		{Key: "createdAt", Type: FieldString},
		{Key: "schemaVersion", Type: FieldString},
	},
}
