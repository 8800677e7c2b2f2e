// ABOUTME: Repository interface for registry data storage.
// ABOUTME: Defines the put/get-all/delete contract per collection.
package storage

import "github.com/farmahosp/cmoreg/internal/models"

// Repository defines the storage contract shared by the SQLite and
// Badger backends.
//
// Put is insert-or-replace by primary key; callers supply the full
// record (there is no partial update). Delete is idempotent: removing
// a missing key is not an error. DeletePatient and DeleteVisit cascade
// to dependent records. GetAll returns records in no guaranteed order;
// callers sort when order matters.
type Repository interface {
	// Patient operations
	PutPatient(p *models.Patient) error
	GetAllPatients() ([]*models.Patient, error)
	DeletePatient(patientID string) error

	// Visit operations
	PutVisit(v *models.Visit) error
	GetAllVisits() ([]*models.Visit, error)
	DeleteVisit(visitID string) error

	// Intervention operations
	PutIntervention(i *models.Intervention) error
	GetAllInterventions() ([]*models.Intervention, error)
	DeleteIntervention(interventionID string) error

	// Meta operations. GetMeta returns "" for an absent key.
	GetMeta(key string) (string, error)
	SetMeta(key, value string) error

	// Lifecycle
	Close() error
}
