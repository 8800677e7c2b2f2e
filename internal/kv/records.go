// ABOUTME: Repository implementation over the Badger client.
// ABOUTME: Cascade deletes are explicit scans, as in the object-store model.
package kv

import (
	"fmt"

	"github.com/farmahosp/cmoreg/internal/models"
)

// PutPatient inserts or replaces a patient by primary key.
func (s *Store) PutPatient(p *models.Patient) error {
	data, err := marshalJSON(p)
	if err != nil {
		return fmt.Errorf("marshal patient: %w", err)
	}
	return s.set(patientPrefix+p.PatientID, data)
}

// GetAllPatients returns every patient, order unspecified.
func (s *Store) GetAllPatients() ([]*models.Patient, error) {
	raw, err := s.scan(patientPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan patients: %w", err)
	}
	patients := make([]*models.Patient, 0, len(raw))
	for _, data := range raw {
		p, err := unmarshalJSON[models.Patient](data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal patient: %w", err)
		}
		patients = append(patients, p)
	}
	if len(patients) == 0 {
		return nil, nil
	}
	return patients, nil
}

// DeletePatient removes a patient and everything referencing it.
func (s *Store) DeletePatient(patientID string) error {
	visits, err := s.GetAllVisits()
	if err != nil {
		return err
	}
	for _, v := range visits {
		if v.PatientID == patientID {
			if err := s.DeleteVisit(v.VisitID); err != nil {
				return err
			}
		}
	}

	// Interventions referencing the patient directly (defensive against
	// records imported without their visit).
	interventions, err := s.GetAllInterventions()
	if err != nil {
		return err
	}
	for _, i := range interventions {
		if i.PatientID == patientID {
			if err := s.delete(interventionPrefix + i.InterventionID); err != nil {
				return fmt.Errorf("delete intervention: %w", err)
			}
		}
	}

	if err := s.delete(patientPrefix + patientID); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

// PutVisit inserts or replaces a visit by primary key.
func (s *Store) PutVisit(v *models.Visit) error {
	data, err := marshalJSON(v)
	if err != nil {
		return fmt.Errorf("marshal visit: %w", err)
	}
	return s.set(visitPrefix+v.VisitID, data)
}

// GetAllVisits returns every visit, order unspecified.
func (s *Store) GetAllVisits() ([]*models.Visit, error) {
	raw, err := s.scan(visitPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan visits: %w", err)
	}
	visits := make([]*models.Visit, 0, len(raw))
	for _, data := range raw {
		v, err := unmarshalJSON[models.Visit](data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal visit: %w", err)
		}
		visits = append(visits, v)
	}
	if len(visits) == 0 {
		return nil, nil
	}
	return visits, nil
}

// DeleteVisit removes a visit and its interventions.
func (s *Store) DeleteVisit(visitID string) error {
	interventions, err := s.GetAllInterventions()
	if err != nil {
		return err
	}
	for _, i := range interventions {
		if i.VisitID == visitID {
			if err := s.delete(interventionPrefix + i.InterventionID); err != nil {
				return fmt.Errorf("delete intervention: %w", err)
			}
		}
	}
	if err := s.delete(visitPrefix + visitID); err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	return nil
}

// PutIntervention inserts or replaces an intervention by primary key.
func (s *Store) PutIntervention(i *models.Intervention) error {
	data, err := marshalJSON(i)
	if err != nil {
		return fmt.Errorf("marshal intervention: %w", err)
	}
	return s.set(interventionPrefix+i.InterventionID, data)
}

// GetAllInterventions returns every intervention, order unspecified.
func (s *Store) GetAllInterventions() ([]*models.Intervention, error) {
	raw, err := s.scan(interventionPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan interventions: %w", err)
	}
	interventions := make([]*models.Intervention, 0, len(raw))
	for _, data := range raw {
		i, err := unmarshalJSON[models.Intervention](data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal intervention: %w", err)
		}
		interventions = append(interventions, i)
	}
	if len(interventions) == 0 {
		return nil, nil
	}
	return interventions, nil
}

// DeleteIntervention removes an intervention.
func (s *Store) DeleteIntervention(interventionID string) error {
	if err := s.delete(interventionPrefix + interventionID); err != nil {
		return fmt.Errorf("delete intervention: %w", err)
	}
	return nil
}

// GetMeta returns the value for a meta key, or "" if unset.
func (s *Store) GetMeta(key string) (string, error) {
	data, ok, err := s.get(metaPrefix + key)
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return string(data), nil
}

// SetMeta stores a single-value meta slot.
func (s *Store) SetMeta(key, value string) error {
	if err := s.set(metaPrefix+key, []byte(value)); err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}
