// Package seed loads the demo dataset used for local runs and smoke checks.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"intelhub.dev/internal/dossier"
	"intelhub.dev/internal/travel"
)

//go:embed dataset.yaml
var demoYAML []byte

// Subject groups the records attributed to one person of interest.
type Subject struct {
	ID           string                `yaml:"id"`
	Name         string                `yaml:"name"`
	Crossings    []travel.Crossing     `yaml:"crossings"`
	HotelStays   []dossier.HotelStay   `yaml:"hotel_stays"`
	Transactions []dossier.Transaction `yaml:"transactions"`
}

// Dataset is the top-level document.
type Dataset struct {
	Subjects []Subject      `yaml:"subjects"`
	Tasks    []dossier.Task `yaml:"tasks"`
}

// Demo returns the embedded demo dataset.
func Demo() (Dataset, error) {
	return Parse(demoYAML)
}

// Parse decodes a dataset and stamps each record with its subject.
func Parse(data []byte) (Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	for i := range ds.Subjects {
		s := &ds.Subjects[i]
		for j := range s.Crossings {
			s.Crossings[j].SubjectID = s.ID
		}
		for j := range s.HotelStays {
			s.HotelStays[j].SubjectID = s.ID
		}
		for j := range s.Transactions {
			s.Transactions[j].SubjectID = s.ID
		}
	}
	return ds, nil
}

// ReadFile parses a dataset from path.
func ReadFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return Dataset{}, err
	}
	return Parse(data)
}

// Subject looks up a subject by id.
func (d Dataset) Subject(id string) (Subject, bool) {
	for _, s := range d.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

// LoadInto writes every record of the dataset into svc. Crossings are
// sorted per subject first so the store's ordering check passes.
func (d Dataset) LoadInto(ctx context.Context, svc dossier.Service) error {
	for _, s := range d.Subjects {
		for _, c := range travel.SortChronological(s.Crossings) {
			if _, err := svc.AddCrossing(ctx, c); err != nil {
				return fmt.Errorf("subject %s crossing %s: %w", s.ID, c.ID, err)
			}
		}
		for _, h := range s.HotelStays {
			if _, err := svc.AddHotelStay(ctx, h); err != nil {
				return fmt.Errorf("subject %s hotel stay %s: %w", s.ID, h.ID, err)
			}
		}
		for _, t := range s.Transactions {
			if _, err := svc.AddTransaction(ctx, t); err != nil {
				return fmt.Errorf("subject %s transaction %s: %w", s.ID, t.ID, err)
			}
		}
	}
	for _, t := range d.Tasks {
		if _, err := svc.AddTask(ctx, t); err != nil {
			return fmt.Errorf("task %s: %w", t.ID, err)
		}
	}
	return nil
}
