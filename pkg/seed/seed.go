// pkg/seed/seed.go
package seed

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"loan-advisor/internal/models"
)

// CatalogFile is the on-disk layout of a loan catalog seed.
type CatalogFile struct {
	Version string               `yaml:"version"`
	Loans   []models.LoanProduct `yaml:"loans"`
}

// LoadCatalog reads a YAML seed file.
func LoadCatalog(path string) ([]models.LoanProduct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCatalog(f)
}

// DecodeCatalog parses and checks a seed document. Every product needs an
// id, a loan type and an English name; ids must be unique.
func DecodeCatalog(r io.Reader) ([]models.LoanProduct, error) {
	var file CatalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}

	seen := make(map[string]bool, len(file.Loans))
	for i, loan := range file.Loans {
		switch {
		case loan.ID == "":
			return nil, fmt.Errorf("loan #%d: id is required", i+1)
		case seen[loan.ID]:
			return nil, fmt.Errorf("loan %s: duplicate id", loan.ID)
		case loan.LoanType == "":
			return nil, fmt.Errorf("loan %s: loanType is required", loan.ID)
		case loan.Name.EN == "":
			return nil, fmt.Errorf("loan %s: English name is required", loan.ID)
		}
		seen[loan.ID] = true
	}
	return file.Loans, nil
}
