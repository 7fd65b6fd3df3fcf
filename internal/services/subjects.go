package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BhavyaSri138/SE-ProfAid/internal/domain"
)

// defaultCatalog seeds branches when no subjects.json override exists.
var defaultCatalog = map[string][]string{
	"CSE":  {"Math", "Physics", "Data Structures", "Operating Systems", "DBMS"},
	"ECE":  {"Math", "Physics", "Signals", "Digital Circuits"},
	"MECH": {"Math", "Thermodynamics", "Fluid Mechanics"},
}

// SubjectCatalog maps branches to their subject lists. Validation is
// strict for branches the catalog knows and advisory otherwise, so an
// unconfigured deployment still accepts free-text subjects.
type SubjectCatalog struct {
	branches map[string][]string
}

// NewSubjectCatalog loads subjects.json from the data dir when present,
// falling back to the built-in catalog.
func NewSubjectCatalog(baseDir string) (*SubjectCatalog, error) {
	catalog := &SubjectCatalog{branches: defaultCatalog}

	path := filepath.Join(baseDir, "subjects.json")
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return catalog, nil
	}
	if err != nil {
		return nil, domain.Transport("open subjects file", err)
	}
	defer file.Close()

	branches := map[string][]string{}
	if err := json.NewDecoder(file).Decode(&branches); err != nil {
		return nil, domain.Transport("decode subjects file", err)
	}
	if len(branches) > 0 {
		catalog.branches = branches
	}

	return catalog, nil
}

// Subjects returns the subject list for a branch, empty when unknown.
func (c *SubjectCatalog) Subjects(branch string) []string {
	return append([]string(nil), c.branches[branch]...)
}

// CheckSubject validates a subject against the branch's list. Unknown
// branches pass; a known branch with an unlisted subject fails.
func (c *SubjectCatalog) CheckSubject(branch, subject string) error {
	subjects, ok := c.branches[branch]
	if !ok {
		return nil
	}
	for _, known := range subjects {
		if known == subject {
			return nil
		}
	}
	return domain.Validation("Subject", fmt.Sprintf("%q is not offered in branch %s", subject, branch))
}
