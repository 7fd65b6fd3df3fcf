package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BhavyaSri138/SE-ProfAid/internal/domain"
)

type metaData struct {
	Doubts map[string]domain.Doubt `json:"doubts"`
	// Order records creation order of doubt ids. Map iteration alone
	// cannot give the stable tie-break the listing contract requires.
	Order []string `json:"order"`
}

// Store owns the canonical doubt collection. All mutation goes through
// its narrow operation set; it trusts callers to have validated intent
// beyond the checks named on each operation.
type Store struct {
	mu   sync.RWMutex
	path string
	data metaData
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, domain.Transport("create data directory", err)
	}

	store := &Store{path: filepath.Join(baseDir, "doubts.json")}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = metaData{Doubts: map[string]domain.Doubt{}}

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.saveLocked()
	}
	if err != nil {
		return domain.Transport("open doubts file", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&s.data); err != nil {
		if errors.Is(err, io.EOF) {
			return s.saveLocked()
		}
		return domain.Transport("decode doubts file", err)
	}

	s.ensureConsistent()
	return nil
}

// CreateDoubt stores a new doubt. The draft may carry a client-supplied
// id; a fresh uuid is assigned otherwise. Status and CreatedAt are set
// here regardless of what the draft claims.
func (s *Store) CreateDoubt(draft domain.Doubt) (domain.Doubt, error) {
	if strings.TrimSpace(draft.StudentID) == "" {
		return domain.Doubt{}, domain.Validation("StudentID", "must not be empty")
	}
	if strings.TrimSpace(draft.Subject) == "" {
		return domain.Doubt{}, domain.Validation("Subject", "must not be empty")
	}
	if strings.TrimSpace(draft.Title) == "" {
		return domain.Doubt{}, domain.Validation("Title", "must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if _, exists := s.data.Doubts[draft.ID]; exists {
		return domain.Doubt{}, domain.Validation("DoubtID", fmt.Sprintf("doubt %s already exists", draft.ID))
	}

	draft.Status = domain.StatusPending
	draft.CreatedAt = time.Now()
	if draft.FilesAttached == nil {
		draft.FilesAttached = []string{}
	}
	draft.Replies = []domain.ReplyEntry{}

	s.data.Doubts[draft.ID] = draft
	s.data.Order = append(s.data.Order, draft.ID)

	if err := s.saveLocked(); err != nil {
		delete(s.data.Doubts, draft.ID)
		s.data.Order = s.data.Order[:len(s.data.Order)-1]
		return domain.Doubt{}, err
	}

	return draft.Clone(), nil
}

func (s *Store) GetDoubt(id string) (domain.Doubt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doubt, ok := s.data.Doubts[id]
	if !ok {
		return domain.Doubt{}, fmt.Errorf("doubt %s: %w", id, domain.ErrNotFound)
	}
	return doubt.Clone(), nil
}

// ListByStudent returns the student's doubts in creation order.
func (s *Store) ListByStudent(studentID string) []domain.Doubt {
	return s.listWhere(func(d domain.Doubt) bool {
		return d.StudentID == studentID
	})
}

// ListByBranch returns all doubts raised in a branch, creation order.
func (s *Store) ListByBranch(branch string) []domain.Doubt {
	return s.listWhere(func(d domain.Doubt) bool {
		return d.Branch == branch
	})
}

// ListBySubjects returns doubts whose subject is in subjects, skipping
// those with excludeStatus when it is non-empty.
func (s *Store) ListBySubjects(subjects []string, excludeStatus domain.Status) []domain.Doubt {
	wanted := make(map[string]bool, len(subjects))
	for _, subject := range subjects {
		wanted[subject] = true
	}
	return s.listWhere(func(d domain.Doubt) bool {
		if !wanted[d.Subject] {
			return false
		}
		return excludeStatus == "" || d.Status != excludeStatus
	})
}

// AppendReply appends one entry to the doubt's thread. Entries are never
// removed or reordered. RepliedAt is set here.
func (s *Store) AppendReply(doubtID string, entry domain.ReplyEntry) (domain.Doubt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doubt, ok := s.data.Doubts[doubtID]
	if !ok {
		return domain.Doubt{}, fmt.Errorf("doubt %s: %w", doubtID, domain.ErrNotFound)
	}

	entry.RepliedAt = time.Now()
	if entry.FilesAttached == nil {
		entry.FilesAttached = []string{}
	}

	doubt.Replies = append(doubt.Replies, entry)
	s.data.Doubts[doubtID] = doubt

	if err := s.saveLocked(); err != nil {
		doubt.Replies = doubt.Replies[:len(doubt.Replies)-1]
		s.data.Doubts[doubtID] = doubt
		return domain.Doubt{}, err
	}

	return doubt.Clone(), nil
}

// SetStatus transitions the doubt's status. The precondition check and
// the write share one critical section, so of two racing Clarify calls
// exactly one succeeds and the loser sees ErrInvalidTransition.
func (s *Store) SetStatus(doubtID string, status domain.Status) (domain.Doubt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doubt, ok := s.data.Doubts[doubtID]
	if !ok {
		return domain.Doubt{}, fmt.Errorf("doubt %s: %w", doubtID, domain.ErrNotFound)
	}

	if doubt.Status != domain.StatusPending || status != domain.StatusClarified {
		return domain.Doubt{}, fmt.Errorf("doubt %s: %s -> %s: %w", doubtID, doubt.Status, status, domain.ErrInvalidTransition)
	}

	previous := doubt.Status
	doubt.Status = status
	s.data.Doubts[doubtID] = doubt

	if err := s.saveLocked(); err != nil {
		doubt.Status = previous
		s.data.Doubts[doubtID] = doubt
		return domain.Doubt{}, err
	}

	return doubt.Clone(), nil
}

func (s *Store) listWhere(keep func(domain.Doubt) bool) []domain.Doubt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doubts := make([]domain.Doubt, 0)
	for _, id := range s.data.Order {
		doubt, ok := s.data.Doubts[id]
		if ok && keep(doubt) {
			doubts = append(doubts, doubt.Clone())
		}
	}
	return doubts
}

func (s *Store) saveLocked() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "doubts-*.json")
	if err != nil {
		return domain.Transport("create temp doubts file", err)
	}

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return domain.Transport("encode doubts file", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return domain.Transport("close temp doubts file", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return domain.Transport("replace doubts file", err)
	}

	return nil
}

// ensureConsistent repairs a loaded data file: missing maps, ids absent
// from the order list, or stale order entries.
func (s *Store) ensureConsistent() {
	if s.data.Doubts == nil {
		s.data.Doubts = map[string]domain.Doubt{}
	}

	seen := make(map[string]bool, len(s.data.Order))
	order := s.data.Order[:0]
	for _, id := range s.data.Order {
		if _, ok := s.data.Doubts[id]; ok && !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	for id := range s.data.Doubts {
		if !seen[id] {
			order = append(order, id)
		}
	}
	s.data.Order = order
}
