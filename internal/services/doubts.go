package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BhavyaSri138/SE-ProfAid/internal/domain"
	"github.com/BhavyaSri138/SE-ProfAid/internal/storage"
)

// AskInput is the draft a student submits. DoubtID may carry a
// client-generated uuid; the store assigns one otherwise.
type AskInput struct {
	DoubtID     string
	Subject     string
	Title       string
	Description string
	Files       []string
}

// DoubtService is the resolution workflow engine. It is stateless per
// call: it validates the actor and intent against the doubt's current
// state and issues at most one store mutation. It never writes a sender
// identity other than the authenticated actor's.
type DoubtService struct {
	store   *storage.Store
	catalog *SubjectCatalog
}

func NewDoubtService(store *storage.Store, catalog *SubjectCatalog) *DoubtService {
	return &DoubtService{store: store, catalog: catalog}
}

// Ask creates a new pending doubt owned by the asking student.
func (s *DoubtService) Ask(actor domain.Actor, input AskInput) (domain.Doubt, error) {
	if actor.Role != domain.RoleStudent {
		return domain.Doubt{}, fmt.Errorf("only students may ask doubts: %w", domain.ErrForbidden)
	}
	if strings.TrimSpace(input.Subject) == "" {
		return domain.Doubt{}, domain.Validation("Subject", "must not be empty")
	}
	if strings.TrimSpace(input.Title) == "" {
		return domain.Doubt{}, domain.Validation("Title", "must not be empty")
	}
	if strings.TrimSpace(input.Description) == "" {
		return domain.Doubt{}, domain.Validation("Description", "must not be empty")
	}
	if err := s.catalog.CheckSubject(actor.Branch, input.Subject); err != nil {
		return domain.Doubt{}, err
	}

	return s.store.CreateDoubt(domain.Doubt{
		ID:            input.DoubtID,
		StudentID:     actor.ID,
		Branch:        actor.Branch,
		Subject:       input.Subject,
		Title:         input.Title,
		Description:   input.Description,
		FilesAttached: input.Files,
	})
}

// Get returns one doubt to any authenticated actor.
func (s *DoubtService) Get(actor domain.Actor, doubtID string) (domain.Doubt, error) {
	return s.store.GetDoubt(doubtID)
}

// Reply appends a professor's response to a pending doubt.
func (s *DoubtService) Reply(actor domain.Actor, doubtID, message string, files []string) (domain.Doubt, error) {
	if actor.Role != domain.RoleProfessor {
		return domain.Doubt{}, fmt.Errorf("only professors may reply: %w", domain.ErrForbidden)
	}
	return s.appendEntry(actor, doubtID, message, files)
}

// Extend appends the owning student's follow-up to a pending doubt.
func (s *DoubtService) Extend(actor domain.Actor, doubtID, message string, files []string) (domain.Doubt, error) {
	if actor.Role != domain.RoleStudent {
		return domain.Doubt{}, fmt.Errorf("only students may extend: %w", domain.ErrForbidden)
	}

	doubt, err := s.store.GetDoubt(doubtID)
	if err != nil {
		return domain.Doubt{}, err
	}
	if doubt.StudentID != actor.ID {
		return domain.Doubt{}, fmt.Errorf("doubt belongs to another student: %w", domain.ErrForbidden)
	}

	return s.appendEntry(actor, doubtID, message, files)
}

// MarkClarified transitions the actor's own pending doubt to Clarified.
// Repeated calls fail with the invalid-transition error; the status
// check and write are one atomic step inside the store.
func (s *DoubtService) MarkClarified(actor domain.Actor, doubtID string) (domain.Doubt, error) {
	if actor.Role != domain.RoleStudent {
		return domain.Doubt{}, fmt.Errorf("only students may clarify: %w", domain.ErrForbidden)
	}

	doubt, err := s.store.GetDoubt(doubtID)
	if err != nil {
		return domain.Doubt{}, err
	}
	if doubt.StudentID != actor.ID {
		return domain.Doubt{}, fmt.Errorf("doubt belongs to another student: %w", domain.ErrForbidden)
	}

	return s.store.SetStatus(doubtID, domain.StatusClarified)
}

// ListMine returns the student's own doubts, newest first.
func (s *DoubtService) ListMine(actor domain.Actor) ([]domain.Doubt, error) {
	if actor.Role != domain.RoleStudent {
		return nil, fmt.Errorf("listing is per student: %w", domain.ErrForbidden)
	}
	return sortNewestFirst(s.store.ListByStudent(actor.ID)), nil
}

// ListClarifiedInBranch returns the branch's clarified doubts, newest
// first. Students may only browse their own branch archive.
func (s *DoubtService) ListClarifiedInBranch(actor domain.Actor, branch string) ([]domain.Doubt, error) {
	if actor.Role != domain.RoleStudent {
		return nil, fmt.Errorf("archive is for students: %w", domain.ErrForbidden)
	}
	if actor.Branch != branch {
		return nil, fmt.Errorf("archive is per branch: %w", domain.ErrForbidden)
	}

	doubts := s.store.ListByBranch(branch)
	clarified := doubts[:0]
	for _, doubt := range doubts {
		if doubt.Status == domain.StatusClarified {
			clarified = append(clarified, doubt)
		}
	}
	return sortNewestFirst(clarified), nil
}

// ListUnclarifiedForSubjects returns pending doubts in the requested
// subjects, newest first. The request is intersected with the
// professor's own teaching set so a professor cannot browse outside it.
func (s *DoubtService) ListUnclarifiedForSubjects(actor domain.Actor, subjects []string) ([]domain.Doubt, error) {
	if actor.Role != domain.RoleProfessor {
		return nil, fmt.Errorf("worklist is for professors: %w", domain.ErrForbidden)
	}

	allowed := make(map[string]bool, len(actor.Subjects))
	for _, subject := range actor.Subjects {
		allowed[subject] = true
	}

	if len(subjects) == 0 {
		subjects = actor.Subjects
	}
	scoped := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		if allowed[subject] {
			scoped = append(scoped, subject)
		}
	}

	return sortNewestFirst(s.store.ListBySubjects(scoped, domain.StatusClarified)), nil
}

func (s *DoubtService) appendEntry(actor domain.Actor, doubtID, message string, files []string) (domain.Doubt, error) {
	doubt, err := s.store.GetDoubt(doubtID)
	if err != nil {
		return domain.Doubt{}, err
	}
	if doubt.Status == domain.StatusClarified {
		return domain.Doubt{}, fmt.Errorf("doubt %s is clarified and read-only: %w", doubtID, domain.ErrInvalidTransition)
	}
	if strings.TrimSpace(message) == "" {
		return domain.Doubt{}, domain.Validation("Message", "must not be empty")
	}

	return s.store.AppendReply(doubtID, domain.ReplyEntry{
		SenderID:      actor.ID,
		Message:       message,
		FilesAttached: files,
	})
}

// sortNewestFirst orders by CreatedAt descending. The sort is stable, so
// doubts created within the same instant keep their creation order.
func sortNewestFirst(doubts []domain.Doubt) []domain.Doubt {
	sort.SliceStable(doubts, func(i, j int) bool {
		return doubts[i].CreatedAt.After(doubts[j].CreatedAt)
	})
	return doubts
}
