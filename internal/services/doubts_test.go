package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BhavyaSri138/SE-ProfAid/internal/domain"
	"github.com/BhavyaSri138/SE-ProfAid/internal/storage"
)

var (
	studentS = domain.Actor{ID: "S1", Role: domain.RoleStudent, Branch: "CSE"}
	studentT = domain.Actor{ID: "S2", Role: domain.RoleStudent, Branch: "CSE"}
	profP    = domain.Actor{ID: "P1", Role: domain.RoleProfessor, Branch: "CSE", Subjects: []string{"Math", "Physics"}}
)

func newTestService(t *testing.T) *DoubtService {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.NewStore(dir)
	require.NoError(t, err)

	catalog, err := NewSubjectCatalog(dir)
	require.NoError(t, err)

	return NewDoubtService(store, catalog)
}

func mathDoubt() AskInput {
	return AskInput{
		Subject:     "Math",
		Title:       "T1",
		Description: "How do I integrate this?",
	}
}

func TestAskCreatesPendingDoubt(t *testing.T) {
	svc := newTestService(t)

	doubt, err := svc.Ask(studentS, mathDoubt())
	require.NoError(t, err)

	assert.Equal(t, "S1", doubt.StudentID)
	assert.Equal(t, "CSE", doubt.Branch)
	assert.Equal(t, domain.StatusPending, doubt.Status)
	assert.Empty(t, doubt.Replies)
}

func TestAskRejectsProfessor(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Ask(profP, mathDoubt())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAskValidatesInput(t *testing.T) {
	svc := newTestService(t)

	for _, tc := range []struct {
		name  string
		patch func(*AskInput)
	}{
		{"empty subject", func(in *AskInput) { in.Subject = "" }},
		{"empty title", func(in *AskInput) { in.Title = "  " }},
		{"empty description", func(in *AskInput) { in.Description = "" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			input := mathDoubt()
			tc.patch(&input)
			_, err := svc.Ask(studentS, input)
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestAskSubjectCatalogIsStrictForKnownBranches(t *testing.T) {
	svc := newTestService(t)

	input := mathDoubt()
	input.Subject = "Astrology"
	_, err := svc.Ask(studentS, input)
	assert.True(t, domain.IsValidation(err), "subject outside the CSE catalog should be rejected, got %v", err)

	// Unconfigured branch: catalog is advisory, free text passes.
	outsider := domain.Actor{ID: "S9", Role: domain.RoleStudent, Branch: "ARCH"}
	doubt, err := svc.Ask(outsider, input)
	require.NoError(t, err)
	assert.Equal(t, "Astrology", doubt.Subject)
}

func TestProfessorReplyKeepsStatusPending(t *testing.T) {
	svc := newTestService(t)

	doubt, err := svc.Ask(studentS, mathDoubt())
	require.NoError(t, err)

	updated, err := svc.Reply(profP, doubt.ID, "See chapter 4", nil)
	require.NoError(t, err)

	require.Len(t, updated.Replies, 1)
	assert.Equal(t, "P1", updated.Replies[0].SenderID)
	assert.Equal(t, "See chapter 4", updated.Replies[0].Message)
	assert.Equal(t, domain.StatusPending, updated.Status)
}

func TestReplyRejectsStudents(t *testing.T) {
	svc := newTestService(t)

	doubt, err := svc.Ask(studentS, mathDoubt())
	require.NoError(t, err)

	_, err = svc.Reply(studentS, doubt.ID, "answering myself", nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	unchanged, err := svc.Get(studentS, doubt.ID)
	require.NoError(t, err)
	assert.Empty(t, unchanged.Replies)
}

func TestExtendRequiresOwnership(t *testing.T) {
	svc := newTestService(t)

	doubt, err := svc.Ask(studentS, mathDoubt())
	require.NoError(t, err)

	_, err = svc.Extend(studentT, doubt.ID, "me too", nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Extend(profP, doubt.ID, "as a professor", nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := svc.Extend(studentS, doubt.ID, "more context", nil)
	require.NoError(t, err)
	require.Len(t, updated.Replies, 1)
	assert.Equal(t, "S1", updated.Replies[0].SenderID)
}

func TestEmptyMessageIsRejectedBeforeMutation(t *testing.T) {
	svc := newTestService(t)

	doubt, err := svc.Ask(studentS, mathDoubt())
	require.NoError(t, err)

	_, err = svc.Reply(profP, doubt.ID, "   ", nil)
	assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)

	_, err = svc.Extend(studentS, doubt.ID, "", nil)
	assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)

	unchanged, err := svc.Get(studentS, doubt.ID)
	require.NoError(t, err)
	assert.Empty(t, unchanged.Replies)
}

func TestClarifiedDoubtIsTerminal(t *testing.T) {
	svc := newTestService(t)

	doubt, err := svc.Ask(studentS, mathDoubt())
	require.NoError(t, err)

	clarified, err := svc.MarkClarified(studentS, doubt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClarified, clarified.Status)

	_, err = svc.Reply(profP, doubt.ID, "too late", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Extend(studentS, doubt.ID, "one more thing", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.MarkClarified(studentS, doubt.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	reread, err := svc.Get(studentS, doubt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClarified, reread.Status)
	assert.Empty(t, reread.Replies)
}

func TestMarkClarifiedAuthorization(t *testing.T) {
	svc := newTestService(t)

	doubt, err := svc.Ask(studentS, mathDoubt())
	require.NoError(t, err)

	_, err = svc.MarkClarified(profP, doubt.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.MarkClarified(studentT, doubt.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	unchanged, err := svc.Get(studentS, doubt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, unchanged.Status)
}

func TestUnknownDoubtIsNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Reply(profP, "missing", "hello", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Extend(studentS, "missing", "hello", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.MarkClarified(studentS, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListMineIsNewestFirst(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Ask(studentS, mathDoubt())
	require.NoError(t, err)

	second := mathDoubt()
	second.Title = "T2"
	newer, err := svc.Ask(studentS, second)
	require.NoError(t, err)

	other := mathDoubt()
	other.Title = "not mine"
	_, err = svc.Ask(studentT, other)
	require.NoError(t, err)

	mine, err := svc.ListMine(studentS)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	_, err = svc.ListMine(profP)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListClarifiedInBranch(t *testing.T) {
	svc := newTestService(t)

	clarified, err := svc.Ask(studentS, mathDoubt())
	require.NoError(t, err)
	_, err = svc.MarkClarified(studentS, clarified.ID)
	require.NoError(t, err)

	pending := mathDoubt()
	pending.Title = "still open"
	_, err = svc.Ask(studentT, pending)
	require.NoError(t, err)

	archive, err := svc.ListClarifiedInBranch(studentS, "CSE")
	require.NoError(t, err)
	require.Len(t, archive, 1)
	assert.Equal(t, clarified.ID, archive[0].ID)

	_, err = svc.ListClarifiedInBranch(studentS, "ECE")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ListClarifiedInBranch(profP, "CSE")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListUnclarifiedForSubjects(t *testing.T) {
	svc := newTestService(t)

	math, err := svc.Ask(studentS, mathDoubt())
	require.NoError(t, err)

	physics := mathDoubt()
	physics.Subject = "Physics"
	physics.Title = "optics"
	newest, err := svc.Ask(studentT, physics)
	require.NoError(t, err)

	resolved := mathDoubt()
	resolved.Title = "answered already"
	done, err := svc.Ask(studentS, resolved)
	require.NoError(t, err)
	_, err = svc.MarkClarified(studentS, done.ID)
	require.NoError(t, err)

	worklist, err := svc.ListUnclarifiedForSubjects(profP, []string{"Math", "Physics"})
	require.NoError(t, err)
	require.Len(t, worklist, 2)
	assert.Equal(t, newest.ID, worklist[0].ID)
	assert.Equal(t, math.ID, worklist[1].ID)

	_, err = svc.ListUnclarifiedForSubjects(studentS, []string{"Math"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUnclarifiedRequestIsScopedToTeachingSet(t *testing.T) {
	svc := newTestService(t)

	outside := mathDoubt()
	outside.Subject = "DBMS"
	_, err := svc.Ask(studentS, outside)
	require.NoError(t, err)

	// DBMS is not in P1's teaching set; requesting it returns nothing.
	worklist, err := svc.ListUnclarifiedForSubjects(profP, []string{"DBMS"})
	require.NoError(t, err)
	assert.Empty(t, worklist)

	// An empty request defaults to the professor's own subjects.
	_, err = svc.Ask(studentT, mathDoubt())
	require.NoError(t, err)

	worklist, err = svc.ListUnclarifiedForSubjects(profP, nil)
	require.NoError(t, err)
	assert.Len(t, worklist, 1)
}
