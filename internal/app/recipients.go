package app

import (
	"context"
	"fmt"

	"schoolbridge/internal/domain/classroom"
	"schoolbridge/internal/domain/parent"
	"schoolbridge/internal/domain/student"

	"github.com/sirupsen/logrus"
)

// Member is one guardian inside a language group.
type Member struct {
	ParentID  string
	PushToken string
}

// RecipientGroup holds the guardians sharing a preferred language.
type RecipientGroup struct {
	Language string
	Members  []Member
}

// PushTokens returns the non-empty tokens of the group's members.
func (g RecipientGroup) PushTokens() []string {
	tokens := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		if m.PushToken != "" {
			tokens = append(tokens, m.PushToken)
		}
	}
	return tokens
}

// Recipients is the resolved audience of one event.
type Recipients struct {
	// ParentIDs lists every guardian once, in first-seen order.
	ParentIDs []string
	Groups    []RecipientGroup
}

func (r *Recipients) Empty() bool {
	return r == nil || len(r.ParentIDs) == 0
}

// Scope selects whose guardians an event reaches: the listed students, or
// every student of the classroom when StudentIDs is empty.
type Scope struct {
	ClassroomID string
	StudentIDs  []string
}

// RecipientResolver turns a classroom or student scope into deduplicated,
// language-grouped guardians.
type RecipientResolver struct {
	classrooms      classroom.Repository
	students        student.Repository
	parents         parent.Repository
	defaultLanguage string
	logger          *logrus.Entry
}

func NewRecipientResolver(
	cr classroom.Repository,
	sr student.Repository,
	pr parent.Repository,
	defaultLanguage string,
	logger *logrus.Entry,
) *RecipientResolver {
	return &RecipientResolver{
		classrooms:      cr,
		students:        sr,
		parents:         pr,
		defaultLanguage: parent.NormalizeLanguage(defaultLanguage, parent.DefaultLanguage),
		logger:          logger,
	}
}

// Resolve loads the current guardian links for scope. A guardian linked to
// several students appears once; the first link seen wins.
func (r *RecipientResolver) Resolve(ctx context.Context, scope Scope) (*Recipients, error) {
	studentIDs := scope.StudentIDs
	if len(studentIDs) == 0 {
		c, err := r.classrooms.GetByID(ctx, scope.ClassroomID)
		if err != nil {
			return nil, fmt.Errorf("failed to load classroom %s: %w", scope.ClassroomID, err)
		}
		studentIDs = c.StudentIDs
	}
	if len(studentIDs) == 0 {
		return &Recipients{}, nil
	}

	students, err := r.students.ListByIDs(ctx, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}

	seen := make(map[string]struct{})
	var parentIDs []string
	for _, s := range students {
		for _, pid := range s.ParentIDs {
			if _, dup := seen[pid]; dup {
				continue
			}
			seen[pid] = struct{}{}
			parentIDs = append(parentIDs, pid)
		}
	}
	if len(parentIDs) == 0 {
		return &Recipients{}, nil
	}

	parents, err := r.parents.ListByIDs(ctx, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load guardians: %w", err)
	}
	byID := make(map[string]*parent.Parent, len(parents))
	for _, p := range parents {
		byID[p.ID] = p
	}

	out := &Recipients{}
	groupIndex := map[string]int{r.defaultLanguage: 0}
	out.Groups = append(out.Groups, RecipientGroup{Language: r.defaultLanguage})
	for _, pid := range parentIDs {
		p, ok := byID[pid]
		if !ok {
			r.logger.WithField("parent_id", pid).Warn("Student links a guardian that does not exist, skipping")
			continue
		}
		lang := parent.NormalizeLanguage(p.Language, r.defaultLanguage)
		idx, ok := groupIndex[lang]
		if !ok {
			idx = len(out.Groups)
			groupIndex[lang] = idx
			out.Groups = append(out.Groups, RecipientGroup{Language: lang})
		}
		out.Groups[idx].Members = append(out.Groups[idx].Members, Member{ParentID: p.ID, PushToken: p.PushToken})
		out.ParentIDs = append(out.ParentIDs, p.ID)
	}

	// Drop the default group again if nobody landed in it.
	if len(out.Groups[0].Members) == 0 {
		out.Groups = out.Groups[1:]
	}
	return out, nil
}
