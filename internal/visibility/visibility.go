// Package visibility computes, for a given viewer, the subset of entities
// that viewer may see. Every filter is a pure function of its arguments:
// the input collection is never mutated and identical inputs always yield
// identical results.
package visibility

import (
	"strings"

	"github.com/campushub/portal-api/internal/models"
)

// FilterAssignments narrows assignments for student viewers. An assignment
// with no class targets is visible to every class; otherwise the viewer's
// composite class identifier must be targeted. Faculty and admins see all
// assignments, since they need oversight across classes. A nil viewer sees
// the full collection (guest fallback).
func FilterAssignments(viewer *models.Viewer, assignments []models.Assignment) []models.Assignment {
	if passThrough(viewer) {
		return append([]models.Assignment(nil), assignments...)
	}

	classID := viewer.ClassID()
	out := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if len(a.ClassTargets) == 0 || containsString(a.ClassTargets, classID) {
			out = append(out, a)
		}
	}
	return out
}

// FilterNotices narrows notices for student viewers: a notice is visible
// when it is general interest, when its subject or department matches the
// viewer's department, or when its content references the viewer's class.
func FilterNotices(viewer *models.Viewer, notices []models.Notice) []models.Notice {
	if passThrough(viewer) {
		return append([]models.Notice(nil), notices...)
	}

	classID := viewer.ClassID()
	out := make([]models.Notice, 0, len(notices))
	for _, n := range notices {
		if n.Category == models.NoticeCategoryGeneral {
			out = append(out, n)
			continue
		}
		if matchesDepartment(n.Department, viewer.Department) {
			out = append(out, n)
			continue
		}
		if n.Subject != nil && matchesDepartment(*n.Subject, viewer.Department) {
			out = append(out, n)
			continue
		}
		if strings.Contains(n.Content, classID) {
			out = append(out, n)
		}
	}
	return out
}

// FilterResources narrows resources for student viewers: untagged resources
// are general interest, otherwise the subject must match the viewer's
// department or a tag must reference the viewer's class.
func FilterResources(viewer *models.Viewer, resources []models.Resource) []models.Resource {
	if passThrough(viewer) {
		return append([]models.Resource(nil), resources...)
	}

	classID := viewer.ClassID()
	out := make([]models.Resource, 0, len(resources))
	for _, r := range resources {
		if len(r.Tags) == 0 {
			out = append(out, r)
			continue
		}
		if matchesDepartment(r.Subject, viewer.Department) {
			out = append(out, r)
			continue
		}
		if containsString(r.Tags, classID) {
			out = append(out, r)
		}
	}
	return out
}

// passThrough reports whether this viewer sees everything unfiltered:
// faculty and admins always do, and so does a missing viewer. The guest
// fallback is fail-open on purpose, matching the observed behaviour of the
// portal it replaces.
func passThrough(viewer *models.Viewer) bool {
	if viewer == nil {
		return true
	}
	return viewer.Role == models.RoleFaculty || viewer.Role == models.RoleAdmin
}

func matchesDepartment(value, department string) bool {
	if value == "" || department == "" {
		return false
	}
	return strings.EqualFold(value, department) ||
		strings.Contains(strings.ToLower(value), strings.ToLower(department))
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
