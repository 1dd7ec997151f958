package rbac

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"incidentdesk/core/store"
)

// Permission names an action a request may be authorized for.
type Permission string

const (
	PermIncidentsList   Permission = "incidents.list"
	PermIncidentsCreate Permission = "incidents.create"
	PermIncidentsUpdate Permission = "incidents.update"
	PermIncidentsDelete Permission = "incidents.delete"
	PermIncidentsReport Permission = "incidents.report"
	PermIncidentsView   Permission = "incidents.view"

	PermNotesView Permission = "notes.view"
	PermNotesAdd  Permission = "notes.add"

	PermDocumentsView   Permission = "documents.view"
	PermDocumentsUpload Permission = "documents.upload"
	PermDocumentsDelete Permission = "documents.delete"

	PermStatsView     Permission = "stats.view"
	PermReportsAnnual Permission = "reports.annual"
	PermRemindersSend Permission = "reminders.send"
)

// Two permission tiers: "privileged" covers management actions reserved for
// admins and privacy officers, "authenticated" covers actions every signed-in
// user may perform.
const (
	subjectPrivileged    = "privileged"
	subjectAuthenticated = "authenticated"
)

var privilegedPerms = []Permission{
	PermIncidentsList,
	PermIncidentsCreate,
	PermIncidentsUpdate,
	PermIncidentsDelete,
	PermDocumentsDelete,
	PermStatsView,
	PermReportsAnnual,
	PermRemindersSend,
}

var authenticatedPerms = []Permission{
	PermIncidentsReport,
	PermIncidentsView,
	PermNotesView,
	PermNotesAdd,
	PermDocumentsView,
	PermDocumentsUpload,
}

const modelText = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	for _, p := range privilegedPerms {
		if _, err := e.AddPolicy(subjectPrivileged, string(p)); err != nil {
			return nil, err
		}
	}
	for _, p := range authenticatedPerms {
		if _, err := e.AddPolicy(subjectAuthenticated, string(p)); err != nil {
			return nil, err
		}
	}
	groupings := [][2]string{
		{store.RoleAdmin, subjectPrivileged},
		{store.RolePrivacyOfficer, subjectPrivileged},
		{store.RoleAdmin, subjectAuthenticated},
		{store.RolePrivacyOfficer, subjectAuthenticated},
		{store.RoleUser, subjectAuthenticated},
	}
	for _, g := range groupings {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, err
		}
	}
	return &Policy{enforcer: e}, nil
}

// Allowed reports whether the given role may perform the permission. Unknown
// roles are denied.
func (p *Policy) Allowed(role string, perm Permission) bool {
	ok, err := p.enforcer.Enforce(role, string(perm))
	if err != nil {
		return false
	}
	return ok
}
