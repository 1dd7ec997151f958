package rbac

import (
	"testing"

	"incidentdesk/core/store"
)

func TestRolePermissions(t *testing.T) {
	policy, err := NewPolicy()
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}

	cases := []struct {
		role string
		perm Permission
		want bool
	}{
		{store.RoleAdmin, PermIncidentsList, true},
		{store.RoleAdmin, PermIncidentsDelete, true},
		{store.RoleAdmin, PermRemindersSend, true},
		{store.RoleAdmin, PermIncidentsReport, true},
		{store.RoleAdmin, PermDocumentsUpload, true},

		{store.RolePrivacyOfficer, PermIncidentsList, true},
		{store.RolePrivacyOfficer, PermStatsView, true},
		{store.RolePrivacyOfficer, PermReportsAnnual, true},
		{store.RolePrivacyOfficer, PermNotesAdd, true},

		{store.RoleUser, PermIncidentsReport, true},
		{store.RoleUser, PermIncidentsView, true},
		{store.RoleUser, PermNotesView, true},
		{store.RoleUser, PermNotesAdd, true},
		{store.RoleUser, PermDocumentsView, true},
		{store.RoleUser, PermDocumentsUpload, true},

		{store.RoleUser, PermIncidentsList, false},
		{store.RoleUser, PermIncidentsCreate, false},
		{store.RoleUser, PermIncidentsUpdate, false},
		{store.RoleUser, PermIncidentsDelete, false},
		{store.RoleUser, PermDocumentsDelete, false},
		{store.RoleUser, PermStatsView, false},
		{store.RoleUser, PermReportsAnnual, false},
		{store.RoleUser, PermRemindersSend, false},

		{"auditor", PermIncidentsView, false},
		{"", PermIncidentsReport, false},
	}
	for _, tc := range cases {
		if got := policy.Allowed(tc.role, tc.perm); got != tc.want {
			t.Errorf("Allowed(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}
