package service

import (
	"testing"
	"time"

	"tem-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestBuildReviewUpdate_ManagerDecision(t *testing.T) {
	manager := newManager()
	employee := newEmployee(manager)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	approval := &model.Approval{
		Status:        model.StatusPending,
		ManagerStatus: model.StatusPending,
		AdminStatus:   model.StatusPending,
	}

	fields, err := buildReviewUpdate(approval, employee, manager, model.StatusApproved, "looks fine", now)
	assert.NoError(t, err)

	assert.Equal(t, model.StatusApproved, fields["manager_status"])
	assert.Equal(t, manager.ID, fields["manager_reviewed_by"])
	assert.Equal(t, "looks fine", fields["manager_comments"])
	assert.Equal(t, now, fields["manager_reviewed_at"])
	assert.Equal(t, model.StatusApproved, fields["status"])

	// Manager decision never touches the admin tier
	assert.NotContains(t, fields, "admin_status")
	assert.NotContains(t, fields, "admin_reviewed_by")
}

func TestBuildReviewUpdate_AdminOverridesManager(t *testing.T) {
	manager := newManager()
	employee := newEmployee(manager)
	admin := newAdmin()
	now := time.Now()

	// Manager already approved; the admin rejection must win the aggregate
	approval := &model.Approval{
		Status:        model.StatusApproved,
		ManagerStatus: model.StatusApproved,
		AdminStatus:   model.StatusPending,
	}

	fields, err := buildReviewUpdate(approval, employee, admin, model.StatusRejected, "budget exceeded", now)
	assert.NoError(t, err)

	assert.Equal(t, model.StatusRejected, fields["admin_status"])
	assert.Equal(t, admin.ID, fields["admin_reviewed_by"])
	assert.Equal(t, model.StatusRejected, fields["status"])
	assert.NotContains(t, fields, "manager_status")
}

func TestBuildReviewUpdate_FinalizedIsImmutable(t *testing.T) {
	manager := newManager()
	employee := newEmployee(manager)
	admin := newAdmin()

	for _, adminStatus := range []string{model.StatusApproved, model.StatusRejected} {
		approval := &model.Approval{
			Status:        adminStatus,
			ManagerStatus: model.StatusPending,
			AdminStatus:   adminStatus,
		}

		_, err := buildReviewUpdate(approval, employee, manager, model.StatusApproved, "", time.Now())
		assert.ErrorIs(t, err, ErrFinalized)

		// Not even another admin can act again
		_, err = buildReviewUpdate(approval, employee, admin, model.StatusApproved, "", time.Now())
		assert.ErrorIs(t, err, ErrFinalized)
	}
}

func TestBuildReviewUpdate_SelfReviewForbidden(t *testing.T) {
	manager := newManager()
	manager.ManagerID = nil

	approval := &model.Approval{
		Status:        model.StatusPending,
		ManagerStatus: model.StatusPending,
		AdminStatus:   model.StatusPending,
	}

	_, err := buildReviewUpdate(approval, manager, manager, model.StatusApproved, "", time.Now())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBuildReviewUpdate_ManagerMustBeAssigned(t *testing.T) {
	assigned := newManager()
	other := newManager()
	employee := newEmployee(assigned)

	approval := &model.Approval{
		Status:        model.StatusPending,
		ManagerStatus: model.StatusPending,
		AdminStatus:   model.StatusPending,
	}

	_, err := buildReviewUpdate(approval, employee, other, model.StatusApproved, "", time.Now())
	assert.ErrorIs(t, err, ErrForbidden)

	// An employee with no manager at all behaves the same: managers are
	// locked out, only an admin can decide
	orphan := newEmployee(nil)
	_, err = buildReviewUpdate(approval, orphan, assigned, model.StatusApproved, "", time.Now())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBuildReviewUpdate_EmployeeCannotReview(t *testing.T) {
	manager := newManager()
	employee := newEmployee(manager)
	peer := newEmployee(manager)

	approval := &model.Approval{
		Status:        model.StatusPending,
		ManagerStatus: model.StatusPending,
		AdminStatus:   model.StatusPending,
	}

	_, err := buildReviewUpdate(approval, employee, peer, model.StatusApproved, "", time.Now())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBuildReviewUpdate_InvalidDecision(t *testing.T) {
	manager := newManager()
	employee := newEmployee(manager)

	approval := &model.Approval{
		Status:        model.StatusPending,
		ManagerStatus: model.StatusPending,
		AdminStatus:   model.StatusPending,
	}

	for _, decision := range []string{"", "Pending", "approved", "Maybe"} {
		_, err := buildReviewUpdate(approval, employee, manager, decision, "", time.Now())
		assert.ErrorIs(t, err, ErrValidation, "decision %q", decision)
	}
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name          string
		managerStatus string
		adminStatus   string
		want          string
	}{
		{"both pending", model.StatusPending, model.StatusPending, model.StatusPending},
		{"manager approved", model.StatusApproved, model.StatusPending, model.StatusApproved},
		{"manager rejected", model.StatusRejected, model.StatusPending, model.StatusRejected},
		{"admin overrides manager approval", model.StatusApproved, model.StatusRejected, model.StatusRejected},
		{"admin overrides manager rejection", model.StatusRejected, model.StatusApproved, model.StatusApproved},
		{"admin decides first", model.StatusPending, model.StatusApproved, model.StatusApproved},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &model.Approval{ManagerStatus: tc.managerStatus, AdminStatus: tc.adminStatus}
			assert.Equal(t, tc.want, a.DeriveStatus())
		})
	}
}
