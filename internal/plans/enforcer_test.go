package plans

import (
	"testing"

	"studyhub_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func usageWith(studies, minutes int) *models.UsageRecord {
	return &models.UsageRecord{
		StudiesCreated:       studies,
		RecordingMinutesUsed: minutes,
	}
}

func TestCheckLimit_CreateStudy(t *testing.T) {
	free, _ := Get(models.PlanTierFree)

	// allowed=false тогда и только тогда, когда лимит конечен и достигнут
	cases := []struct {
		name    string
		created int
		allowed bool
	}{
		{"below limit", 0, true},
		{"one below limit", 2, true},
		{"at limit", 3, false},
		{"over limit", 5, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := CheckLimit(free, usageWith(tc.created, 0), ActionCreateStudy, ActionData{})
			assert.Equal(t, tc.allowed, d.Allowed)
			if !tc.allowed {
				assert.Equal(t, "Study limit exceeded", d.Reason)
				assert.Equal(t, tc.created, d.CurrentUsage)
				assert.Equal(t, free.MaxStudies, d.PlanLimit)
				assert.Equal(t, models.PlanTierBasic, d.RequiredPlan)
				assert.NotEmpty(t, d.UpgradeMessage)
			}
		})
	}
}

func TestCheckLimit_CreateStudy_Unlimited(t *testing.T) {
	enterprise, _ := Get(models.PlanTierEnterprise)
	d := CheckLimit(enterprise, usageWith(100000, 0), ActionCreateStudy, ActionData{})
	assert.True(t, d.Allowed)
}

func TestCheckLimit_AddParticipant(t *testing.T) {
	free, _ := Get(models.PlanTierFree) // 10 участников на исследование

	d := CheckLimit(free, usageWith(0, 0), ActionAddParticipant, ActionData{CurrentParticipants: 9})
	assert.True(t, d.Allowed)

	d = CheckLimit(free, usageWith(0, 0), ActionAddParticipant, ActionData{CurrentParticipants: 10})
	assert.False(t, d.Allowed)
	assert.Equal(t, "Participant limit exceeded for this study", d.Reason)
}

func TestCheckLimit_FeatureFlags(t *testing.T) {
	free, _ := Get(models.PlanTierFree)
	basic, _ := Get(models.PlanTierBasic)
	pro, _ := Get(models.PlanTierPro)

	d := CheckLimit(free, usageWith(0, 0), ActionExportData, ActionData{})
	assert.False(t, d.Allowed)
	assert.Equal(t, "Data export not available in your plan", d.Reason)
	assert.Equal(t, models.PlanTierBasic, d.RequiredPlan)

	assert.True(t, CheckLimit(basic, usageWith(0, 0), ActionExportData, ActionData{}).Allowed)

	d = CheckLimit(basic, usageWith(0, 0), ActionAdvancedAnalytics, ActionData{})
	assert.False(t, d.Allowed)
	assert.Equal(t, models.PlanTierPro, d.RequiredPlan)

	assert.True(t, CheckLimit(pro, usageWith(0, 0), ActionTeamCollaboration, ActionData{}).Allowed)
}

func TestCheckLimit_RecordSession(t *testing.T) {
	free, _ := Get(models.PlanTierFree) // 60 минут

	// использовано + оценка <= лимит: ровно на границе проходит
	d := CheckLimit(free, usageWith(0, 50), ActionRecordSession, ActionData{EstimatedMinutes: 10})
	assert.True(t, d.Allowed)

	d = CheckLimit(free, usageWith(0, 50), ActionRecordSession, ActionData{EstimatedMinutes: 11})
	assert.False(t, d.Allowed)
	assert.Equal(t, "Recording minutes limit exceeded", d.Reason)
	assert.Equal(t, 50, d.CurrentUsage)
	assert.Equal(t, 60, d.PlanLimit)
}

func TestCheckLimit_UnknownActionAllowed(t *testing.T) {
	free, _ := Get(models.PlanTierFree)
	d := CheckLimit(free, usageWith(100, 100), Action("delete-study"), ActionData{})
	assert.True(t, d.Allowed)
}
