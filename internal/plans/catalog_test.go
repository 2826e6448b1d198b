package plans

import (
	"testing"

	"studyhub_backend/internal/models"
	"studyhub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestGet_KnownTiers(t *testing.T) {
	for _, tier := range Tiers() {
		plan, err := Get(tier)
		assert.NoError(t, err)
		assert.Equal(t, tier, plan.ID)
		assert.Positive(t, plan.MonthlyPoints)
	}
}

func TestGet_UnknownTier(t *testing.T) {
	_, err := Get(models.PlanTier("platinum"))
	assert.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidPlan, appErr.Code)
}

// Числовые лимиты не должны уменьшаться вдоль цепочки апгрейда.
// Unlimited (-1) трактуется как бесконечность: конечный лимит после
// безлимитного был бы регрессом.
func TestCatalog_LimitMonotonicity(t *testing.T) {
	geq := func(higher, lower int) bool {
		if lower == Unlimited {
			return higher == Unlimited
		}
		return higher == Unlimited || higher >= lower
	}

	tiers := Tiers()
	for i := 1; i < len(tiers); i++ {
		prev, _ := Get(tiers[i-1])
		next, _ := Get(tiers[i])

		assert.True(t, geq(next.MonthlyPoints, prev.MonthlyPoints),
			"monthly points regressed between %s and %s", prev.ID, next.ID)
		assert.True(t, geq(next.MaxStudies, prev.MaxStudies),
			"max studies regressed between %s and %s", prev.ID, next.ID)
		assert.True(t, geq(next.MaxParticipantsPerStudy, prev.MaxParticipantsPerStudy),
			"max participants regressed between %s and %s", prev.ID, next.ID)
		assert.True(t, geq(next.RecordingMinutes, prev.RecordingMinutes),
			"recording minutes regressed between %s and %s", prev.ID, next.ID)
	}
}

// Фичи-флаги тоже не должны пропадать при апгрейде
func TestCatalog_FeatureMonotonicity(t *testing.T) {
	tiers := Tiers()
	for i := 1; i < len(tiers); i++ {
		prev, _ := Get(tiers[i-1])
		next, _ := Get(tiers[i])

		if prev.ExportData {
			assert.True(t, next.ExportData)
		}
		if prev.AdvancedAnalytics {
			assert.True(t, next.AdvancedAnalytics)
		}
		if prev.TeamCollaboration {
			assert.True(t, next.TeamCollaboration)
		}
	}
}

func TestCatalog_EnterpriseUnlimited(t *testing.T) {
	plan, err := Get(models.PlanTierEnterprise)
	assert.NoError(t, err)
	assert.Equal(t, Unlimited, plan.MaxStudies)
	assert.Equal(t, Unlimited, plan.MaxParticipantsPerStudy)
	assert.Equal(t, Unlimited, plan.RecordingMinutes)
	assert.True(t, plan.CustomBranding)
}

func TestNextTier_Chain(t *testing.T) {
	assert.Equal(t, models.PlanTierBasic, NextTier(models.PlanTierFree))
	assert.Equal(t, models.PlanTierPro, NextTier(models.PlanTierBasic))
	assert.Equal(t, models.PlanTierEnterprise, NextTier(models.PlanTierPro))
	// enterprise терминален
	assert.Equal(t, models.PlanTierEnterprise, NextTier(models.PlanTierEnterprise))
}
