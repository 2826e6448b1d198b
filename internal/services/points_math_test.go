package services

import (
	"testing"

	"studyhub_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCalculateWithdrawalFee(t *testing.T) {
	cases := []struct {
		amount   int
		fee      int
		net      int
		cash     float64
	}{
		// fee = round(amount * 0.025), net = amount - fee, cash = net * 0.10
		{60, 2, 58, 5.80},
		{50, 1, 49, 4.90},
		{100, 3, 97, 9.70},
		{1000, 25, 975, 97.50},
		{79, 2, 77, 7.70},
		{80, 2, 78, 7.80},
	}

	for _, tc := range cases {
		fee, net, cash := CalculateWithdrawalFee(tc.amount)
		assert.Equal(t, tc.fee, fee, "fee for %d", tc.amount)
		assert.Equal(t, tc.net, net, "net for %d", tc.amount)
		assert.InDelta(t, tc.cash, cash, 0.001, "cash for %d", tc.amount)
	}
}

func TestCalculateReward(t *testing.T) {
	// reward = round((50 + blocks*5) * multiplier)
	cases := []struct {
		blocks     int
		difficulty models.StudyDifficulty
		expected   int
	}{
		{0, models.StudyDifficultyNormal, 50},
		{4, models.StudyDifficultyNormal, 70},
		{0, models.StudyDifficultyEasy, 40},
		{3, models.StudyDifficultyEasy, 52},
		{2, models.StudyDifficultyHard, 90},
		{10, models.StudyDifficultyExpert, 200},
		{5, models.StudyDifficultyHard, 113}, // round(75 * 1.5) = round(112.5)
	}

	for _, tc := range cases {
		got := CalculateReward(tc.blocks, tc.difficulty)
		assert.Equal(t, tc.expected, got, "blocks=%d difficulty=%s", tc.blocks, tc.difficulty)
	}
}

func TestCalculateReward_UnknownDifficultyDefaultsToNormal(t *testing.T) {
	assert.Equal(t, 50, CalculateReward(0, models.StudyDifficulty("nightmare")))
}
