package service

import (
	"math"

	"competition-ledger/internal/domain/models"
)

// BonusRate is the share of awarded points each secondary beneficiary
// receives on top of the primary award.
const BonusRate = 0.5

// Recipient is a ledger target resolved to a display name.
type Recipient struct {
	models.Participant
	Name string
}

// BonusFor rounds half away from zero, so 75 yields 38 and 101 yields 51.
func BonusFor(points int) int {
	return int(math.Round(float64(points) * BonusRate))
}

// Distribute credits points to the primary recipient and a full bonus to
// every beneficiary. The bonus is not split among beneficiaries.
func Distribute(submissionID string, ranking, points int, primary Recipient, beneficiaries []Recipient) models.Distribution {
	d := models.Distribution{
		SubmissionID:  submissionID,
		Ranking:       ranking,
		PointsAwarded: points,
		Entries:       make([]models.DistributionEntry, 0, 1+len(beneficiaries)),
	}

	d.Entries = append(d.Entries, models.DistributionEntry{
		RecipientType: primary.Kind,
		RecipientID:   primary.ID,
		Name:          primary.Name,
		Amount:        points,
		Kind:          models.TransactionAwarded,
	})

	bonus := BonusFor(points)
	for _, b := range beneficiaries {
		d.Entries = append(d.Entries, models.DistributionEntry{
			RecipientType: b.Kind,
			RecipientID:   b.ID,
			Name:          b.Name,
			Amount:        bonus,
			Kind:          models.TransactionBonus,
		})
	}

	return d
}
