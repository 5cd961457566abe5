package activation

import (
	"time"

	"github.com/alovak/card-activation/activation/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// buildFeeLedger returns the canonical line items carrying prices, all
// stamped with the same update time.
func buildFeeLedger(prices []decimal.Decimal, now time.Time) []*models.FeeLineItem {
	now = truncateToMicro(now)
	items := make([]*models.FeeLineItem, 0, len(models.FeeLabels))
	for i, label := range models.FeeLabels {
		price := decimal.Zero
		if i < len(prices) {
			price = prices[i]
		}
		items = append(items, &models.FeeLineItem{
			ID:        uuid.New().String(),
			Label:     label,
			Price:     price,
			Position:  i,
			UpdatedAt: now,
		})
	}
	return items
}

func parsePrice(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
