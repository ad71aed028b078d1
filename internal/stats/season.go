package stats

import (
	"time"

	"github.com/kavery/weatherpipe/internal/models"
)

// seasonByMonth is a fixed calendar lookup, not a climatological model.
var seasonByMonth = map[time.Month]models.Season{
	time.December: models.Winter,
	time.January:  models.Winter,
	time.February: models.Winter,

	time.March: models.Summer,
	time.April: models.Summer,
	time.May:   models.Summer,

	time.June:   models.Monsoon,
	time.July:   models.Monsoon,
	time.August: models.Monsoon,

	time.September: models.Autumn,
	time.October:   models.Autumn,
	time.November:  models.Autumn,
}

// SeasonOf maps a calendar month to its season. Total over all twelve
// months and idempotent.
func SeasonOf(m time.Month) models.Season {
	return seasonByMonth[m]
}
