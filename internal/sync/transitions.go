package sync

import (
	"strings"
	"time"

	"jirapulse/internal/constants"
	"jirapulse/internal/models/dtos"
)

// statusToMilestone is the inverted alias table, built once.
var statusToMilestone = func() map[string]string {
	inverted := make(map[string]string)
	for milestone, aliases := range constants.MilestoneAliases {
		for _, alias := range aliases {
			inverted[alias] = milestone
		}
	}
	return inverted
}()

// ExtractTransitions walks an issue changelog and returns the timestamp each
// milestone was last reached. Every milestone key is present in the result;
// unreached milestones map to nil. When a status is revisited the later
// timestamp wins. Entries with unparseable timestamps are skipped.
func ExtractTransitions(changelog *dtos.Changelog) map[string]*time.Time {
	result := make(map[string]*time.Time, len(constants.MilestoneColumns))
	for _, milestone := range constants.MilestoneColumns {
		result[milestone] = nil
	}
	if changelog == nil {
		return result
	}

	for _, history := range changelog.Histories {
		for _, item := range history.Items {
			if !strings.EqualFold(item.Field, "status") {
				continue
			}
			milestone, ok := statusToMilestone[strings.ToLower(strings.TrimSpace(item.ToString))]
			if !ok {
				continue
			}
			ts, ok := parseTimestamp(history.Created)
			if !ok {
				continue
			}
			if prev := result[milestone]; prev == nil || ts.After(*prev) {
				t := ts
				result[milestone] = &t
			}
		}
	}
	return result
}
