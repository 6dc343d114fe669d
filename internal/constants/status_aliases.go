package constants

// MilestoneAliases maps each milestone to the workflow status names that count
// as reaching it. Matching is case-insensitive on the trimmed status, so the
// aliases are stored lowercase. The variants come straight from production
// changelogs: the two instances never agreed on status spelling.
var MilestoneAliases = map[string][]string{
	"scheduled": {
		"scheduled",
	},
	"acknowledged": {
		"acknowledged",
		"ack",
		"acknowledged by agent",
	},
	"at_listing": {
		"at listing",
		"listing",
		"at_listing",
	},
	"shoot_complete": {
		"shoot complete",
		"shooting complete",
		"shoot_complete",
	},
	"uploaded": {
		"uploaded",
		"upload complete",
		"upload_complete",
	},
	"edit_start": {
		"edit start",
		"edit",
		"editing started",
		"edit_start",
	},
	"final_review": {
		"final review",
		"managing partner ready",
		"pending review",
		"final_review",
	},
	"closed": {
		"closed",
		"complete",
		"completed",
		"done",
	},
}
