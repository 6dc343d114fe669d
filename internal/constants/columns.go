package constants

// IssueTable is the target table for synced issues.
const IssueTable = "jira_issues_v2"

// ColumnPrefix namespaces dynamically configured columns so they cannot collide
// with system columns.
const ColumnPrefix = "ndpu_"

// IssueColumns is the declared column list for batch upserts. Order matters:
// every assembled record must match this list exactly or it is dropped.
var IssueColumns = []string{
	"issue_key",
	"summary",
	"status",
	"project_name",
	"location_name",
	"ndpu_order_number",
	"ndpu_raw_photos",
	"ndpu_dropbox_raw",
	"ndpu_dropbox_edited",
	"ndpu_same_day_delivery",
	"ndpu_escalated_editing",
	"ndpu_edited_media_revision_notes",
	"ndpu_editing_team",
	"ndpu_service",
	"ndpu_client_name",
	"ndpu_client_email",
	"ndpu_listing_address",
	"ndpu_comments",
	"ndpu_editor_notes",
	"ndpu_access_instructions",
	"ndpu_special_instructions",
	"scheduled",
	"acknowledged",
	"at_listing",
	"shoot_complete",
	"uploaded",
	"edit_start",
	"final_review",
	"closed",
	"last_updated",
}

// ReservedBareColumns are column names that never receive the ndpu_ prefix.
var ReservedBareColumns = map[string]bool{
	"summary":       true,
	"status":        true,
	"issue_key":     true,
	"project_name":  true,
	"location_name": true,
	"last_updated":  true,
}

// MilestoneColumns are the transition-derived timestamp columns, in the order
// they appear in IssueColumns.
var MilestoneColumns = []string{
	"scheduled",
	"acknowledged",
	"at_listing",
	"shoot_complete",
	"uploaded",
	"edit_start",
	"final_review",
	"closed",
}

// ColumnToFieldKey maps database columns to logical field keys in the mapping
// configuration. Columns absent from this map (issue_key, project_name,
// last_updated) are filled by the worker directly.
var ColumnToFieldKey = map[string]string{
	"summary":                          "summary",
	"status":                           "status",
	"location_name":                    "location_name",
	"ndpu_order_number":                "order_number",
	"ndpu_raw_photos":                  "raw_photos",
	"ndpu_dropbox_raw":                 "dropbox_raw",
	"ndpu_dropbox_edited":              "dropbox_edited",
	"ndpu_same_day_delivery":           "same_day_delivery",
	"ndpu_escalated_editing":           "escalated_editing",
	"ndpu_edited_media_revision_notes": "edited_media_revision_notes",
	"ndpu_editing_team":                "editing_team",
	"ndpu_service":                     "service_type",
	"ndpu_client_name":                 "client_name",
	"ndpu_client_email":                "client_email",
	"ndpu_listing_address":             "listing_address",
	"ndpu_comments":                    "comments",
	"ndpu_editor_notes":                "editor_notes",
	"ndpu_access_instructions":         "access_instructions",
	"ndpu_special_instructions":        "special_instructions",
	"scheduled":                        "scheduled",
	"acknowledged":                     "acknowledged",
	"at_listing":                       "at_listing",
	"shoot_complete":                   "shoot_complete",
	"uploaded":                         "uploaded",
	"edit_start":                       "edit_start",
	"final_review":                     "final_review",
	"closed":                           "closed",
}

// SystemFieldAllowList is the fixed set of JIRA system field names a
// system_field mapping may reference.
var SystemFieldAllowList = map[string]bool{
	"summary":     true,
	"status":      true,
	"description": true,
	"priority":    true,
	"issuetype":   true,
	"assignee":    true,
	"reporter":    true,
	"created":     true,
	"updated":     true,
}
