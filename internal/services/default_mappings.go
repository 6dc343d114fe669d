package services

import "jirapulse/internal/models/dtos"

// DefaultFieldMappings is the seed configuration written on first boot. Field
// ids reflect the production instances; operators evolve the mapping through
// the configuration API afterwards.
func DefaultFieldMappings() *dtos.FieldMappingConfig {
	str := dtos.FieldTypeString
	return &dtos.FieldMappingConfig{
		FieldGroups: map[string]dtos.FieldGroup{
			"system": {
				Description: "JIRA system fields",
				Fields: map[string]dtos.FieldDefinition{
					"summary": {
						Type:        str,
						Required:    true,
						SystemField: true,
						FieldID:     "summary",
						Description: "Issue summary",
					},
					"status": {
						Type:        dtos.FieldTypeStatus,
						Required:    true,
						Source:      dtos.SourceSystem,
						FieldPath:   "status.name",
						Description: "Current workflow status",
					},
				},
			},
			"order_details": {
				Description: "Order and delivery fields",
				Fields: map[string]dtos.FieldDefinition{
					"location_name": {
						Type:        str,
						Description: "Location or community name",
						Instance1: &dtos.InstanceMapping{
							FieldIDs: []string{"customfield_10603", "customfield_10604"},
						},
						Instance2:     &dtos.InstanceMapping{FieldID: "customfield_10201"},
						CombineMethod: dtos.CombineSpace,
					},
					"order_number": {
						Type:        str,
						Description: "Order number",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10501"},
						Instance2:   &dtos.InstanceMapping{FieldID: "customfield_10202"},
					},
					"raw_photos": {
						Type:        dtos.FieldTypeInteger,
						Description: "Number of raw photos delivered",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10713"},
						Instance2:   &dtos.InstanceMapping{FieldID: "customfield_10302"},
					},
					"dropbox_raw": {
						Type:        str,
						Description: "Dropbox link for raw media",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10714"},
						Instance2:   &dtos.InstanceMapping{FieldID: "customfield_10303"},
					},
					"dropbox_edited": {
						Type:        str,
						Description: "Dropbox link for edited media",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10715"},
						Instance2:   &dtos.InstanceMapping{FieldID: "customfield_10304"},
					},
					"same_day_delivery": {
						Type:        dtos.FieldTypeBoolean,
						Description: "Same day delivery requested",
						Instance1:   &dtos.InstanceMapping{FieldPath: "customfield_10716.value"},
						Instance2:   &dtos.InstanceMapping{FieldPath: "customfield_10305.value"},
					},
					"escalated_editing": {
						Type:        dtos.FieldTypeBoolean,
						Description: "Editing escalated",
						Instance1:   &dtos.InstanceMapping{FieldPath: "customfield_10717.value"},
					},
					"edited_media_revision_notes": {
						Type:        str,
						Description: "Revision notes on edited media",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10718"},
					},
					"editing_team": {
						Type:        str,
						Description: "Assigned editing team",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10719"},
						Instance2:   &dtos.InstanceMapping{FieldID: "customfield_10306"},
					},
					"service_type": {
						Type:        str,
						Description: "Ordered service",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10720"},
						Instance2:   &dtos.InstanceMapping{FieldID: "customfield_10307"},
					},
					"client_name": {
						Type:        str,
						Description: "Client name",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10600"},
						Instance2:   &dtos.InstanceMapping{FieldID: "customfield_10203"},
					},
					"client_email": {
						Type:        str,
						Description: "Client email",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10601"},
						Instance2:   &dtos.InstanceMapping{FieldID: "customfield_10204"},
					},
					"listing_address": {
						Type:        str,
						Description: "Listing street address",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10602"},
						Instance2:   &dtos.InstanceMapping{FieldID: "customfield_10205"},
					},
					"comments": {
						Type:        str,
						Description: "Order comments",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10721"},
					},
					"editor_notes": {
						Type:        str,
						Description: "Notes for the editor",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10722"},
					},
					"access_instructions": {
						Type:        str,
						Description: "Property access instructions",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10723"},
						Instance2:   &dtos.InstanceMapping{FieldID: "customfield_10308"},
					},
					"special_instructions": {
						Type:        str,
						Description: "Special shoot instructions",
						Instance1:   &dtos.InstanceMapping{FieldID: "customfield_10724"},
						Instance2:   &dtos.InstanceMapping{FieldID: "customfield_10309"},
					},
				},
			},
			"milestones": {
				Description: "Workflow milestone timestamps from the changelog",
				Fields: map[string]dtos.FieldDefinition{
					"scheduled":      milestoneField("Shoot scheduled"),
					"acknowledged":   milestoneField("Acknowledged by agent"),
					"at_listing":     milestoneField("Photographer at listing"),
					"shoot_complete": milestoneField("Shoot complete"),
					"uploaded":       milestoneField("Raw media uploaded"),
					"edit_start":     milestoneField("Editing started"),
					"final_review":   milestoneField("In final review"),
					"closed":         milestoneField("Order closed"),
				},
			},
		},
	}
}

func milestoneField(description string) dtos.FieldDefinition {
	return dtos.FieldDefinition{
		Type:        dtos.FieldTypeDatetime,
		Source:      dtos.SourceTransitions,
		Description: description,
	}
}
