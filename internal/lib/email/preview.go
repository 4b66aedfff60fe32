package email

// PreviewData holds sample data for every template, used to render previews
// and to check that templates execute.
var PreviewData = map[Template]any{
	TemplateMaintenanceReminder: MaintenanceReminder{
		MaintenanceID:   12,
		MachineID:       1,
		MachineName:     "M1",
		MaintenanceType: "preventivo",
		ScheduledDate:   "2026-03-14",
	},
	TemplateMachineDown: MachineDown{
		InterventionID: 7,
		MachineID:      1,
		MachineName:    "M1",
		Description:    "cambio de motor",
		Date:           "2026-03-14",
		Cost:           "$150.00",
	},
}
