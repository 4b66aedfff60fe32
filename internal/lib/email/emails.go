package email

import "fmt"

// MaintenanceReminder is the data of TemplateMaintenanceReminder.
type MaintenanceReminder struct {
	MaintenanceID   int64
	MachineID       int64
	MachineName     string
	MaintenanceType string
	ScheduledDate   string
}

// MachineDown is the data of TemplateMachineDown.
type MachineDown struct {
	InterventionID int64
	MachineID      int64
	MachineName    string
	Description    string
	Date           string
	Cost           string
}

func (c *Client) SendMaintenanceReminder(to string, data MaintenanceReminder) error {
	return c.SendEmail(
		to,
		fmt.Sprintf("Maintenance due for %s on %s", data.MachineName, data.ScheduledDate),
		TemplateMaintenanceReminder,
		data,
	)
}

func (c *Client) SendMachineDownAlert(to string, data MachineDown) error {
	return c.SendEmail(
		to,
		fmt.Sprintf("%s is out of service", data.MachineName),
		TemplateMachineDown,
		data,
	)
}
