package tools

import (
	"github.com/schedura-ai/booking-assistant/internal/llm"
)

// Tool names advertised to the model.
const (
	ToolGetAvailableServices = "get_available_services"
	ToolGetAvailableSlots    = "get_available_slots"
	ToolBookAppointment      = "book_appointment"
)

// Argument names.
const (
	ArgDate        = "date_str"
	ArgTime        = "time_str"
	ArgServiceName = "service_name"
	ArgUserName    = "user_name"
	ArgUserEmail   = "user_email"
)

// Definitions returns the tool schema offered on the first completion of a turn.
func Definitions() []llm.Tool {
	return []llm.Tool{
		{
			Name: ToolGetAvailableServices,
			Description: "Use this tool ONLY when the user asks to see a list of all available services. " +
				"Do NOT use it if they select a specific service to book.",
		},
		{
			Name:        ToolGetAvailableSlots,
			Description: "Find available appointment slots for a given date.",
			Params: []llm.Param{
				{Name: ArgDate, Description: "The date to check, in YYYY-MM-DD format."},
			},
		},
		{
			Name:        ToolBookAppointment,
			Description: "Book a service for a user once all details (service, date, time, name, email) are confirmed.",
			Params: []llm.Param{
				{Name: ArgServiceName, Description: "Name of the service to book.", Required: true},
				{Name: ArgDate, Description: "Appointment date in YYYY-MM-DD format.", Required: true},
				{Name: ArgTime, Description: "Appointment start time in HH:MM format.", Required: true},
				{Name: ArgUserName, Description: "Full name of the customer.", Required: true},
				{Name: ArgUserEmail, Description: "Email address of the customer.", Required: true},
			},
		},
	}
}
