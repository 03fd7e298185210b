package intake

// ParamType is the JSON type of an action parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamBoolean ParamType = "boolean"
)

// ParamSpec describes one action argument.
type ParamSpec struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
}

// ActionSpec is the tool description surfaced to the dialogue engine.
type ActionSpec struct {
	Name        Action      `json:"name"`
	Description string      `json:"description"`
	Parameters  []ParamSpec `json:"parameters"`
}

var catalog = []ActionSpec{
	{
		Name:        ActionSubmitFirstName,
		Description: "Once the user gives their first name, call this function.",
		Parameters: []ParamSpec{
			{Name: "first_name", Type: ParamString, Description: "The user's first name."},
		},
	},
	{
		Name:        ActionSubmitLastName,
		Description: "Once the user gives their last name, call this function.",
		Parameters: []ParamSpec{
			{Name: "last_name", Type: ParamString, Description: "The user's last name."},
		},
	},
	{
		Name:        ActionSubmitReason,
		Description: "Once the user provides the reason for the appointment, call this function.",
		Parameters: []ParamSpec{
			{Name: "reason", Type: ParamString, Description: "The reason for the appointment."},
		},
	},
	{
		Name:        ActionSubmitDate,
		Description: "Once the user provides the date for the appointment, call this function.",
		Parameters: []ParamSpec{
			{Name: "date", Type: ParamString, Description: "The date of the appointment, in the format YYYY-MM-DD. Leave empty if not specified by the user."},
			{Name: "day", Type: ParamString, Description: "The day of the appointment. Leave empty if not specified by the user. It can be 'today', 'tomorrow' or a day of the week written (e.g. 'monday')."},
		},
	},
	{
		Name:        ActionSubmitTime,
		Description: "Once the user provides a time of the appointment, call this function.",
		Parameters: []ParamSpec{
			{Name: "time", Type: ParamString, Description: "The time of the appointment, in the format HH:MM, 24-hour format. It can only be during the day, so no need to specify AM or PM."},
			{Name: "date", Type: ParamString, Description: "The last given date of the appointment, in the format YYYY-MM-DD."},
		},
	},
	{
		Name:        ActionSubmitConfirmation,
		Description: "When the system asks for confirmation, call this function.",
		Parameters: []ParamSpec{
			{Name: "confirmation", Type: ParamBoolean, Description: "The user's confirmation."},
		},
	},
	{
		Name:        ActionSwitchLanguage,
		Description: "Use this function to switch the language of the call, it can either be english or french.",
		Parameters: []ParamSpec{
			{Name: "language", Type: ParamString, Description: "The language to switch to."},
		},
	},
	{
		Name:        ActionEndCall,
		Description: "Use this function to end the call.",
	},
}

// Catalog returns every action the intake flow understands.
func Catalog() []ActionSpec {
	return append([]ActionSpec(nil), catalog...)
}

// Spec returns the catalog entry for a.
func Spec(a Action) (ActionSpec, bool) {
	for _, spec := range catalog {
		if spec.Name == a {
			return spec, true
		}
	}
	return ActionSpec{}, false
}
