package intake

// Stage is the position of a session in the intake flow.
type Stage string

const (
	StageInit                 Stage = "init"
	StageAwaitingFirstName    Stage = "awaiting_first_name"
	StageAwaitingLastName     Stage = "awaiting_last_name"
	StageAwaitingReason       Stage = "awaiting_reason"
	StageAwaitingDate         Stage = "awaiting_date"
	StageAwaitingTime         Stage = "awaiting_time"
	StageAwaitingConfirmation Stage = "awaiting_confirmation"
	StageCompleted            Stage = "completed"
)

// Action names a caller operation the dialogue engine may invoke.
type Action string

const (
	ActionSubmitFirstName    Action = "submitFirstName"
	ActionSubmitLastName     Action = "submitLastName"
	ActionSubmitReason       Action = "submitReason"
	ActionSubmitDate         Action = "submitDate"
	ActionSubmitTime         Action = "submitTime"
	ActionSubmitConfirmation Action = "submitConfirmation"
	ActionSwitchLanguage     Action = "switchLanguage"
	ActionEndCall            Action = "endCall"
)

// globalActions are legal in every stage of a live session.
var globalActions = []Action{ActionSwitchLanguage, ActionEndCall}

// stageActions is the action set published on entering each stage.
var stageActions = map[Stage][]Action{
	StageInit:                 {ActionSubmitFirstName},
	StageAwaitingFirstName:    {ActionSubmitFirstName},
	StageAwaitingLastName:     {ActionSubmitFirstName, ActionSubmitLastName},
	StageAwaitingReason:       {ActionSubmitLastName, ActionSubmitReason},
	StageAwaitingDate:         {ActionSubmitDate},
	StageAwaitingTime:         {ActionSubmitDate, ActionSubmitTime},
	StageAwaitingConfirmation: {ActionSubmitDate, ActionSubmitTime, ActionSubmitConfirmation},
	StageCompleted:            {ActionEndCall},
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageActions[s]
	return ok
}

// ActionsFor returns a copy of the action set entered with stage s.
func ActionsFor(s Stage) []Action {
	return append([]Action(nil), stageActions[s]...)
}
