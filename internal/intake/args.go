package intake

import (
	"fmt"
	"strconv"
	"strings"
)

type FirstNameArgs struct{ FirstName *string }

type LastNameArgs struct{ LastName *string }

type ReasonArgs struct{ Reason *string }

// DateArgs carries an ISO date, a day label, or both. The ISO date wins.
type DateArgs struct {
	Date *string
	Day  *string
}

// TimeArgs carries an ISO time and optionally the date it applies to.
type TimeArgs struct {
	Time *string
	Date *string
}

// ConfirmationArgs is false when Confirmation is absent.
type ConfirmationArgs struct{ Confirmation *bool }

type LanguageArgs struct{ Language *string }

type EndCallArgs struct{}

// DecodeArgs converts the untyped argument bag of action into its typed payload.
// Fields of the wrong type, or blank strings, are treated as absent.
func DecodeArgs(action Action, raw map[string]any) (any, error) {
	switch action {
	case ActionSubmitFirstName:
		return FirstNameArgs{FirstName: stringArg(raw, "first_name")}, nil
	case ActionSubmitLastName:
		return LastNameArgs{LastName: stringArg(raw, "last_name")}, nil
	case ActionSubmitReason:
		return ReasonArgs{Reason: stringArg(raw, "reason")}, nil
	case ActionSubmitDate:
		return DateArgs{Date: stringArg(raw, "date"), Day: stringArg(raw, "day")}, nil
	case ActionSubmitTime:
		return TimeArgs{Time: stringArg(raw, "time"), Date: stringArg(raw, "date")}, nil
	case ActionSubmitConfirmation:
		return ConfirmationArgs{Confirmation: boolArg(raw, "confirmation")}, nil
	case ActionSwitchLanguage:
		return LanguageArgs{Language: stringArg(raw, "language")}, nil
	case ActionEndCall:
		return EndCallArgs{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

func stringArg(raw map[string]any, key string) *string {
	v, ok := raw[key].(string)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// boolArg also accepts the string forms models emit, such as "true".
func boolArg(raw map[string]any, key string) *bool {
	switch v := raw[key].(type) {
	case bool:
		return &v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return &b
	}
	return nil
}
