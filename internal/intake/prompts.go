package intake

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/voice-intake/internal/availability"
)

// Persona is how the assistant introduces itself.
type Persona struct {
	AssistantName string
	ClinicName    string
}

// DefaultPersona is the persona used when none is configured.
func DefaultPersona() Persona {
	return Persona{AssistantName: "JARVIS", ClinicName: "Very Fresh Dentals"}
}

type prompts interface {
	greeting(p Persona, fallback Language) string
	askLastName() string
	firstNameMissing() string
	askReason() string
	lastNameMissing() string
	askDate(today civil.Date) string
	reasonMissing() string
	askTime(d civil.Date, hours []int) string
	dateMissing() string
	dayNotRecognised() string
	dayNotInWindow() string
	dateUnavailable(closest *civil.Date) string
	timeMissing() string
	timeNeedsDate() string
	timeUnavailable() string
	confirmSlot(d civil.Date, t civil.Time) string
	booked() string
	notConfirmed() string
	bookingFailed() string
	calendarUnavailable() string
	languageSwitched(l Language, stage Stage) string
	unsupportedLanguage() string
	actionNotAllowed(a Action, allowed []Action) string
	callEnded() string
	goodbye() string
}

func promptsFor(l Language) prompts {
	if l == LanguageEnglish {
		return english{}
	}
	return french{}
}

// formatHours renders open hours the way they are spoken, e.g. "9h, 10h".
func formatHours(hours []int) string {
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = strconv.Itoa(h) + "h"
	}
	return strings.Join(parts, ", ")
}

func formatTime(t civil.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func joinActions(actions []Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}

func weekdayOf(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

type english struct{}

func (english) greeting(p Persona, fallback Language) string {
	return fmt.Sprintf(`You are %s, an assistant for %s. Your role is to help add future appointments. You are speaking with an unknown caller. Remember, you are not a medical professional and must not provide medical advice.
Keep your responses concise and avoid making assumptions about input values; always seek clarification if a user's response is unclear. Start by presenting yourself and ask the caller if they prefer English or French.
If they do not specify, assume the language is %s and continue in that language. Once the language is confirmed, ask for the user's first name and call the %s function.
Mention that you can speak English or French and invite the user to switch languages if needed. If the user requests a language change, call the %s function.`,
		p.AssistantName, p.ClinicName, fallback, ActionSubmitFirstName, ActionSwitchLanguage)
}

func (english) askLastName() string {
	return fmt.Sprintf(`Once you have the first name, ask for the last name.
If the user wants to change the first name, ask for it again and call the %s function with the new first name.
If the user provides the last name, call the %s function.`, ActionSubmitFirstName, ActionSubmitLastName)
}

func (english) firstNameMissing() string {
	return fmt.Sprintf("The first name was not understood. Ask the user for their first name again, then call the %s function.", ActionSubmitFirstName)
}

func (english) askReason() string {
	return fmt.Sprintf(`Once you have the last name, ask for the reason for the appointment.
If the user wants to change the last name, ask for it again and call the %s function with the new last name.
If the user provides the reason for the appointment, call the %s function.`, ActionSubmitLastName, ActionSubmitReason)
}

func (english) lastNameMissing() string {
	return fmt.Sprintf("The last name is missing. Ask the user for their last name, then call the %s function.", ActionSubmitLastName)
}

func (english) askDate(today civil.Date) string {
	return fmt.Sprintf(`Thank you for providing the reason for your appointment. Please provide the date you would like to schedule the appointment.
Today is %s, %s.
If the user provides just a day of the week, leave the date empty and pass the day. If the user says as soon as possible, assume it is for today.
Once the user provides the date, call the %s function.`, weekdayOf(today), today, ActionSubmitDate)
}

func (english) reasonMissing() string {
	return fmt.Sprintf("The reason for the appointment is missing. Ask the user why they want an appointment, then call the %s function.", ActionSubmitReason)
}

func (english) askTime(d civil.Date, hours []int) string {
	return fmt.Sprintf("Thank you for providing the date for your appointment. Please provide the time you would like to schedule the appointment. Available hours for %s are %s. Don't say hundreds, just say the hour. Once the user provides the time, call the %s function.",
		d, formatHours(hours), ActionSubmitTime)
}

func (english) dateMissing() string {
	return fmt.Sprintf("No date was given. Ask the user which day they would like the appointment, then call the %s function.", ActionSubmitDate)
}

func (english) dayNotRecognised() string {
	return "The day was not understood. Ask the user for a day of the week, today, tomorrow, or a full date."
}

func (english) dayNotInWindow() string {
	return "Cannot find the day in the next 7 days. Please provide another day for the appointment."
}

func (english) dateUnavailable(closest *civil.Date) string {
	msg := "The date you have provided is not possible anymore. Please provide another date for the appointment."
	if closest != nil {
		msg += fmt.Sprintf(" The closest available date is %s, %s.", weekdayOf(*closest), *closest)
	}
	return msg
}

func (english) timeMissing() string {
	return fmt.Sprintf("No time was given. Ask the user for the time of the appointment, then call the %s function.", ActionSubmitTime)
}

func (english) timeNeedsDate() string {
	return fmt.Sprintf("A date is needed before a time can be checked. Ask the user for the date, then call the %s function.", ActionSubmitDate)
}

func (english) timeUnavailable() string {
	return "The time you have provided is not available. Please provide another time for the appointment."
}

func (english) confirmSlot(d civil.Date, t civil.Time) string {
	return fmt.Sprintf(`Thank you for providing the time for your appointment. The appointment is scheduled for %s, %s at %s. Please confirm the appointment by saying yes or no.
If the user confirms, call the %s function. If the user does not confirm, ask what they want to change.
If the user provides a different time, call the %s function. If the user provides a different date, call the %s function.`,
		weekdayOf(d), d, formatTime(t), ActionSubmitConfirmation, ActionSubmitTime, ActionSubmitDate)
}

func (english) booked() string {
	return fmt.Sprintf("Tell the user 'Good bye and thank you for confirming the appointment.' and call the %s function.", ActionEndCall)
}

func (english) notConfirmed() string {
	return "The appointment has not been confirmed. What would you like to modify?"
}

func (english) bookingFailed() string {
	return fmt.Sprintf("The appointment could not be saved in the calendar right now. Apologize and ask the user to confirm again, then call the %s function.", ActionSubmitConfirmation)
}

func (english) calendarUnavailable() string {
	return "The calendar cannot be reached right now. Apologize and ask the user to repeat the date or time in a moment."
}

func (english) languageSwitched(l Language, stage Stage) string {
	if stage == StageInit {
		return fmt.Sprintf("Language has been switched to %s. Ask now for their first name.", l)
	}
	return fmt.Sprintf("Language has been switched to %s. Continue the conversation where it left off.", l)
}

func (english) unsupportedLanguage() string {
	return "I'm sorry, I only speak English and French. Please choose one of the two languages."
}

func (english) actionNotAllowed(a Action, allowed []Action) string {
	return fmt.Sprintf("The %s function cannot be used now. The available functions are: %s.", a, joinActions(allowed))
}

func (english) callEnded() string {
	return "The call has ended."
}

func (english) goodbye() string {
	return "Good bye."
}

type french struct{}

func (french) greeting(p Persona, fallback Language) string {
	return fmt.Sprintf(`Tu es %s, un assistant pour %s. Ton rôle est d'aider à ajouter de futurs rendez-vous. Tu parles avec un appelant inconnu. Tu n'es pas un professionnel de santé et tu ne dois donner aucun conseil médical.
Sois concis et ne fais pas de suppositions sur les valeurs données ; demande toujours une précision si une réponse n'est pas claire. Commence par te présenter et demande à l'appelant s'il préfère l'anglais ou le français.
S'il ne précise pas, considère que la langue est %s et continue dans cette langue. Une fois la langue confirmée, demande le prénom de l'utilisateur et appelle la fonction %s.
Indique que tu parles anglais et français et invite l'utilisateur à changer de langue si besoin. Si l'utilisateur demande à changer de langue, appelle la fonction %s.`,
		p.AssistantName, p.ClinicName, frenchLanguageName(fallback), ActionSubmitFirstName, ActionSwitchLanguage)
}

func (french) askLastName() string {
	return fmt.Sprintf(`Une fois le prénom obtenu, demande le nom de famille.
Si l'utilisateur veut corriger son prénom, redemande-le et appelle la fonction %s avec le nouveau prénom.
Si l'utilisateur donne son nom de famille, appelle la fonction %s.`, ActionSubmitFirstName, ActionSubmitLastName)
}

func (french) firstNameMissing() string {
	return fmt.Sprintf("Le prénom n'a pas été compris. Redemande le prénom de l'utilisateur, puis appelle la fonction %s.", ActionSubmitFirstName)
}

func (french) askReason() string {
	return fmt.Sprintf(`Une fois le nom de famille obtenu, demande le motif du rendez-vous.
Si l'utilisateur veut corriger son nom de famille, redemande-le et appelle la fonction %s avec le nouveau nom.
Si l'utilisateur donne le motif du rendez-vous, appelle la fonction %s.`, ActionSubmitLastName, ActionSubmitReason)
}

func (french) lastNameMissing() string {
	return fmt.Sprintf("Le nom de famille manque. Demande le nom de famille de l'utilisateur, puis appelle la fonction %s.", ActionSubmitLastName)
}

func (french) askDate(today civil.Date) string {
	return fmt.Sprintf(`Merci d'avoir indiqué le motif du rendez-vous. Demande la date souhaitée pour le rendez-vous.
Nous sommes %s, le %s.
Si l'utilisateur donne seulement un jour de la semaine, laisse la date vide et transmets le jour. S'il dit dès que possible, considère que c'est pour aujourd'hui.
Une fois la date obtenue, appelle la fonction %s.`, availability.FrenchWeekday(weekdayOf(today)), today, ActionSubmitDate)
}

func (french) reasonMissing() string {
	return fmt.Sprintf("Le motif du rendez-vous manque. Demande à l'utilisateur pourquoi il souhaite un rendez-vous, puis appelle la fonction %s.", ActionSubmitReason)
}

func (french) askTime(d civil.Date, hours []int) string {
	return fmt.Sprintf("Merci d'avoir indiqué la date du rendez-vous. Demande l'heure souhaitée. Les heures disponibles le %s sont %s. Dis simplement l'heure, par exemple neuf heures. Une fois l'heure obtenue, appelle la fonction %s.",
		d, formatHours(hours), ActionSubmitTime)
}

func (french) dateMissing() string {
	return fmt.Sprintf("Aucune date n'a été donnée. Demande quel jour l'utilisateur souhaite le rendez-vous, puis appelle la fonction %s.", ActionSubmitDate)
}

func (french) dayNotRecognised() string {
	return "Le jour n'a pas été compris. Demande un jour de la semaine, aujourd'hui, demain ou une date complète."
}

func (french) dayNotInWindow() string {
	return "Impossible de trouver ce jour dans les 7 prochains jours. Demande un autre jour pour le rendez-vous."
}

func (french) dateUnavailable(closest *civil.Date) string {
	msg := "La date indiquée n'est plus possible. Demande une autre date pour le rendez-vous."
	if closest != nil {
		msg += fmt.Sprintf(" La date disponible la plus proche est le %s %s.", availability.FrenchWeekday(weekdayOf(*closest)), *closest)
	}
	return msg
}

func (french) timeMissing() string {
	return fmt.Sprintf("Aucune heure n'a été donnée. Demande l'heure du rendez-vous, puis appelle la fonction %s.", ActionSubmitTime)
}

func (french) timeNeedsDate() string {
	return fmt.Sprintf("Il faut une date avant de vérifier une heure. Demande la date, puis appelle la fonction %s.", ActionSubmitDate)
}

func (french) timeUnavailable() string {
	return "L'heure indiquée n'est pas disponible. Demande une autre heure pour le rendez-vous."
}

func (french) confirmSlot(d civil.Date, t civil.Time) string {
	return fmt.Sprintf(`Merci d'avoir indiqué l'heure. Le rendez-vous est prévu le %s %s à %dh%02d. Demande de confirmer par oui ou non.
Si l'utilisateur confirme, appelle la fonction %s. Sinon, demande ce qu'il souhaite modifier.
S'il donne une autre heure, appelle la fonction %s. S'il donne une autre date, appelle la fonction %s.`,
		availability.FrenchWeekday(weekdayOf(d)), d, t.Hour, t.Minute, ActionSubmitConfirmation, ActionSubmitTime, ActionSubmitDate)
}

func (french) booked() string {
	return fmt.Sprintf("Dis à l'utilisateur « Au revoir et merci d'avoir confirmé le rendez-vous. » puis appelle la fonction %s.", ActionEndCall)
}

func (french) notConfirmed() string {
	return "Le rendez-vous n'a pas été confirmé. Que souhaitez-vous modifier ?"
}

func (french) bookingFailed() string {
	return fmt.Sprintf("Le rendez-vous n'a pas pu être enregistré dans le calendrier pour le moment. Excuse-toi et demande à l'utilisateur de confirmer à nouveau, puis appelle la fonction %s.", ActionSubmitConfirmation)
}

func (french) calendarUnavailable() string {
	return "Le calendrier est injoignable pour le moment. Excuse-toi et demande à l'utilisateur de répéter la date ou l'heure dans un instant."
}

func (french) languageSwitched(l Language, stage Stage) string {
	if stage == StageInit {
		return fmt.Sprintf("La langue est maintenant %s. Demande maintenant le prénom de l'utilisateur.", frenchLanguageName(l))
	}
	return fmt.Sprintf("La langue est maintenant %s. Reprends la conversation là où elle s'était arrêtée.", frenchLanguageName(l))
}

func (french) unsupportedLanguage() string {
	return "Désolé, je parle seulement anglais et français. Merci de choisir l'une des deux langues."
}

func (french) actionNotAllowed(a Action, allowed []Action) string {
	return fmt.Sprintf("La fonction %s n'est pas disponible maintenant. Les fonctions disponibles sont : %s.", a, joinActions(allowed))
}

func (french) callEnded() string {
	return "L'appel est terminé."
}

func (french) goodbye() string {
	return "Au revoir."
}

func frenchLanguageName(l Language) string {
	if l == LanguageEnglish {
		return "l'anglais"
	}
	return "le français"
}
