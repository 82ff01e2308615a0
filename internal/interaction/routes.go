package interaction

import "strings"

// Custom IDs of buttons and modals.
const (
	SelectBookPrefix       = "select_book_"
	FinishBookID           = "finish_book"
	RescheduleBookID       = "reschedule_book"
	DeleteBookID           = "delete_book"
	deleteConfirmNoPrefix  = "delete_confirm_no_"
	deleteConfirmYesPrefix = "delete_confirm_yes_"
	rescheduleSuffix       = "_reschedule"

	ScheduleNewModalID        = "select_schedule_new"
	ScheduleRescheduleModalID = "select_schedule" + rescheduleSuffix

	DiscussionDateInputID = "discussion_date"
	AssignmentInputID     = "pages_or_chapters"
)

// DeleteConfirmNoID is the custom ID of the "No" button for guildID.
func DeleteConfirmNoID(guildID string) string { return deleteConfirmNoPrefix + guildID }

// DeleteConfirmYesID is the custom ID of the "Yes" button for guildID.
func DeleteConfirmYesID(guildID string) string { return deleteConfirmYesPrefix + guildID }

// Route is the workflow step an interaction dispatches to.
type Route int

const (
	RouteUnknown Route = iota
	RoutePing
	RouteCommand
	RouteSelectBook
	RouteFinishBook
	RouteRescheduleBook
	RouteDeleteBook
	RouteDeleteCancel
	RouteDeleteConfirm
	RouteCompleteReschedule
	RouteCompleteNew
)

var routeNames = map[Route]string{
	RouteUnknown:            "unknown",
	RoutePing:               "ping",
	RouteCommand:            "command",
	RouteSelectBook:         "select_book",
	RouteFinishBook:         "finish_book",
	RouteRescheduleBook:     "reschedule_book",
	RouteDeleteBook:         "delete_book",
	RouteDeleteCancel:       "delete_cancel",
	RouteDeleteConfirm:      "delete_confirm",
	RouteCompleteReschedule: "complete_reschedule",
	RouteCompleteNew:        "complete_new",
}

// String returns the metric label of r.
func (r Route) String() string {
	if name, ok := routeNames[r]; ok {
		return name
	}
	return "unknown"
}

// Match classifies i. Rules are checked in priority order and matching has
// no side effects.
func Match(i Interaction) Route {
	switch i.Kind {
	case KindPing:
		return RoutePing
	case KindCommand:
		if i.CommandName == "" {
			return RouteUnknown
		}
		return RouteCommand
	case KindUnknown:
		return RouteUnknown
	}

	id := i.CustomID
	switch {
	case strings.HasPrefix(id, SelectBookPrefix):
		return RouteSelectBook
	case id == FinishBookID:
		return RouteFinishBook
	case id == RescheduleBookID:
		return RouteRescheduleBook
	case id == DeleteBookID:
		return RouteDeleteBook
	case id == DeleteConfirmNoID(i.GuildID):
		return RouteDeleteCancel
	case id == DeleteConfirmYesID(i.GuildID):
		return RouteDeleteConfirm
	}

	if i.Kind == KindFormSubmit {
		if strings.HasSuffix(id, rescheduleSuffix) {
			return RouteCompleteReschedule
		}
		return RouteCompleteNew
	}
	return RouteUnknown
}

// SelectedIndex parses the result index from a select_book_{i} custom ID.
// It returns -1 when the suffix is not a non-negative integer.
func SelectedIndex(customID string) int {
	suffix, ok := strings.CutPrefix(customID, SelectBookPrefix)
	if !ok || suffix == "" || len(suffix) > 3 {
		return -1
	}
	n := 0
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
