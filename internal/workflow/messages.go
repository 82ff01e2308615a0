package workflow

import (
	"fmt"

	domerrors "github.com/FlockCS/BookClub/internal/errors"
)

// User-visible replies.
const (
	msgBookAlreadySet     = "📚 A current book has been set for this server! Please use /current to see it!"
	msgSelectionExpired   = "⌛ These search results have expired. Please use /search again."
	msgNoPending          = "❗ No book selected to save. Please try again."
	msgInvalidDate        = "❌ Please enter a valid future date in MM-DD-YYYY format."
	msgEmptyAssignment    = "❌ Please enter the pages or chapters to read."
	msgNothingToSchedule  = "❗ No current book found to reschedule."
	msgVersionConflict    = "❗ The current book was just changed by someone else. Please use /current and try again."
	msgConfirmDelete      = "⚠️ Are you sure you want to delete the current book?"
	msgCancelledDelete    = "❌ Cancelled deletion of the current book."
	msgNothingToDelete    = "❗ No current book found to delete."
	msgNothingToFinish    = "❗ No current book found to finish."
	msgForbiddenFormat    = "❌ Sorry <@%s>, You don't have permission to %s the current book."
	msgScheduledFormat    = "✅ Book '%s' scheduled for discussion on %s!"
	msgRescheduledFormat  = "✅ %s has been rescheduled from %s to %s and from %s to %s!"
	msgDeletedFormat      = "✅ Book %s by %s has been removed from current reading!"
	msgFinishedFormat     = "✅ Book %s by %s has been finished! Congratulations! 🎉"
	modalNewPrefix        = "Plan Discussion for "
	modalReschedulePrefix = "Reschedule Discussion for "
)

var (
	errBookAlreadySet = domerrors.NewUserError(domerrors.KindStateConflict, domerrors.ErrBookExists, msgBookAlreadySet)
	errSelection      = domerrors.NewUserError(domerrors.KindValidation, domerrors.ErrSelectionExpired, msgSelectionExpired)
	errNoPending      = domerrors.NewUserError(domerrors.KindValidation, domerrors.ErrNoPendingSelection, msgNoPending)
	errInvalidDate    = domerrors.NewUserError(domerrors.KindValidation, domerrors.ErrInvalidDate, msgInvalidDate)
	errNoAssignment   = domerrors.NewUserError(domerrors.KindValidation, domerrors.ErrEmptyAssignment, msgEmptyAssignment)
	errNoCurrentBook  = domerrors.NewUserError(domerrors.KindStateConflict, domerrors.ErrNotFound, msgNothingToSchedule)
	errConflict       = domerrors.NewUserError(domerrors.KindStateConflict, domerrors.ErrVersionConflict, msgVersionConflict)
	errNothingDelete  = domerrors.NewUserError(domerrors.KindStateConflict, domerrors.ErrNothingToDelete, msgNothingToDelete)
	errNothingFinish  = domerrors.NewUserError(domerrors.KindStateConflict, domerrors.ErrNothingToFinish, msgNothingToFinish)
)

func errForbidden(userID, action string) error {
	return domerrors.NewUserError(domerrors.KindPermission, domerrors.ErrForbidden,
		fmt.Sprintf(msgForbiddenFormat, userID, action))
}
