// Package constants provides the status values and display symbols shared by
// the check report and its renderers.
package constants

// Line status constants describe the outcome for one major line.
const (
	// StatusUpToDate indicates no newer release exists for the line.
	StatusUpToDate = "UpToDate"

	// StatusUpdate indicates the line's newer release is approved.
	StatusUpdate = "Update"

	// StatusUpdated indicates the update action for the line succeeded.
	StatusUpdated = "Updated"

	// StatusMissingArtifact indicates the newer release has no alternate build yet.
	StatusMissingArtifact = "MissingArtifact"

	// StatusHeld indicates the line is ready but another line blocked the batch.
	StatusHeld = "Held"

	// StatusFailed indicates the update action for the line failed.
	StatusFailed = "Failed"
)

// PlaceholderNA is shown when a value is not available.
const PlaceholderNA = "-"

// Icon constants for status display.
const (
	// IconSuccess marks an up-to-date or updated line.
	IconSuccess = "🟢"

	// IconPending marks an approved line.
	IconPending = "🟡"

	// IconBlocked marks a line without the alternate build.
	IconBlocked = "⛔"

	// IconWarning marks a line held back by another line.
	IconWarning = "🟠"

	// IconError marks a failed action.
	IconError = "❌"

	// IconSecurity marks a security release.
	IconSecurity = "🔒"
)

// StatusIcon returns the icon for a line status, or an empty string.
func StatusIcon(status string) string {
	switch status {
	case StatusUpToDate, StatusUpdated:
		return IconSuccess
	case StatusUpdate:
		return IconPending
	case StatusMissingArtifact:
		return IconBlocked
	case StatusHeld:
		return IconWarning
	case StatusFailed:
		return IconError
	default:
		return ""
	}
}
