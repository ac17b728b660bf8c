package email

const (
	subjectHotLeadAlertFmt     = "Lead caldo: %s (%d punti)"
	subjectFollowUpReminderFmt = "Promemoria: ricontatta %s"
)
