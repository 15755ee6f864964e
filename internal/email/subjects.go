package email

const (
	subjectWelcome          = "Welcome to Kejani"
	subjectBookingRequested = "New viewing request"
	subjectBookingStatusFmt = "Your viewing has been %s"
	subjectBookingReminder  = "Reminder: your viewing is coming up"
	subjectPaymentReceipt   = "Payment received"
	subjectAgentVerified    = "Your agent profile is verified"
)
