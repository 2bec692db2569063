package triage

import "fmt"

var ticketPrefixes = map[string]string{
	SeverityCritical: "P",
	SeverityHigh:     "A",
	SeverityMedium:   "B",
	SeverityLow:      "C",
}

var waitTimes = map[string]string{
	SeverityCritical: "Immediate",
	SeverityHigh:     "5–15 minutes",
	SeverityMedium:   "20–40 minutes",
	SeverityLow:      "45–90 minutes",
}

// TicketPrefix returns the queue letter for a severity label. Unknown
// labels fall into the Low bucket.
func TicketPrefix(severity string) string {
	if p, ok := ticketPrefixes[severity]; ok {
		return p
	}
	return "C"
}

// EstimatedWait returns the displayed wait band for a severity label.
func EstimatedWait(severity string) string {
	if w, ok := waitTimes[severity]; ok {
		return w
	}
	return waitTimes[SeverityLow]
}

// TicketNumber derives the patient's queue ticket. The numeric part is
// offset so tickets never look like raw row ids.
func TicketNumber(severity string, patientID int64) string {
	return fmt.Sprintf("%s%d", TicketPrefix(severity), 1000+patientID)
}
