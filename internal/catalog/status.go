package catalog

// Status is the publication state of a catalog record.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusPublished  Status = "published"
	StatusWarning    Status = "warning"
	StatusError      Status = "error"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusProcessing, StatusPublished, StatusWarning, StatusError}

// OrDefault returns s, or StatusProcessing when s is empty.
func (s Status) OrDefault() Status {
	if s == "" {
		return StatusProcessing
	}
	return s
}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}
