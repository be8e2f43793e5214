package services

import "log"

// SMSSender is the seam for the external SMS provider. The provider itself
// lives outside this service; deployments plug a real implementation in
// here.
type SMSSender interface {
	Send(phoneNumbers []string, message string) error
}

// LogSMSSender records outbound alerts without contacting a provider
type LogSMSSender struct{}

func (LogSMSSender) Send(phoneNumbers []string, message string) error {
	for _, number := range phoneNumbers {
		log.Printf("SMS to %s: %s", number, message)
	}
	return nil
}
