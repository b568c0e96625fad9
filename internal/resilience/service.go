package resilience

import "fmt"

// Service identifies one of the external dependencies the pipeline calls.
// The set is closed: every outbound call site names one of these, never a
// free-form string, so circuit state and metrics stay bounded.
type Service string

const (
	// ServiceSportsData is the fixtures/results REST API.
	ServiceSportsData Service = "sports-data"

	// ServiceInference is the batch LLM-inference API used for predictions.
	ServiceInference Service = "inference"

	// ServiceContent is the long-form LLM-content API used for articles.
	ServiceContent Service = "content"
)

// Services lists every known service.
func Services() []Service {
	return []Service{ServiceSportsData, ServiceInference, ServiceContent}
}

// ParseService validates a service name from configuration or storage.
func ParseService(s string) (Service, error) {
	switch Service(s) {
	case ServiceSportsData, ServiceInference, ServiceContent:
		return Service(s), nil
	}
	return "", fmt.Errorf("unknown service %q", s)
}
