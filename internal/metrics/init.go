package metrics

// Outcome labels used by ConversionsTotal and ConversionDuration. They
// mirror transcoder.Kind values.
var outcomeLabels = []string{
	"success", "script_failure", "missing_output", "timeout", "launch_failure",
}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, outcome := range outcomeLabels {
		ConversionsTotal.WithLabelValues(outcome)
		ConversionDuration.WithLabelValues(outcome)
	}

	for _, reason := range []string{"missing_file", "too_large", "bad_form", "stage_error", "busy"} {
		UploadsRejectedTotal.WithLabelValues(reason)
	}

	for _, reason := range []string{"client_gone", "write_timeout", "io_error"} {
		StreamErrorsTotal.WithLabelValues(reason)
	}

	for _, kind := range []string{"input", "output"} {
		CleanupErrorsTotal.WithLabelValues(kind)
	}
}
