package errors

// Reporter logs standardized errors at record granularity. Scan failures
// never propagate past the scheduler boundary, so logging is the only sink.
type Reporter struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewReporter(logger Logger) *Reporter {
	return &Reporter{logger: logger}
}

// Report normalizes and logs an error together with caller-supplied context
// fields. Non-retryable lookup misses log at warn, everything else at error.
func (r *Reporter) Report(err error, fields map[string]interface{}) {
	stdErr := Normalize(err)

	out := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	for k, v := range stdErr.Metadata {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}

	if stdErr.Code == ErrCodeOwnerNotFound || stdErr.Code == ErrCodeScanOverlap {
		r.logger.Warn(stdErr.Message, out)
		return
	}
	r.logger.Error(stdErr.Message, out)
}
