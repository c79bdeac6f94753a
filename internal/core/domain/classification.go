package domain

// Classification is the closed set of failure categories. Every failure that
// crosses the remote-operation boundary is assigned exactly one.
type Classification string

const (
	ClassValidation     Classification = "validation"
	ClassNotFound       Classification = "not_found"
	ClassAuthentication Classification = "authentication"
	ClassRateLimited    Classification = "rate_limited"
	ClassServerError    Classification = "server_error"
	ClassNetworkError   Classification = "network_error"
	ClassUnknown        Classification = "unknown"
)

// retryableByDefault marks the classifications worth re-attempting.
// Validation, authentication and not_found failures will not change on retry.
var retryableByDefault = map[Classification]bool{
	ClassRateLimited:  true,
	ClassServerError:  true,
	ClassNetworkError: true,
}

// IsRetryable reports whether the classification is retryable by default.
func (c Classification) IsRetryable() bool {
	return retryableByDefault[c]
}

// Valid reports whether c is a member of the closed set.
func (c Classification) Valid() bool {
	switch c {
	case ClassValidation, ClassNotFound, ClassAuthentication,
		ClassRateLimited, ClassServerError, ClassNetworkError, ClassUnknown:
		return true
	}
	return false
}
