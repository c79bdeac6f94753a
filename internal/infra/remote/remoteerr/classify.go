package remoteerr

import (
	"context"
	"errors"
	"net"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vietddude/crmbridge/internal/core/domain"
)

// networkPatterns are message fragments that mark transport-level failures
// when no status code is available.
var networkPatterns = []string{
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"unexpected eof",
	"eof",
	"tls handshake",
}

// Classify assigns exactly one classification to a raw failure.
//
// Priority order:
//  1. already-classified errors pass through unchanged (idempotent)
//  2. an explicit HTTP status on the error chain
//  3. a gRPC status code, for operations backed by gRPC transports
//  4. network-style message patterns
//  5. unknown
func Classify(err error) domain.Classification {
	if err == nil {
		return domain.ClassUnknown
	}

	var re *RemoteError
	if errors.As(err, &re) {
		return re.Classification
	}

	var se *StatusError
	if errors.As(err, &se) {
		return classifyStatus(se.Status)
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		return classifyGRPCCode(st.Code())
	}

	if isNetworkError(err) {
		return domain.ClassNetworkError
	}

	return domain.ClassUnknown
}

func classifyStatus(code int) domain.Classification {
	switch {
	case code == 401 || code == 403:
		return domain.ClassAuthentication
	case code == 404:
		return domain.ClassNotFound
	case code == 429:
		return domain.ClassRateLimited
	case code >= 400 && code < 500:
		return domain.ClassValidation
	case code >= 500 && code < 600:
		return domain.ClassServerError
	default:
		return domain.ClassUnknown
	}
}

func classifyGRPCCode(code codes.Code) domain.Classification {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange, codes.AlreadyExists:
		return domain.ClassValidation
	case codes.NotFound:
		return domain.ClassNotFound
	case codes.Unauthenticated, codes.PermissionDenied:
		return domain.ClassAuthentication
	case codes.ResourceExhausted:
		return domain.ClassRateLimited
	case codes.Internal, codes.DataLoss:
		return domain.ClassServerError
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
		return domain.ClassNetworkError
	default:
		return domain.ClassUnknown
	}
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range networkPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}
