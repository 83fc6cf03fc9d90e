package awscloud

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/cloudmasa/engine/internal/errdefs"
)

// mapAPIError classifies AWS API failures so callers can distinguish
// missing resources and credential problems from generic API errors.
func mapAPIError(step string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ResourceNotFoundException":
			return errdefs.NotFound("%s: %s", step, apiErr.ErrorMessage())
		case "InvalidSignatureException", "UnrecognizedClientException":
			return errdefs.Credential(fmt.Sprintf("%s: invalid cloud credentials", step), err)
		case "AccessDeniedException", "UnauthorizedOperation":
			return errdefs.Credential(fmt.Sprintf("%s: cloud permissions denied", step), err)
		}
	}
	return errdefs.CloudAPI(step, err)
}
