// Package utils provides common utility functions.
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psd2hub/consent-cms/internal/system/constants"
	"github.com/psd2hub/consent-cms/internal/system/error/apierror"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
)

// SendError writes a ServiceError as an HTTP response with the appropriate
// status code.
func SendError(c *gin.Context, err *serviceerror.ServiceError) {
	statusCode := http.StatusInternalServerError
	if err.Type == serviceerror.ClientErrorType {
		if err.Code == serviceerror.LogicalError.Code {
			statusCode = http.StatusNotFound
		} else {
			statusCode = http.StatusBadRequest
		}
	}

	c.JSON(statusCode, apierror.NewErrorResponse(err.Error, err.ErrorDescription))
}

// GetInstanceID resolves the bank instance id from the request headers,
// falling back to the shared default partition.
func GetInstanceID(c *gin.Context) string {
	instanceID := c.GetHeader(constants.InstanceIDHeaderName)
	if instanceID == "" {
		return constants.DefaultInstanceID
	}
	return instanceID
}
