package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/juriscalc/payment-bridge/internal/errs"
)

// errorLabel names the failure class in the response body without
// leaking internals.
func errorLabel(err error) string {
	var e *errs.Error
	if !errors.As(err, &e) {
		return "Internal error"
	}
	switch e.Kind {
	case errs.KindValidation:
		return "Invalid request"
	case errs.KindConfiguration:
		return "Service misconfigured"
	case errs.KindGatewayRejected:
		return "Payment rejected by gateway"
	case errs.KindTransient:
		return "Gateway unavailable"
	case errs.KindAuthentication:
		return "Signature verification failed"
	}
	return "Internal error"
}

// respondError writes the structured {error, details, timestamp} body.
// Error messages in this codebase never carry secrets, so the message
// is safe to surface.
func respondError(c *gin.Context, err error) {
	var details string
	var e *errs.Error
	if errors.As(err, &e) {
		details = e.Message
	} else {
		details = "unexpected internal error"
	}

	c.JSON(errs.StatusFor(err), gin.H{
		"error":     errorLabel(err),
		"details":   details,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
