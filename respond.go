package main

import (
	"errors"
	"fmt"
	"net/http"

	"oracle/pkg/forecast"
	"oracle/pkg/sales"
	"oracle/pkg/store"

	"github.com/gin-gonic/gin"
)

const fileNotFoundMsg = "File not found. Please upload it again."

// abortDetail writes the {"detail": msg} error body used by every endpoint.
func abortDetail(c *gin.Context, status int, msg string) {
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

// respondError maps an error kind to its status and message. Unknown errors are logged as 500s.
func (s *server) respondError(c *gin.Context, err error) {
	var ve *sales.ValidationError
	var fe *sales.FormatError
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		abortDetail(c, http.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, ErrInvalidToken):
		abortDetail(c, http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, ErrMissingCredentials):
		abortDetail(c, http.StatusBadRequest, "Email and password are required.")
	case errors.Is(err, ErrDuplicateUser):
		abortDetail(c, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, sales.ErrInvalidFileType):
		abortDetail(c, http.StatusBadRequest, "Invalid file type. Please upload a CSV file.")
	case errors.As(err, &ve):
		abortDetail(c, http.StatusBadRequest, "CSV Validation Error: "+ve.Msg)
	case errors.Is(err, store.ErrInvalidKey):
		abortDetail(c, http.StatusBadRequest, "Invalid filename.")
	case errors.Is(err, store.ErrNotFound):
		abortDetail(c, http.StatusNotFound, fileNotFoundMsg)
	case errors.As(err, &fe):
		abortDetail(c, http.StatusBadRequest, "Stored file could not be parsed: "+fe.Error())
	case errors.Is(err, forecast.ErrProductNotFound):
		abortDetail(c, http.StatusNotFound, fmt.Sprintf("Product ID '%s' not found.", productIDFrom(c)))
	case errors.Is(err, forecast.ErrInsufficientData):
		abortDetail(c, http.StatusBadRequest, fmt.Sprintf("Not enough data. A minimum of %d data points is required.", forecast.MinHistory))
	default:
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		abortDetail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func productIDFrom(c *gin.Context) string {
	if id := c.Param("product_id"); id != "" {
		return id
	}
	return c.Query("product_id")
}
