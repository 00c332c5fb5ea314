package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/restobar/pos/apperr"
)

func TestStatusForMapsErrorTaxonomy(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(apperr.Validation("stock insuffisant")))
	assert.Equal(t, http.StatusNotFound, StatusFor(apperr.NotFound("order")))
	assert.Equal(t, http.StatusForbidden, StatusFor(apperr.Permission("limite atteinte")))
	assert.Equal(t, http.StatusBadGateway, StatusFor(apperr.Dependency("printer", errors.New("refused"))))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(apperr.Computation("total NaN")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("anything else")))
}

func TestStatusForUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("saving order: %w", apperr.Validation("quantité invalide"))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(wrapped))
}
