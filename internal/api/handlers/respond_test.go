package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nikhilbhutani/docchat/internal/models"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: empty file", models.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("document x: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrInProgress, http.StatusConflict},
		{models.ErrStaleRun, http.StatusConflict},
		{fmt.Errorf("%w: timeout", models.ErrAnalysisService), http.StatusBadGateway},
		{fmt.Errorf("%w: 403", models.ErrDownload), http.StatusBadGateway},
		{fmt.Errorf("%w: conn reset", models.ErrPersistence), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
