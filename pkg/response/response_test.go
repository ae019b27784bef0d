package response

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GeoAttend/pkg/errors"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.InvalidInput, http.StatusBadRequest},
		{errors.InvalidInput.WithMessage("latitude out of range"), http.StatusBadRequest},
		{fmt.Errorf("evaluate: %w", errors.ScheduleNotFound), http.StatusNotFound},
		{errors.Unauthorized, http.StatusUnauthorized},
		{errors.Forbidden, http.StatusForbidden},
		{errors.TooManyRequests, http.StatusTooManyRequests},
		{errors.UserAlreadyExists, http.StatusConflict},
		{errors.CourseAlreadyExists, http.StatusConflict},
		{fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestErrorHidesInternalMessage(t *testing.T) {
	c := app.NewContext(0)
	Error(context.Background(), c, fmt.Errorf("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, c.Response.StatusCode())

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(c.Response.Body(), &body))
	assert.Equal(t, errors.Internal.Code, body.Error.Code)
	assert.NotContains(t, body.Error.Message, "password")
}

func TestErrorKeepsBusinessCode(t *testing.T) {
	c := app.NewContext(0)
	Error(context.Background(), c, fmt.Errorf("lookup: %w", errors.ScheduleNotFound))

	assert.Equal(t, http.StatusNotFound, c.Response.StatusCode())

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(c.Response.Body(), &body))
	assert.Equal(t, "SCHEDULE_NOT_FOUND", body.Error.Code)
}
