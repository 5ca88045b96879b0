package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest_ReportsJSONNames(t *testing.T) {
	err := ValidateRequest(CreateWindowRequest{SiteID: "x", StartTime: "25:00"})

	var ve *RequestValidationError
	require.True(t, errors.As(err, &ve))

	fields := map[string]string{}
	for _, f := range ve.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "must be a valid UUID", fields["site_id"])
	assert.Equal(t, "must be HH:MM or HH:MM:SS", fields["start_time"])
	assert.Equal(t, "this field is required", fields["end_time"])
	assert.Contains(t, ve.Details(), "site_id: ")
}

func TestValidateRequest_EmptyCategoryClears(t *testing.T) {
	empty := ""
	assert.NoError(t, ValidateRequest(UpdateSiteRequest{CategoryID: &empty}))

	bad := "x"
	assert.Error(t, ValidateRequest(UpdateSiteRequest{CategoryID: &bad}))
}
