package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMethodFullName(t *testing.T) {
	cases := []struct {
		name           string
		methodFullName string
		wantService    string
		wantMethod     string
		wantErr        string
	}{
		{
			name:           "standard format",
			methodFullName: "tracker.chaindata.v1.Service.GetBody",
			wantService:    "tracker.chaindata.v1.Service",
			wantMethod:     "GetBody",
		},
		{
			name:           "simple format",
			methodFullName: "service.Method",
			wantService:    "service",
			wantMethod:     "Method",
		},
		{
			name:           "empty string",
			methodFullName: "",
			wantErr:        "method full name is empty",
		},
		{
			name:           "no dot",
			methodFullName: "InvalidMethod",
			wantErr:        "no dot found",
		},
		{
			name:           "empty service",
			methodFullName: ".Method",
			wantErr:        "invalid method full name format",
		},
		{
			name:           "empty method",
			methodFullName: "service.",
			wantErr:        "invalid method full name format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, method, err := ParseMethodFullName(tc.methodFullName)
			if tc.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.wantService, service)
				assert.Equal(t, tc.wantMethod, method)
			}
		})
	}
}
