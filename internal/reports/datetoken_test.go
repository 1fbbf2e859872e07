package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractReportDate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     time.Time
		wantErr  bool
	}{
		{
			name:     "standard report filename",
			filename: "123456789012_by_user_analytic_202510200000_report.csv",
			want:     time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "date is first 8 digits of the token",
			filename: "acct_usage_202511241530_report.csv",
			want:     time.Date(2025, 11, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "first 12-digit token wins",
			filename: "a_202501010000_202502020000_report.csv",
			want:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "no token",
			filename: "readme.csv",
			wantErr:  true,
		},
		{
			name:     "token too short",
			filename: "acct_usage_20251020_report.csv",
			wantErr:  true,
		},
		{
			name:     "token too long",
			filename: "acct_usage_2025102000001_report.csv",
			wantErr:  true,
		},
		{
			name:     "token not delimited on the right",
			filename: "acct_usage_202510200000.csv",
			wantErr:  true,
		},
		{
			name:     "token not numeric",
			filename: "acct_usage_2025102000ab_report.csv",
			wantErr:  true,
		},
		{
			name:     "invalid month",
			filename: "acct_usage_202513200000_report.csv",
			wantErr:  true,
		},
		{
			name:     "invalid day",
			filename: "acct_usage_202502300000_report.csv",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractReportDate(tt.filename)
			if tt.wantErr {
				require.Error(t, err)
				var tokenErr *DateTokenError
				assert.ErrorAs(t, err, &tokenErr)
				assert.Equal(t, tt.filename, tokenErr.Filename)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}
