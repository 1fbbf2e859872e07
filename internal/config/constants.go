package config

// DefaultRegion is the region assumed when none is configured.
const DefaultRegion = "us-east-1"

// DefaultService is the subscription service whose logs are consumed.
// The other accepted value is "Kiro".
const DefaultService = "QDeveloper"

// ReportFileSuffix is the suffix every usage report object key carries.
const ReportFileSuffix = ".csv"

// DefaultPrefixTemplate is the object-store prefix the daily reports are
// written under. {account_id} and {service} are replaced at load time.
const DefaultPrefixTemplate = "daily-report/AWSLogs/{account_id}/{service}Logs/by_user_analytic/"

// SupportedRegions maps region codes to their human-readable labels.
var SupportedRegions = map[string]string{
	"us-east-1":      "US East (N. Virginia)",
	"us-west-2":      "US West (Oregon)",
	"eu-central-1":   "Europe (Frankfurt)",
	"ap-northeast-1": "Asia Pacific (Tokyo)",
	"ap-northeast-2": "Asia Pacific (Seoul)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
}
