// Package validation checks ledger and report settings and phrases the
// warnings shown for them.
package validation

import (
	"fmt"

	"github.com/iwvelando/zakatease/pkg/constants"
)

// ValidateOutputFormat checks that format names one of the report writers.
// Names are matched exactly, so "CSV" is rejected.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV:
		return nil
	default:
		return fmt.Errorf("expected output format of %s or %s, got %q",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
}
