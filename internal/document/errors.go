package document

import "fmt"

func errInvalidAnalysisStatus(status string) error {
	return fmt.Errorf("analysis update requires status %q, got %q", "completed", status)
}

func errInvalidStatus(status string) error {
	return fmt.Errorf("invalid status %q for status update", status)
}
