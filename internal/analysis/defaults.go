package analysis

import (
	"fmt"

	"github.com/nikhilbhutani/docchat/internal/models"
)

// Metadata describes the document being analyzed.
type Metadata struct {
	Title    string
	Filename string
	FileType models.FileType
}

// Defaults returns the analysis used for any field the model did not supply.
func Defaults(meta Metadata) models.Analysis {
	name := meta.Filename
	if name == "" {
		name = meta.Title
	}
	return models.Analysis{
		Summary: fmt.Sprintf(
			"This %s document (%s) has been uploaded for review. "+
				"A detailed automatic summary could not be produced from its contents. "+
				"Read the document carefully and note the parties involved and what each of them agrees to do. "+
				"Consider asking a qualified professional about any part that is unclear.",
			fileTypeLabel(meta.FileType), name),
		KeyPoints: []string{
			"Identify every party to the document and their role.",
			"Check the obligations each party takes on.",
			"Note all dates, deadlines and notice periods.",
			"Look for payment amounts, fees and penalties.",
			"Check how the agreement can be ended or renewed.",
		},
		LegalTerms: []models.LegalTerm{
			{Term: "Party", Explanation: "A person or organization that takes part in the agreement and is bound by it."},
			{Term: "Obligation", Explanation: "Something a party is legally required to do under the document."},
			{Term: "Liability", Explanation: "Legal responsibility for losses or damage, often limited or shifted by specific clauses."},
			{Term: "Termination", Explanation: "The ways and conditions under which the agreement can be ended."},
			{Term: "Governing law", Explanation: "The jurisdiction whose laws are used to interpret the document and settle disputes."},
		},
		Warnings: []string{
			"This analysis is general and does not reflect the specific wording of the document.",
			"Do not sign or rely on the document until you have read it in full.",
			"Watch for automatic renewals, penalties and limits on liability.",
			"Seek professional legal advice for important decisions.",
		},
	}
}

func fileTypeLabel(ft models.FileType) string {
	switch ft {
	case models.FileTypePDF:
		return "PDF"
	case models.FileTypeDOCX:
		return "Word (DOCX)"
	case models.FileTypeTXT:
		return "plain text"
	default:
		return "uploaded"
	}
}
