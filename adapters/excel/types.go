package excel

// SheetData is a header row plus the data rows of a catalog sheet, keyed by header
type SheetData struct {
	Headers []string
	Rows    []RawRowData
}

// RawRowData represents a single row keyed by trimmed header
type RawRowData map[string]string

// Accepted header spellings per column, compared case-insensitively
var (
	labelHeaders       = []string{"setting", "label", "設定"}
	probabilityHeaders = []string{"probability", "success_probability", "p", "確率"}
	priorHeaders       = []string{"prior", "prior_probability", "事前確率"}
)
