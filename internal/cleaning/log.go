package cleaning

// Operation names a cleaning step recorded in the log.
type Operation string

const (
	OpRemoveDuplicates Operation = "remove_duplicates"
	OpDropMissing      Operation = "drop_missing"
	OpFillMissing      Operation = "fill_missing"
	OpTrimWhitespace   Operation = "trim_whitespace"
	OpNormalizeCase    Operation = "normalize_case"
	OpParseDates       Operation = "parse_dates"
	OpParseDateError   Operation = "parse_date_error"
)

// Entry records one applied operation.
type Entry struct {
	Operation Operation      `json:"operation"`
	Details   map[string]any `json:"details"`
}

// Log lists applied operations in application order.
type Log []Entry

func (l *Log) add(op Operation, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	*l = append(*l, Entry{Operation: op, Details: details})
}

// Operations returns the operation names in order.
func (l Log) Operations() []Operation {
	ops := make([]Operation, len(l))
	for i, e := range l {
		ops[i] = e.Operation
	}
	return ops
}
