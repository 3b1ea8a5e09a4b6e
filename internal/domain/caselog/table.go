package caselog

// DefaultTable is the table every store adapter writes to unless configured otherwise.
const DefaultTable = "analysis_logs"
