package report

import _ "embed"

// JSONSchema is the draft-07 JSON schema of the structured report
//
//go:embed report.schema.json
var JSONSchema []byte
