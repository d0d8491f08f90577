// Package schemas embeds the JSON Schema documents for the request surface.
package schemas

import "embed"

// Known schema file names
const (
	LoanApplication = "loan_application.schema.json"
	TrainRequest    = "train_request.schema.json"
)

//go:embed *.schema.json
var FS embed.FS

// Read returns the raw schema document by file name
func Read(name string) ([]byte, error) {
	return FS.ReadFile(name)
}
