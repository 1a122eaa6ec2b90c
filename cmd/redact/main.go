// Redact masks personal data on scanned documents.
//
// Usage:
//
//	redact file scan.png -c PERSON,EMAIL -o out.png   # OCR, detect and paint boxes
//	redact file letter.pdf -c PERSON -f pdf          # first page in, one-page PDF out
//	redact lines doc.json                             # regions for pre-recognized lines
//	redact verify manifest.json --signature <hex> --signer <id>
//	redact categories                                 # list requestable categories
package main

import (
	"os"

	"github.com/gonkalabs/gonka-redact-go/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
