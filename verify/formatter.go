package verify

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/anchorageoss/haloverify/signature"
)

// Formatter formats verification results for display
type Formatter struct{}

// NewFormatter creates a new formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatPass returns the one-line success report
// "PASS counter=<decimal>; public_key=<hex>".
func (f *Formatter) FormatPass(result *Result) string {
	return fmt.Sprintf("PASS counter=%d; public_key=%s", result.Counter, hex.EncodeToString(result.PublicKey))
}

// FormatJSON formats a verification result for JSON output
func (f *Formatter) FormatJSON(result *Result) map[string]interface{} {
	return map[string]interface{}{
		"valid":     true,
		"counter":   result.Counter,
		"publicKey": hex.EncodeToString(result.PublicKey),
		"slot":      fmt.Sprintf("%02x", result.Key.Slot),
		"flags":     fmt.Sprintf("%02x", result.Key.Flags),
		"nonce":     hex.EncodeToString(result.Nonce),
		"signature": hex.EncodeToString(result.Signature),
	}
}

// FormatBatchJSON formats one batch item. Failed items carry the error text.
func (f *Formatter) FormatBatchJSON(r BatchResult) map[string]interface{} {
	output := map[string]interface{}{
		"index": r.Index,
	}
	if r.ID != "" {
		output["id"] = r.ID
	}

	if r.Err != nil {
		output["valid"] = false
		output["error"] = r.Err.Error()
		return output
	}

	for k, v := range f.FormatJSON(r.Result) {
		output[k] = v
	}
	return output
}

// FormatSignature describes a decoded rndsig: the raw pair, the corrected r
// and both re-encodings.
func (f *Formatter) FormatSignature(raw signature.Signature, canonical, fixed []byte) string {
	var sb strings.Builder

	corrected := signature.Correct(raw.R)
	sb.WriteString(fmt.Sprintf("r:           %x\n", raw.R))
	sb.WriteString(fmt.Sprintf("s:           %x\n", raw.S))
	sb.WriteString(fmt.Sprintf("r mod n:     %x", corrected))
	if corrected.Cmp(raw.R) != 0 {
		sb.WriteString(" (corrected)")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("low S:       %t\n", signature.IsLowS(raw.S)))
	sb.WriteString(fmt.Sprintf("canonical:   %s\n", hex.EncodeToString(canonical)))
	sb.WriteString(fmt.Sprintf("fixed:       %s\n", hex.EncodeToString(fixed)))

	return sb.String()
}
