// Package cvproc composes entitlement checks, the AI collaborator, reply
// normalization and session budgeting into the CV processing pipeline.
package cvproc

import (
	"strings"
)

// BannerHeading identifies the demo watermark; tests assert on it.
const BannerHeading = "WERSJA DEMO - CV OPTIMIZER PRO"

var demoBanner = "\n\n" + strings.Repeat("=", 60) + "\n" +
	"🔒 " + BannerHeading + "\n" +
	"Aby otrzymać pełną wersję CV bez znaku wodnego,\n" +
	"dokonaj płatności 9,99 PLN\n" +
	strings.Repeat("=", 60) + "\n"

// ApplyWatermark wraps the result with the demo banner before and after the
// content unless the caller is entitled (paid, premium or developer). It is
// applied at most once per response by the orchestrator.
func ApplyWatermark(result string, entitled bool) string {
	if entitled {
		return result
	}
	return demoBanner + result + demoBanner
}
