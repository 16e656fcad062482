package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/render/sheet"
	"github.com/matzehuels/lovecontract/pkg/session"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorRose   = lipgloss.Color("204") // Rose - primary actions
	colorWine   = lipgloss.Color("125") // Wine - signature ink
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorRose)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorRose)

	// StyleInk for drawn signature cells.
	StyleInk = lipgloss.NewStyle().Foreground(colorWine).Bold(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorRose)

	styleSigned   = lipgloss.NewStyle().Foreground(colorGreen)
	styleUnsigned = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconHeart   = "♥"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Contract Display
// =============================================================================

// signatureStatus describes one slot in a single line.
func signatureStatus(sig contract.Signature) string {
	if !sig.Signed() || sig.SignedAt == nil {
		return styleUnsigned.Render("unsigned")
	}
	return styleSigned.Render("signed " + sig.SignedAt.Local().Format(sheet.DateLayout+" 15:04"))
}

// acceptanceStatus describes the acceptance flag in a single line.
func acceptanceStatus(a contract.Acceptance) string {
	if !a.Accepted {
		return styleUnsigned.Render("pending")
	}
	s := "accepted"
	if a.AcceptedAt != nil {
		s += " " + a.AcceptedAt.Local().Format(sheet.DateLayout+" 15:04")
	}
	return StyleHighlight.Render(iconHeart + " " + s)
}

// printDocument prints the contract status block.
func printDocument(doc contract.Document) {
	fmt.Println(StyleTitle.Render(sheet.Title))
	for _, slot := range contract.Slots {
		printKeyValue(slot.Party(), signatureStatus(doc.Signature(slot)))
	}
	printKeyValue("Proposal", acceptanceStatus(doc.Acceptance))
}

// printResult reports a persistence result. A kept-in-memory failure is a
// warning; everything else is returned as an error by the caller.
func printResult(res session.Result, success string) {
	if res.OK() {
		printSuccess("%s", success)
		return
	}
	if res.RolledBack {
		printError("%s failed and was rolled back", res.Op)
		return
	}
	printWarning("%s was not persisted", res.Op)
}

// printNotices prints pending session notices.
func printNotices(notices []session.Notice) {
	for _, n := range notices {
		printWarning("%s %s: %s", n.At.Local().Format(time.Kitchen), n.Op, n.Message)
	}
}
