// Package sheet renders the contract as a printable PNG page.
//
// The page shows a title, the contract clauses, one signature block per
// party with the display-size signature (or an empty line) and its signed-at
// date, and an acceptance stamp once the contract is accepted.
//
//	in, err := sheet.FromDocument(ctx, doc)
//	img := sheet.Render(in)
//	err = sheet.Encode(w, img)
package sheet
