// Package render groups the raster outputs of the contract.
//
// The only renderer today is [sheet], which lays out the printable page: the
// clauses, both signature boxes with their signed-on captions and, once the
// proposal is accepted, a stamp. The page is an in-memory image so the CLI
// export command and the HTTP print endpoint share one code path:
//
//	in, err := sheet.FromDocument(ctx, doc)
//	page := sheet.Render(in, sheet.WithWidth(1200))
//	err = sheet.Encode(w, page)
//
// [sheet]: github.com/matzehuels/lovecontract/pkg/render/sheet
package render
