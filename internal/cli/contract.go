package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lovecontract/pkg/canvas"
	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/render/sheet"
	"github.com/matzehuels/lovecontract/pkg/session"
	"github.com/matzehuels/lovecontract/pkg/store"
)

// slotArgs lists the accepted slot names for completion.
var slotArgs = []string{"a", "b", "vik", "shalom"}

// =============================================================================
// show
// =============================================================================

// showCommand creates the show command.
func (c *CLI) showCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show who has signed and whether the proposal was accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := c.readDocument(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc.Record())
			}
			printDocument(doc)
			switch {
			case !doc.BothSigned():
				printNextStep("Sign", appName+" sign <a|b> --strokes strokes.json")
			case !doc.Acceptance.Accepted:
				printNextStep("Accept the proposal", appName+" accept")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored record as JSON")

	return cmd
}

// readDocument reads the record straight from the store. A missing record
// is an empty contract.
func (c *CLI) readDocument(ctx context.Context) (contract.Document, error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return contract.Document{}, err
	}
	defer st.Close()

	doc, err := st.Read(ctx, c.Config.Store.Key)
	if store.IsNotFound(err) {
		return contract.NewDocument(c.Config.Store.Key), nil
	}
	return doc, err
}

// =============================================================================
// sign
// =============================================================================

type strokesFile struct {
	Strokes [][]canvas.Point `json:"strokes"`
}

// signCommand creates the sign command.
func (c *CLI) signCommand() *cobra.Command {
	var strokesPath, imagePath string

	cmd := &cobra.Command{
		Use:   "sign <slot>",
		Short: "Sign a slot from a strokes file or an image",
		Long: `Sign a slot from a strokes file or an image.

The slot is "a" (Vik) or "b" (Shalom). A strokes file is JSON in the same
shape the HTTP API accepts:

  {"strokes": [[{"x": 10, "y": 10}, {"x": 60, "y": 40}], ...]}

Coordinates are pixels on the 600x300 signing pad. An image is scaled down
to fit the pad. A signed slot must be cleared before it can be signed again.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: slotArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := contract.ParseSlot(args[0])
			if err != nil {
				return err
			}
			if (strokesPath == "") == (imagePath == "") {
				return errors.New(errors.ErrCodeInvalidInput, "pass exactly one of --strokes or --image")
			}
			return c.runSign(cmd.Context(), slot, strokesPath, imagePath)
		},
	}

	cmd.Flags().StringVar(&strokesPath, "strokes", "", "JSON file with strokes to draw")
	cmd.Flags().StringVar(&imagePath, "image", "", "image file to use as the signature")

	return cmd
}

func (c *CLI) runSign(ctx context.Context, slot contract.Slot, strokesPath, imagePath string) error {
	var (
		strokes [][]canvas.Point
		img     image.Image
		err     error
	)
	if strokesPath != "" {
		strokes, err = readStrokes(strokesPath)
	} else {
		img, err = readSignatureImage(imagePath)
	}
	if err != nil {
		return err
	}

	coord, closeAll, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeAll()

	opened, err := coord.OpenCapture(slot)
	if err != nil {
		return err
	}
	if !opened {
		return errors.New(errors.ErrCodeAlreadySigned, "%s has already signed; run '%s clear %s' first", slot.Party(), appName, slot)
	}

	if img != nil {
		err = coord.PasteCapture(img)
	}
	for _, stroke := range strokes {
		if err != nil {
			break
		}
		err = coord.Stroke(stroke)
	}
	if err != nil {
		coord.CancelCapture()
		return err
	}

	res := coord.SaveCapture(ctx)
	printResult(res, slot.Party()+" signed")
	if !res.OK() {
		return res.Err
	}
	if coord.Snapshot().CelebrationReachable() {
		printInfo("Both parties have signed %s", iconHeart)
		printNextStep("Accept the proposal", appName+" accept")
	}
	return nil
}

func readStrokes(path string) ([][]canvas.Point, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read strokes %s", path)
	}
	var f strokesFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse strokes %s", path)
	}
	points := 0
	for _, s := range f.Strokes {
		points += len(s)
	}
	if points == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s contains no points", path)
	}
	return f.Strokes, nil
}

// readSignatureImage loads an image and shrinks it to fit the signing pad.
func readSignatureImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "open image %s", path)
	}
	b := img.Bounds()
	if b.Dx() > contract.CaptureWidth || b.Dy() > contract.CaptureHeight {
		img = imaging.Fit(img, contract.CaptureWidth, contract.CaptureHeight, imaging.Lanczos)
	}
	return img, nil
}

// =============================================================================
// clear / accept
// =============================================================================

// clearCommand creates the clear command.
func (c *CLI) clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "clear <slot>",
		Short:     "Clear a signature",
		Args:      cobra.ExactArgs(1),
		ValidArgs: slotArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := contract.ParseSlot(args[0])
			if err != nil {
				return err
			}
			return c.withSession(cmd.Context(), func(ctx context.Context, coord *session.Coordinator) session.Result {
				return coord.ClearSlot(ctx, slot)
			}, fmt.Sprintf("Cleared %s's signature", slot.Party()))
		},
	}
}

// acceptCommand creates the accept command.
func (c *CLI) acceptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accept",
		Short: "Accept the proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(ctx context.Context, coord *session.Coordinator) session.Result {
				return coord.Accept(ctx)
			}, "Proposal accepted "+iconHeart)
		},
	}
}

// withSession runs one persistence call on a fresh coordinator.
func (c *CLI) withSession(ctx context.Context, fn func(context.Context, *session.Coordinator) session.Result, success string) error {
	coord, closeAll, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeAll()

	res := fn(ctx, coord)
	printResult(res, success)
	return res.Err
}

// =============================================================================
// export
// =============================================================================

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		width int
		title string
	)

	cmd := &cobra.Command{
		Use:   "export <out.png>",
		Short: "Write the printable contract as a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateExportPath(args[0]); err != nil {
				return err
			}
			var opts []sheet.Option
			if width > 0 {
				opts = append(opts, sheet.WithWidth(width))
			}
			if title != "" {
				opts = append(opts, sheet.WithTitle(title))
			}
			return c.runExport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().IntVar(&width, "width", sheet.DefaultWidth, "page width in pixels")
	cmd.Flags().StringVar(&title, "title", "", "page title (default \""+sheet.Title+"\")")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, out string, opts []sheet.Option) error {
	prog := newProgress(c.Logger)

	spinner := newSpinner(ctx, os.Stderr, "Rendering contract...")
	spinner.Start()

	doc, err := c.readDocument(ctx)
	if err != nil {
		spinner.StopWithError("Could not read the contract")
		return err
	}
	in, err := sheet.FromDocument(ctx, doc)
	if err != nil {
		spinner.StopWithError("A stored signature is unreadable")
		return err
	}
	page := sheet.Render(in, opts...)
	spinner.Stop()

	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", out)
	}
	if err := sheet.Encode(f, page); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", out)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", out)
	}

	prog.done("Rendered contract")
	printSuccess("Exported contract")
	printFile(out)
	return nil
}
