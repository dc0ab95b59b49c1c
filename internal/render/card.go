// Package render draws roster status cards as PNG images: one card per
// monster with portrait, name, tier, and an HP bar, composed into a grid.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Card layout constants.
const (
	cardWidth    = 360
	cardHeight   = 140
	cardPadding  = 10
	portraitSize = 120
	textAreaX    = cardPadding + portraitSize + 10
)

// CardView is the data one roster card renders.
type CardView struct {
	ID    int
	Name  string
	Rank  string
	Level int
	HP    int
	HPMax int
	// Portrait is optional; a neutral placeholder is drawn when nil.
	Portrait image.Image
}

// Card renders a single roster card.
//
// Postcondition: the result is exactly cardWidth x cardHeight pixels; a dead
// combatant's portrait is grayscaled.
func Card(view CardView) image.Image {
	dc := gg.NewContext(cardWidth, cardHeight)
	dc.SetRGB255(240, 240, 240)
	dc.Clear()

	// border
	dc.SetRGB255(40, 40, 40)
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, cardWidth-2, cardHeight-2)
	dc.Stroke()

	drawPortrait(dc, view)

	dc.SetRGB255(20, 20, 20)
	dc.DrawString(fmt.Sprintf("%s #%d", view.Name, view.ID), textAreaX, 30)
	dc.DrawString(fmt.Sprintf("%s nv%d", view.Rank, view.Level), textAreaX, 52)
	dc.DrawString(fmt.Sprintf("%d/%d", view.HP, view.HPMax), textAreaX, 86)

	drawHPBar(dc, textAreaX, 96, float64(cardWidth-textAreaX-cardPadding), 14, view.HP, view.HPMax)

	return dc.Image()
}

func drawPortrait(dc *gg.Context, view CardView) {
	if view.Portrait == nil {
		dc.SetRGB255(200, 200, 200)
		dc.DrawRectangle(cardPadding, cardPadding, portraitSize, portraitSize)
		dc.Fill()
		return
	}
	portrait := imaging.Fill(view.Portrait, portraitSize, portraitSize, imaging.Center, imaging.Lanczos)
	if view.HP <= 0 {
		portrait = imaging.Grayscale(portrait)
	}
	dc.DrawImage(portrait, cardPadding, cardPadding)
}

// drawHPBar draws a filled proportion bar clamped to [0, 1].
func drawHPBar(dc *gg.Context, x, y, width, height float64, current, maximum int) {
	dc.SetRGB255(60, 60, 60)
	dc.DrawRectangle(x, y, width, height)
	dc.Fill()

	pct := 0.0
	if maximum > 0 {
		pct = float64(current) / float64(maximum)
		if pct < 0 {
			pct = 0
		}
		if pct > 1 {
			pct = 1
		}
	}
	if pct > 0 {
		dc.SetRGB255(50, 205, 50)
		dc.DrawRectangle(x, y, width*pct, height)
		dc.Fill()
	}

	dc.SetRGB255(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, width, height)
	dc.Stroke()
}

// Grid composes cards into rows of the given column count.
//
// Precondition: columns must be >= 1.
// Postcondition: returns nil when cards is empty.
func Grid(cards []image.Image, columns int) image.Image {
	if columns < 1 {
		panic("render.Grid: precondition violated: columns must be >= 1")
	}
	if len(cards) == 0 {
		return nil
	}
	rows := (len(cards) + columns - 1) / columns
	cols := columns
	if len(cards) < columns {
		cols = len(cards)
	}
	dc := gg.NewContext(cols*cardWidth, rows*cardHeight)
	dc.SetRGB255(255, 255, 255)
	dc.Clear()
	for i, card := range cards {
		x := (i % columns) * cardWidth
		y := (i / columns) * cardHeight
		dc.DrawImage(card, x, y)
	}
	return dc.Image()
}

// EncodePNG serialises an image for transport.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding status card: %w", err)
	}
	return buf.Bytes(), nil
}
