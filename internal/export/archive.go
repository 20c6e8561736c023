package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // portrait decoders
	_ "image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/Conceptual-Machines/hogwarts-archives/internal/models"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FilenameSuffix is appended to every exported archive file
const FilenameSuffix = "_Ministry_Record.png"

// ErrNoRecord is returned when there is nothing to export
var ErrNoRecord = errors.New("no character record to export")

const (
	canvasWidth     = 800
	margin          = 32
	frameWidth      = 6
	lineHeight      = 18
	portraitHeight  = 450
	maxAbilityLines = 3
)

var (
	parchment  = color.RGBA{R: 0xf0, G: 0xe6, B: 0xd2, A: 0xff}
	frameColor = color.RGBA{R: 0x5c, G: 0x40, B: 0x33, A: 0xff}
	inkColor   = color.RGBA{R: 0x2b, G: 0x1d, B: 0x14, A: 0xff}
	artBox     = color.RGBA{R: 0xe2, G: 0xd4, B: 0xb8, A: 0xff}
)

// Filename builds the archive file name from the character name,
// collapsing every whitespace run into a single underscore.
func Filename(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "Unknown" + FilenameSuffix
	}
	return strings.Join(fields, "_") + FilenameSuffix
}

// RenderPNG draws the record and its portrait onto a framed parchment card and
// encodes it as PNG. A missing, placeholder or undecodable portrait leaves the art box empty.
func RenderPNG(w io.Writer, record *models.CharacterRecord, portrait *models.ImageResult) error {
	if record == nil {
		return ErrNoRecord
	}

	lines := recordLines(record)
	height := margin*2 + lineHeight*2 + portraitHeight + lineHeight + len(lines)*lineHeight
	canvas := image.NewRGBA(image.Rect(0, 0, canvasWidth, height))

	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: frameColor}, image.Point{}, draw.Src)
	inner := canvas.Bounds().Inset(frameWidth)
	draw.Draw(canvas, inner, &image.Uniform{C: parchment}, image.Point{}, draw.Src)

	y := margin + lineHeight
	drawText(canvas, margin, y, strings.ToUpper(record.Name))
	y += lineHeight

	art := image.Rect(margin, y, canvasWidth-margin, y+portraitHeight)
	draw.Draw(canvas, art, &image.Uniform{C: artBox}, image.Point{}, draw.Src)
	if src := decodePortrait(portrait); src != nil {
		xdraw.CatmullRom.Scale(canvas, fitRect(src.Bounds(), art), src, src.Bounds(), xdraw.Over, nil)
	}
	y = art.Max.Y + lineHeight

	for _, line := range lines {
		y += lineHeight
		drawText(canvas, margin, y, line)
	}

	if err := png.Encode(w, canvas); err != nil {
		return fmt.Errorf("failed to encode archive PNG: %w", err)
	}
	return nil
}

func decodePortrait(portrait *models.ImageResult) image.Image {
	if portrait == nil || portrait.Placeholder || len(portrait.Data) == 0 {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(portrait.Data))
	if err != nil {
		return nil
	}
	return img
}

// fitRect centres src inside box, preserving aspect ratio
func fitRect(src, box image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	bw, bh := box.Dx(), box.Dy()
	if sw == 0 || sh == 0 {
		return box
	}

	w, h := bw, sh*bw/sw
	if h > bh {
		w, h = sw*bh/sh, bh
	}
	x0 := box.Min.X + (bw-w)/2
	y0 := box.Min.Y + (bh-h)/2
	return image.Rect(x0, y0, x0+w, y0+h)
}

func recordLines(r *models.CharacterRecord) []string {
	header := fmt.Sprintf("%s | %s | %s | HP %d", r.House, r.Type, r.Rarity, r.HP)
	if r.SubType != "" {
		header = fmt.Sprintf("%s | %s - %s | %s | HP %d", r.House, r.Type, r.SubType, r.Rarity, r.HP)
	}
	lines := []string{
		header,
		fmt.Sprintf("MAG %d  COU %d  INT %d  CUN %d  LOY %d",
			r.Stats.Magic, r.Stats.Courage, r.Stats.Intelligence, r.Stats.Cunning, r.Stats.Loyalty),
	}

	for i, a := range r.Abilities {
		if i == maxAbilityLines {
			break
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", a.Cost, a.Name, a.Description))
	}
	if r.SignatureSpell != "" {
		lines = append(lines, "Signature spell: "+r.SignatureSpell)
	}
	if r.Wand != nil {
		lines = append(lines, fmt.Sprintf("Wand: %s, %s, %s", r.Wand.Wood, r.Wand.Core, r.Wand.Length))
	}
	if r.DangerLevel != nil {
		lines = append(lines, fmt.Sprintf("Threat level %d/10: %s", *r.DangerLevel, r.DangerAssessment()))
	}
	if r.FlavorText != "" {
		lines = append(lines, fmt.Sprintf("%q", r.FlavorText))
	}

	maxChars := (canvasWidth - 2*margin) / basicfont.Face7x13.Advance
	for i, line := range lines {
		lines[i] = truncate(line, maxChars)
	}
	return lines
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func drawText(dst draw.Image, x, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(inkColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
