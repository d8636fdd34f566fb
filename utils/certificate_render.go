package utils

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/gosimple/slug"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	certWidth  = 1600
	certHeight = 1131
	qrSize     = 220
)

// CertificateArt is everything printed on a certificate.
type CertificateArt struct {
	ID        string
	Holder    string
	Level     string
	IssuedAt  time.Time
	VerifyURL string
}

type CertificateRenderer struct {
	Issuer string

	// truetype faces cache glyphs and are not safe for concurrent use
	mu      sync.Mutex
	title   font.Face
	heading font.Face
	body    font.Face
	small   font.Face
}

func NewCertificateRenderer(issuer string) (*CertificateRenderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	face := func(f *truetype.Font, size float64) font.Face {
		return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	}
	return &CertificateRenderer{
		Issuer:  issuer,
		title:   face(bold, 72),
		heading: face(bold, 56),
		body:    face(regular, 34),
		small:   face(regular, 22),
	}, nil
}

// Render draws the certificate as a PNG.
func (r *CertificateRenderer) Render(art CertificateArt) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(certWidth, certHeight)

	dc.SetColor(color.White)
	dc.Clear()

	dc.SetRGB255(22, 58, 110)
	dc.SetLineWidth(18)
	dc.DrawRectangle(40, 40, certWidth-80, certHeight-80)
	dc.Stroke()
	dc.SetLineWidth(3)
	dc.DrawRectangle(80, 80, certWidth-160, certHeight-160)
	dc.Stroke()

	cx := float64(certWidth) / 2

	dc.SetFontFace(r.title)
	dc.DrawStringAnchored("Certificate of Achievement", cx, 230, 0.5, 0.5)

	dc.SetRGB255(40, 40, 40)
	dc.SetFontFace(r.body)
	dc.DrawStringAnchored("This certifies that", cx, 360, 0.5, 0.5)

	dc.SetRGB255(22, 58, 110)
	dc.SetFontFace(r.heading)
	dc.DrawStringAnchored(HolderName(art.Holder), cx, 450, 0.5, 0.5)

	dc.SetRGB255(40, 40, 40)
	dc.SetFontFace(r.body)
	dc.DrawStringAnchored(fmt.Sprintf("has reached the %s level in phishing awareness training", art.Level), cx, 550, 0.5, 0.5)
	dc.DrawStringAnchored("Issued "+art.IssuedAt.UTC().Format("January 2, 2006"), cx, 610, 0.5, 0.5)
	dc.DrawStringAnchored(r.Issuer, cx, 760, 0.5, 0.5)

	dc.SetFontFace(r.small)
	dc.DrawStringAnchored("Certificate ID "+art.ID, 140, certHeight-140, 0, 0.5)

	if art.VerifyURL != "" {
		qr, err := qrcode.New(art.VerifyURL, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("failed to encode QR: %w", err)
		}
		dc.DrawImageAnchored(qr.Image(qrSize), certWidth-140, certHeight-140, 1, 1)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// HolderName upper-cases the printed name and falls back to "UNKNOWN".
func HolderName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Unknown"
	}
	return cases.Upper(language.English).String(name)
}

// CertificateKey is the object key for a certificate artifact.
func CertificateKey(holder, level, id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	base := slug.Make(holder)
	if base == "" {
		base = "holder"
	}
	return fmt.Sprintf("%s-%s-%s.png", base, strings.ToLower(level), short)
}
