package printing

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net"
	"os"
	"strings"
	"time"

	"github.com/restobar/pos/apperr"
)

// Sink is the opaque printer endpoint: it either gets the whole ticket out
// or reports failure.
type Sink interface {
	Print(addr string, t Ticket) error
}

// NetworkSink renders tickets to ESC/POS bytes and writes them to the
// printer's raw TCP port. One connection per ticket, bounded by Timeout so
// an unreachable printer cannot stall a dispatch worker.
type NetworkSink struct {
	Timeout time.Duration
}

const rawPrintPort = "9100"

func (s *NetworkSink) Print(addr string, t Ticket) error {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	if !strings.Contains(addr, ":") {
		addr = net.JoinHostPort(addr, rawPrintPort)
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return apperr.Dependency("printer "+addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return apperr.Dependency("printer "+addr, err)
	}

	if _, err := conn.Write(render(t)); err != nil {
		return apperr.Dependency("printer "+addr, err)
	}
	return nil
}

// ESC/POS control sequences, the same fixed set EPSON-compatible thermal
// printers accept.
var (
	cmdInit    = []byte{0x1b, 0x40}
	cmdCut     = []byte{0x1d, 0x56, 0x00}
	cmdFeed    = []byte{0x0a}
	cmdDivider = append(bytes.Repeat([]byte{'-'}, ticketWidth), 0x0a)
)

func render(t Ticket) []byte {
	var buf bytes.Buffer
	buf.Write(cmdInit)

	for _, d := range t.Directives {
		switch d.Op {
		case OpAlign:
			buf.Write([]byte{0x1b, 0x61, byte(d.N)})
		case OpBold:
			buf.Write([]byte{0x1b, 0x45, byte(d.N)})
		case OpText:
			buf.WriteString(d.Text)
			buf.Write(cmdFeed)
		case OpDivider:
			buf.Write(cmdDivider)
		case OpFeed:
			buf.Write(cmdFeed)
		case OpImage:
			writeRaster(&buf, d.Bitmap)
		case OpCut:
			buf.Write(cmdFeed)
			buf.Write(cmdCut)
		}
	}
	return buf.Bytes()
}

// writeRaster emits a GS v 0 raster block from a monochrome bitmap.
func writeRaster(buf *bytes.Buffer, bitmap [][]bool) {
	if len(bitmap) == 0 || len(bitmap[0]) == 0 {
		return
	}
	height := len(bitmap)
	width := len(bitmap[0])
	rowBytes := (width + 7) / 8

	buf.Write([]byte{0x1d, 0x76, 0x30, 0x00})
	buf.Write([]byte{byte(rowBytes), byte(rowBytes >> 8)})
	buf.Write([]byte{byte(height), byte(height >> 8)})

	for y := 0; y < height; y++ {
		for bx := 0; bx < rowBytes; bx++ {
			var b byte
			for bit := 0; bit < 8; bit++ {
				x := bx*8 + bit
				if x < width && bitmap[y][x] {
					b |= 0x80 >> bit
				}
			}
			buf.WriteByte(b)
		}
	}
	buf.Write(cmdFeed)
}

// LoadLogo reads a PNG logo and thresholds it into a printable bitmap.
// A missing or unreadable logo is not an error for the caller; invoices
// simply print without it.
func LoadLogo(path string) ([][]bool, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open logo: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	return rasterize(img), nil
}

func rasterize(img image.Image) [][]bool {
	bounds := img.Bounds()
	out := make([][]bool, bounds.Dy())
	for y := range out {
		row := make([]bool, bounds.Dx())
		for x := range row {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Luminance threshold; transparent pixels stay white.
			lum := (299*r + 587*g + 114*b) / 1000
			row[x] = a > 0x7fff && lum < 0x7fff
		}
		out[y] = row
	}
	return out
}
