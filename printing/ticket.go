package printing

import (
	"fmt"
	"math/rand"
	"time"
	"unicode/utf8"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/restobar/pos/utils"
)

// Kind selects the ticket content variant.
type Kind int

const (
	KindOrder    Kind = iota // all items of a fresh order
	KindAddition             // only newly added, unprinted lines
	KindRemoval              // removed items
	KindInvoice              // itemized bill with unit prices and total
	KindReceipt              // post-payment snapshot with method and change
)

func (k Kind) String() string {
	switch k {
	case KindOrder:
		return "order"
	case KindAddition:
		return "addition"
	case KindRemoval:
		return "removal"
	case KindInvoice:
		return "invoice"
	case KindReceipt:
		return "receipt"
	}
	return "unknown"
}

// Directive ops understood by the sink renderer.
type Op int

const (
	OpAlign Op = iota // N: 0 left, 1 center, 2 right
	OpBold            // N: 0 off, 1 on
	OpText            // Text: one printed line
	OpDivider
	OpFeed
	OpImage // Bitmap: pre-rasterized monochrome image
	OpCut
)

type Directive struct {
	Op     Op
	Text   string
	N      int
	Bitmap [][]bool
}

// Ticket is the formatted directive sequence sent to one printer for one
// dispatch event.
type Ticket struct {
	Store      string
	Directives []Directive
}

// Line is one routed order line, fully resolved against the catalog.
type Line struct {
	LineID      uint // order item id, used to flip the printed flag
	ItemID      uint
	Name        string
	Quantity    int
	UnitPrice   float64
	StoreID     uint
	StoreName   string
	PrinterName string
	PrinterAddr string
}

// Header carries the order-level fields every variant prints.
type Header struct {
	Company   string
	OrderRef  string
	Attendant string
	At        time.Time
}

// PaymentInfo is attached to receipt tickets.
type PaymentInfo struct {
	Method         string
	AmountReceived float64
	Change         float64
}

const ticketWidth = 42

// InvoiceNumber builds the human-readable invoice reference,
// {yyyymmdd}-{4 random digits}. Uniqueness is best effort; it is never used
// as a key.
func InvoiceNumber(now time.Time) string {
	return fmt.Sprintf("%s-%04d", now.Format("20060102"), rand.Intn(10000))
}

// BuildTicket formats one destination's ticket for the given variant.
func BuildTicket(kind Kind, header Header, storeName string, lines []Line, total float64, payment *PaymentInfo, invoiceNumber string, logo [][]bool) Ticket {
	t := Ticket{Store: storeName}

	t.add(Directive{Op: OpAlign, N: 1})
	if kind == KindInvoice && logo != nil {
		t.add(Directive{Op: OpImage, Bitmap: logo})
	}
	t.add(Directive{Op: OpBold, N: 1})
	t.add(Directive{Op: OpText, Text: header.Company})
	t.add(Directive{Op: OpText, Text: storeName})
	t.add(Directive{Op: OpBold, N: 0})
	t.add(Directive{Op: OpAlign, N: 0})

	switch kind {
	case KindAddition:
		t.add(Directive{Op: OpText, Text: "SUPPLEMENT"})
	case KindRemoval:
		t.add(Directive{Op: OpText, Text: "ANNULATION"})
	case KindInvoice:
		t.add(Directive{Op: OpText, Text: "FACTURE " + invoiceNumber})
	case KindReceipt:
		t.add(Directive{Op: OpText, Text: "RECU " + invoiceNumber})
	}

	t.add(Directive{Op: OpText, Text: "Commande: " + header.OrderRef})
	t.add(Directive{Op: OpText, Text: "Date: " + header.At.Format("02/01/2006 15:04")})
	t.add(Directive{Op: OpText, Text: "Serveur: " + header.Attendant})
	t.add(Directive{Op: OpDivider})

	t.add(Directive{Op: OpBold, N: 1})
	t.add(Directive{Op: OpText, Text: "Articles :"})
	t.add(Directive{Op: OpBold, N: 0})

	priced := kind == KindInvoice || kind == KindReceipt
	for _, l := range lines {
		if priced {
			left := fmt.Sprintf("%s x%d", l.Name, l.Quantity)
			right := utils.FormatCurrency(l.UnitPrice * float64(l.Quantity))
			t.add(Directive{Op: OpText, Text: padBetween(left, right)})
		} else {
			t.add(Directive{Op: OpText, Text: fmt.Sprintf("%s x%d", l.Name, l.Quantity)})
		}
	}

	t.add(Directive{Op: OpDivider})

	if priced {
		t.add(Directive{Op: OpBold, N: 1})
		t.add(Directive{Op: OpText, Text: padBetween("TOTAL", utils.FormatCurrency(total))})
		t.add(Directive{Op: OpBold, N: 0})
	}

	if kind == KindReceipt && payment != nil {
		t.add(Directive{Op: OpText, Text: padBetween("Paiement", payment.Method)})
		t.add(Directive{Op: OpText, Text: padBetween("Recu", utils.FormatCurrency(payment.AmountReceived))})
		t.add(Directive{Op: OpText, Text: padBetween("Rendu", utils.FormatCurrency(payment.Change))})
		if qr := qrBitmap(invoiceNumber); qr != nil {
			t.add(Directive{Op: OpFeed})
			t.add(Directive{Op: OpAlign, N: 1})
			t.add(Directive{Op: OpImage, Bitmap: qr})
			t.add(Directive{Op: OpAlign, N: 0})
		}
	}

	t.add(Directive{Op: OpFeed})
	t.add(Directive{Op: OpAlign, N: 1})
	t.add(Directive{Op: OpText, Text: "Merci pour votre visite !"})
	t.add(Directive{Op: OpCut})

	return t
}

func (t *Ticket) add(d Directive) {
	t.Directives = append(t.Directives, d)
}

// padBetween spreads left and right text over the ticket width. Widths are
// counted in runes so accented names keep the price column aligned.
func padBetween(left, right string) string {
	gap := ticketWidth - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	out := left
	for i := 0; i < gap; i++ {
		out += " "
	}
	return out + right
}

func qrBitmap(content string) [][]bool {
	if content == "" {
		return nil
	}
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil
	}
	return code.Bitmap()
}
