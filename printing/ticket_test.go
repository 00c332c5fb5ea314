package printing

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textLines(t Ticket) []string {
	var out []string
	for _, d := range t.Directives {
		if d.Op == OpText {
			out = append(out, d.Text)
		}
	}
	return out
}

func sampleHeader() Header {
	return Header{
		Company:   "CHEZ MAMAN",
		OrderRef:  "000042",
		Attendant: "Alice",
		At:        time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC),
	}
}

func sampleLines() []Line {
	return []Line{
		{LineID: 1, ItemID: 10, Name: "Primus 72cl", Quantity: 2, UnitPrice: 500, StoreID: 1, StoreName: "Bar"},
		{LineID: 2, ItemID: 11, Name: "Brochette", Quantity: 1, UnitPrice: 1500, StoreID: 1, StoreName: "Bar"},
	}
}

func TestInvoiceNumberFormat(t *testing.T) {
	now := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	assert.Regexp(t, `^20260314-\d{4}$`, InvoiceNumber(now))
}

func TestOrderTicketListsItemsWithoutPrices(t *testing.T) {
	ticket := BuildTicket(KindOrder, sampleHeader(), "Bar", sampleLines(), 0, nil, "", nil)

	lines := textLines(ticket)
	assert.Contains(t, lines, "CHEZ MAMAN")
	assert.Contains(t, lines, "Bar")
	assert.Contains(t, lines, "Commande: 000042")
	assert.Contains(t, lines, "Serveur: Alice")
	assert.Contains(t, lines, "Primus 72cl x2")
	assert.Contains(t, lines, "Brochette x1")

	for _, l := range lines {
		assert.NotContains(t, l, "FC", "order tickets carry no prices")
	}
	assert.Equal(t, OpCut, ticket.Directives[len(ticket.Directives)-1].Op)
}

func TestAdditionAndRemovalBanners(t *testing.T) {
	add := BuildTicket(KindAddition, sampleHeader(), "Bar", sampleLines(), 0, nil, "", nil)
	assert.Contains(t, textLines(add), "SUPPLEMENT")

	rm := BuildTicket(KindRemoval, sampleHeader(), "Bar", sampleLines(), 0, nil, "", nil)
	assert.Contains(t, textLines(rm), "ANNULATION")
}

func TestInvoiceTicketHasPricedLinesAndTotal(t *testing.T) {
	ticket := BuildTicket(KindInvoice, sampleHeader(), "Bar", sampleLines(), 2500, nil, "20260314-0042", nil)

	lines := textLines(ticket)
	assert.Contains(t, lines, "FACTURE 20260314-0042")

	var sawTotal bool
	for _, l := range lines {
		if len(l) >= 5 && l[:5] == "TOTAL" {
			sawTotal = true
			assert.Contains(t, l, "2.500,00 FC")
		}
	}
	assert.True(t, sawTotal)
}

func TestInvoiceTicketEmbedsLogo(t *testing.T) {
	logo := [][]bool{{true, false}, {false, true}}
	ticket := BuildTicket(KindInvoice, sampleHeader(), "Bar", sampleLines(), 2500, nil, "20260314-0042", logo)

	var found bool
	for _, d := range ticket.Directives {
		if d.Op == OpImage && d.Bitmap != nil {
			found = true
		}
	}
	assert.True(t, found)
}

func TestReceiptTicketHasPaymentBlockAndQR(t *testing.T) {
	payment := &PaymentInfo{Method: "cash", AmountReceived: 3000, Change: 500}
	ticket := BuildTicket(KindReceipt, sampleHeader(), "Bar", sampleLines(), 2500, payment, "20260314-0042", nil)

	lines := textLines(ticket)
	assert.Contains(t, lines, "RECU 20260314-0042")

	var sawMethod, sawChange bool
	for _, l := range lines {
		if len(l) >= 8 && l[:8] == "Paiement" {
			sawMethod = true
			assert.Contains(t, l, "cash")
		}
		if len(l) >= 5 && l[:5] == "Rendu" {
			sawChange = true
			assert.Contains(t, l, "500,00 FC")
		}
	}
	assert.True(t, sawMethod)
	assert.True(t, sawChange)

	var qr int
	for _, d := range ticket.Directives {
		if d.Op == OpImage {
			qr++
		}
	}
	assert.Equal(t, 1, qr)
}

func TestPadBetweenFitsTicketWidth(t *testing.T) {
	out := padBetween("Primus 72cl x2", "1.000,00 FC")
	require.Len(t, out, ticketWidth)

	// Accented names are measured in runes, keeping the price column at
	// the printed edge.
	accented := padBetween("Brochette chèvre x1", "1.500,00 FC")
	assert.Equal(t, ticketWidth, utf8.RuneCountInString(accented))

	// Oversized content still keeps one separating space.
	long := padBetween("un nom de produit vraiment beaucoup trop long", "999.999,99 FC")
	assert.Contains(t, long, " ")
}
