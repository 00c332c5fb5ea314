package printing

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Job is one dispatch event: a set of routed lines plus the order-level
// fields the ticket variant needs.
type Job struct {
	Kind          Kind
	Header        Header
	Lines         []Line
	Total         float64
	Payment       *PaymentInfo
	InvoiceNumber string
	Logo          [][]bool
}

// Result reports the outcome for one destination. Dispatch never fails as a
// whole; each destination succeeds, fails or is skipped on its own.
type Result struct {
	JobID   string
	Store   string
	Printer string
	Addr    string
	LineIDs []uint
	OK      bool
	Skipped bool
	Err     string
}

// Dispatcher fans a job out to one printer per department. Destinations are
// independent: they run concurrently, own their connection, and a failure on
// one never blocks or rolls back the others.
type Dispatcher struct {
	Sink Sink
	Log  *logrus.Logger
}

func NewDispatcher(sink Sink, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{Sink: sink, Log: log}
}

type destination struct {
	storeName   string
	printerName string
	addr        string
	lines       []Line
}

// Dispatch groups the job's lines by department, resolves each department's
// printer and sends one ticket per destination. Departments without a
// reachable printer address are reported as skipped, not failed.
func (d *Dispatcher) Dispatch(job Job) []Result {
	jobID := uuid.NewString()

	var order []uint
	dests := make(map[uint]*destination)
	for _, line := range job.Lines {
		dest, ok := dests[line.StoreID]
		if !ok {
			dest = &destination{
				storeName:   line.StoreName,
				printerName: line.PrinterName,
				addr:        line.PrinterAddr,
			}
			dests[line.StoreID] = dest
			order = append(order, line.StoreID)
		}
		dest.lines = append(dest.lines, line)
	}

	results := make([]Result, len(order))
	var wg sync.WaitGroup

	for i, storeID := range order {
		dest := dests[storeID]

		res := Result{
			JobID:   jobID,
			Store:   dest.storeName,
			Printer: dest.printerName,
			Addr:    dest.addr,
		}
		for _, l := range dest.lines {
			res.LineIDs = append(res.LineIDs, l.LineID)
		}

		if dest.addr == "" {
			res.Skipped = true
			res.Err = "no printer assigned"
			results[i] = res
			if d.Log != nil {
				d.Log.Printf("print %s: no printer assigned for store %q, %d line(s) skipped",
					jobID, dest.storeName, len(dest.lines))
			}
			continue
		}

		wg.Add(1)
		go func(i int, dest *destination, res Result) {
			defer wg.Done()
			ticket := BuildTicket(job.Kind, job.Header, dest.storeName, dest.lines,
				job.Total, job.Payment, job.InvoiceNumber, job.Logo)
			if err := d.Sink.Print(dest.addr, ticket); err != nil {
				res.Err = err.Error()
				if d.Log != nil {
					d.Log.Printf("print %s: %s ticket to %s (%s) failed: %v",
						jobID, job.Kind, dest.printerName, dest.addr, err)
				}
			} else {
				res.OK = true
			}
			results[i] = res
		}(i, dest, res)
	}

	wg.Wait()
	return results
}
