package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/phambaophuc/image-alt/internal/models"
)

func renderTable(w io.Writer, view models.BatchView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFILE\tSIZE\tSTATUS\tALT TEXT")
	for _, it := range view.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d KB\t%s\t%s\n", it.Index+1, it.File.Name, it.SizeKB, statusText(it), it.Result)
	}
	return tw.Flush()
}

func statusText(it models.BatchItem) string {
	switch it.Status {
	case models.StatusUploading:
		return fmt.Sprintf("uploading %d%%", it.Progress)
	case models.StatusFailed:
		return "failed: " + string(it.FailureReason)
	default:
		return string(it.Status)
	}
}

// progressPrinter writes one line per item status change and one per new
// notification.
type progressPrinter struct {
	w       io.Writer
	last    map[int]string
	lastSeq uint64
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, last: make(map[int]string)}
}

func (p *progressPrinter) update(view models.BatchView) {
	for _, it := range view.Items {
		status := string(it.Status)
		if p.last[it.Index] == status {
			continue
		}
		p.last[it.Index] = status
		fmt.Fprintf(p.w, "[%d] %s: %s\n", it.Index+1, it.File.Name, statusText(it))
	}
	p.notifications(view.Notifications)
}

// notifications prints entries newer than the last one printed. The view
// keeps only the most recent notifications, so positions are not stable.
func (p *progressPrinter) notifications(ns []models.Notification) {
	for _, n := range ns {
		if n.Seq <= p.lastSeq {
			continue
		}
		fmt.Fprintf(p.w, "! %s: %s\n", n.Title, n.Description)
		p.lastSeq = n.Seq
	}
}
