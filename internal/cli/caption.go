package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/phambaophuc/image-alt/internal/services/tracker"
	"github.com/spf13/cobra"
)

func newCaptionCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "caption <file>...",
		Short: "Upload files and generate alt text for each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := readFiles(args)
			if err != nil {
				return err
			}

			svc, err := app.load()
			if err != nil {
				return err
			}
			defer svc.Shutdown()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runCaption(ctx, app, svc.Services.Manager, candidates)
		},
	}
}

func runCaption(ctx context.Context, app *AppContext, manager *tracker.Manager, candidates []tracker.Candidate) error {
	t := manager.Create()
	defer manager.Close(t.ID())

	changes, unsubscribe := t.Subscribe()
	defer unsubscribe()

	_, adm, _, err := manager.Submit(t.ID(), candidates)
	if err != nil {
		return err
	}
	printer := newProgressPrinter(app.IO.ErrOut)
	printer.notifications(adm.Notifications)
	if adm.BatchFull {
		return fmt.Errorf("batch rejected: %s", adm.Notifications[0].Description)
	}

	done := make(chan struct{})
	go func() {
		t.WaitTasks()
		close(done)
	}()

	for finished := false; !finished; {
		select {
		case <-changes:
		case <-done:
			finished = true
		case <-ctx.Done():
			t.Close()
			<-done
			return ctx.Err()
		}
		printer.update(t.Snapshot())
	}

	view := t.Snapshot()
	if app.Opts.JSON {
		enc := json.NewEncoder(app.IO.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return err
		}
	} else if err := renderTable(app.IO.Out, view); err != nil {
		return err
	}

	if failed := countFailed(view.Items); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(view.Items))
	}
	return nil
}

func readFiles(paths []string) ([]tracker.Candidate, error) {
	candidates := make([]tracker.Candidate, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		candidates = append(candidates, tracker.Candidate{
			Name:        filepath.Base(path),
			ContentType: detectContentType(path, data),
			Data:        data,
		})
	}
	return candidates, nil
}

// detectContentType prefers the extension, as a browser would, and sniffs
// the content otherwise.
func detectContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

func countFailed(items []models.BatchItem) int {
	n := 0
	for _, it := range items {
		if it.Status == models.StatusFailed {
			n++
		}
	}
	return n
}
