package tracker

import "github.com/phambaophuc/image-alt/internal/models"

type EventKind int

const (
	EventUploadStarted EventKind = iota + 1
	EventUploadProgress
	EventUploaded
	EventProcessingStarted
	EventSucceeded
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventUploadStarted:
		return "upload_started"
	case EventUploadProgress:
		return "upload_progress"
	case EventUploaded:
		return "uploaded"
	case EventProcessingStarted:
		return "processing_started"
	case EventSucceeded:
		return "succeeded"
	case EventFailed:
		return "failed"
	}
	return "unknown"
}

// Event is one input to the per-item state machine. Only the payload field
// matching Kind is read.
type Event struct {
	Kind     EventKind
	Progress int
	Location string
	Result   string
	Reason   models.FailureReason
}

func UploadStarted() Event { return Event{Kind: EventUploadStarted} }
func UploadProgress(percent int) Event { return Event{Kind: EventUploadProgress, Progress: percent} }
func Uploaded(location string) Event { return Event{Kind: EventUploaded, Location: location} }
func ProcessingStarted() Event { return Event{Kind: EventProcessingStarted} }
func Succeeded(result string) Event { return Event{Kind: EventSucceeded, Result: result} }
func Failed(r models.FailureReason) Event { return Event{Kind: EventFailed, Reason: r} }

// Transition applies ev to item. It is pure and total: every (status, event)
// pair either yields the next item and true, or the unchanged item and false.
//
//	pending    --UploadStarted-->      uploading
//	uploading  --UploadProgress(p)-->  uploading   (p > progress only)
//	uploading  --Uploaded(loc)-->      uploading   (location set, progress 100)
//	uploading  --ProcessingStarted-->  processing  (location required)
//	processing --Succeeded(r)-->       succeeded
//	non-terminal --Failed(reason)-->   failed
func Transition(item models.BatchItem, ev Event) (models.BatchItem, bool) {
	if item.Status.Terminal() {
		return item, false
	}

	next := item
	switch ev.Kind {
	case EventUploadStarted:
		if item.Status != models.StatusPending {
			return item, false
		}
		next.Status = models.StatusUploading
		next.Progress = 0

	case EventUploadProgress:
		if item.Status != models.StatusUploading {
			return item, false
		}
		p := ClampPercent(ev.Progress)
		if p <= item.Progress {
			return item, false
		}
		next.Progress = p

	case EventUploaded:
		if item.Status != models.StatusUploading || item.RemoteLocation != "" || ev.Location == "" {
			return item, false
		}
		next.RemoteLocation = ev.Location
		next.Progress = 100

	case EventProcessingStarted:
		if item.Status != models.StatusUploading || item.RemoteLocation == "" {
			return item, false
		}
		next.Status = models.StatusProcessing

	case EventSucceeded:
		if item.Status != models.StatusProcessing {
			return item, false
		}
		next.Status = models.StatusSucceeded
		next.Result = ev.Result

	case EventFailed:
		if !ev.Reason.Valid() {
			return item, false
		}
		next.Status = models.StatusFailed
		next.FailureReason = ev.Reason

	default:
		return item, false
	}

	return next, true
}

func ClampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
