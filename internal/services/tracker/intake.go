package tracker

import (
	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/phambaophuc/image-alt/pkg/utils"
)

// Candidate is a file offered for admission into a batch.
type Candidate struct {
	Name        string
	ContentType string
	Data        []byte
}

func (c Candidate) Size() int64 {
	return int64(len(c.Data))
}

func (c Candidate) Identity() models.FileIdentity {
	return models.FileIdentity{
		Name:        c.Name,
		Size:        c.Size(),
		ContentType: utils.NormalizeContentType(c.ContentType),
	}
}

type Policy struct {
	MaxBatchSize int
	MaxFileSize  int64
	AllowedTypes []string
}

type Admission struct {
	Accepted      []Candidate
	Rejected      []Candidate
	BatchFull     bool
	Notifications []models.Notification
}

// Admit decides which candidates may join a batch currently holding
// current items. Capacity is all-or-nothing over the whole incoming list;
// the type filter is applied per candidate.
func Admit(current int, candidates []Candidate, policy Policy) Admission {
	var adm Admission

	if current+len(candidates) > policy.MaxBatchSize {
		adm.BatchFull = true
		adm.Notifications = append(adm.Notifications, batchFullNotification(policy.MaxBatchSize))
		return adm
	}

	for _, c := range candidates {
		if utils.IsAllowedType(c.ContentType, policy.AllowedTypes) {
			adm.Accepted = append(adm.Accepted, c)
		} else {
			adm.Rejected = append(adm.Rejected, c)
		}
	}

	if len(adm.Rejected) > 0 {
		names := make([]string, 0, len(adm.Rejected))
		for _, c := range adm.Rejected {
			names = append(names, c.Name)
		}
		adm.Notifications = append(adm.Notifications, invalidTypeNotification(names))
	}

	return adm
}
