package ingest

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-tracker/constants"
	"github.com/joseph-ayodele/claims-tracker/internal/entity"
)

// FileResult is the per-document outcome of a batch or watch run.
type FileResult struct {
	Path      string
	ClaimID   uuid.UUID
	Status    constants.FraudStatus
	Reason    string
	Persisted bool
	Err       string
	Claim     *entity.Claim // nil when Err is set
}

// DirStats summarizes a directory run.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
	ByStatus  map[constants.FraudStatus]uint32
}

func (s *DirStats) record(r FileResult) {
	if r.Err != "" {
		s.Failed++
		return
	}
	s.Succeeded++
	if s.ByStatus == nil {
		s.ByStatus = map[constants.FraudStatus]uint32{}
	}
	s.ByStatus[r.Status]++
}

func buildExtSet(includeExts []string) map[string]struct{} {
	if len(includeExts) == 0 {
		return constants.AllowedExtensions
	}
	exts := map[string]struct{}{}
	for _, e := range includeExts {
		if e = constants.NormalizeExt(e); e != "" {
			exts[e] = struct{}{}
		}
	}
	return exts
}
