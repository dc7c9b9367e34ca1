package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelfsync/internal/connectivity"
	"github.com/mrlokans/shelfsync/internal/entities"
	booksync "github.com/mrlokans/shelfsync/internal/sync"
)

const manualSyncTimeout = 10 * time.Minute

type SyncController struct {
	syncer Syncer
	gate   *connectivity.Gate
}

func NewSyncController(syncer Syncer, gate *connectivity.Gate) *SyncController {
	return &SyncController{
		syncer: syncer,
		gate:   gate,
	}
}

// SyncNow runs a manual sync of the current book. When the network is
// already up, the run happens inline and the response carries the full
// result. When it is down, the gate brings connectivity up in the
// background and the response only acknowledges the queued run.
func (s *SyncController) SyncNow(c *gin.Context) {
	var result entities.SyncResult
	ran := s.gate.RunOpportunistic(func() {
		ctx, cancel := context.WithTimeout(c.Request.Context(), manualSyncTimeout)
		defer cancel()
		result = s.syncer.SyncBook(ctx, booksync.ModeManual)
	})

	if !ran {
		s.gate.Run(func() {
			ctx, cancel := context.WithTimeout(context.Background(), manualSyncTimeout)
			defer cancel()
			s.syncer.SyncBook(ctx, booksync.ModeAutonomous)
		})
		c.JSON(http.StatusAccepted, gin.H{"queued": true})
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}
