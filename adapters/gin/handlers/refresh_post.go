package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/connelaide/connelaide-api/jobs"
)

// HandleRefreshPOST enqueues an on-demand transaction sync. Duplicate
// pending requests collapse into one job.
func HandleRefreshPOST(runner *jobs.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := runner.EnqueueSync(c.Request.Context(), "plaid")
		if err != nil {
			serverErr(c, "failed_to_enqueue_refresh")
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"job_id": res.Job.ID, "queued": !res.UniqueSkippedAsDuplicate})
	}
}
