package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
	"github.com/ZackHiRo/revops-lead-router/internal/ports"
)

// nurtureWindow is how long a low-scoring lead rests before re-evaluation.
const nurtureWindow = 30 * 24 * time.Hour

// Nurture is the terminal step of the nurture path: it schedules a
// follow-up task so the lead is revisited after the nurture window. Task
// creation failure is recorded and never retried synchronously.
func Nurture(ctx context.Context, scheduler ports.CRMClient, lead *domain.LeadRecord) {
	description := fmt.Sprintf("Re-evaluate lead %s after nurturing period (score %.2f)", lead.LeadID, lead.Score)

	taskID, err := scheduler.CreateTask(ctx, lead, description, nurtureWindow)
	if err != nil {
		lead.AppendError(fmt.Sprintf("nurture_task_failed: %v", err))
		return
	}
	lead.Notifications = append(lead.Notifications, "task:"+taskID)
}
