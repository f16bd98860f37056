package tasks

import (
	"context"
	"fmt"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
)

// CloudTasksDispatcher schedules envelopes onto a Google Cloud Tasks
// queue (spec §4.I). Deduplication rides on the queue's own
// ALREADY_EXISTS semantics: the Cloud Tasks task name is derived
// deterministically from task_id, so re-enqueuing the same task_id
// after it has already been accepted is rejected by the queue itself
// rather than by any in-process bookkeeping.
type CloudTasksDispatcher struct {
	client       *cloudtasks.Client
	queuePath    string
	workerBase   string
	audience     string
	serviceEmail string
}

// NewCloudTasksDispatcher builds a dispatcher bound to one queue.
func NewCloudTasksDispatcher(client *cloudtasks.Client, project, location, queue, workerBase, audience, serviceEmail string) *CloudTasksDispatcher {
	return &CloudTasksDispatcher{
		client:       client,
		queuePath:    fmt.Sprintf("projects/%s/locations/%s/queues/%s", project, location, queue),
		workerBase:   workerBase,
		audience:     audience,
		serviceEmail: serviceEmail,
	}
}

func (d *CloudTasksDispatcher) Enqueue(ctx context.Context, taskID string, name Name, payload any, urlPath string, at time.Time) error {
	env, err := BuildEnvelope(taskID, name, payload)
	if err != nil {
		return err
	}
	body, err := buildEnvelopeJSON(env)
	if err != nil {
		return err
	}

	req := &cloudtaskspb.CreateTaskRequest{
		Parent: d.queuePath,
		Task: &cloudtaskspb.Task{
			Name: fmt.Sprintf("%s/tasks/%s", d.queuePath, sanitizeTaskName(taskID)),
			MessageType: &cloudtaskspb.Task_HttpRequest{
				HttpRequest: &cloudtaskspb.HttpRequest{
					HttpMethod: cloudtaskspb.HttpMethod_POST,
					Url:        d.workerBase + urlPath,
					Headers:    map[string]string{"Content-Type": "application/json"},
					Body:       body,
					AuthorizationHeader: &cloudtaskspb.HttpRequest_OidcToken{
						OidcToken: &cloudtaskspb.OidcToken{
							ServiceAccountEmail: d.serviceEmail,
							Audience:            d.audience,
						},
					},
				},
			},
		},
	}
	if !at.IsZero() {
		req.Task.ScheduleTime = timestamppb.New(at)
	}

	_, err = d.client.CreateTask(ctx, req)
	if err != nil {
		if isAlreadyExists(err) {
			return nil // deduplicated by the queue itself
		}
		return apperr.Wrap(apperr.KindProviderTransient, "cloud_tasks_create_failed", "failed to create cloud task", err)
	}
	return nil
}

var _ Dispatcher = (*CloudTasksDispatcher)(nil)
