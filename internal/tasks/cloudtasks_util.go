package tasks

import (
	"encoding/json"
	"regexp"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var taskNameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// sanitizeTaskName maps an arbitrary task_id (which may contain colons,
// e.g. "expire-hold:{property}:{hold}") onto the character set Cloud
// Tasks requires for the trailing task-name segment.
func sanitizeTaskName(taskID string) string {
	return taskNameSanitizer.ReplaceAllString(strings.ToLower(taskID), "_")
}

func buildEnvelopeJSON(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func isAlreadyExists(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.AlreadyExists
}
