package session

import (
	"context"
	"fmt"
	"time"

	"github.com/trestlehq/coordinator/internal/constants"
)

func checkpointSaveInterval() time.Duration {
	return constants.CheckpointSaveInterval
}

// bgContext is used for the checkpoint save path, which must not be
// cancelled by a session task's own context (checkpoint writes should
// complete even as a session begins its shutdown sequence).
func bgContext() context.Context {
	return context.Background()
}

// generateMsgID produces a client-generated delta msg_id. Deterministic
// on (deviceID, seq) so retried sends of the same logical delta reuse
// the same id.
func generateMsgID(deviceID string, seq int64) string {
	return fmt.Sprintf("%s-delta-%d", deviceID, seq)
}
