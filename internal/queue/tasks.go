package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeDocumentProcess = "document:process"
	TypeReprocessSweep  = "document:reprocess-sweep"
)

type DocumentProcessPayload struct {
	DocumentID string `json:"document_id"`
}

func NewDocumentProcessTask(id uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(DocumentProcessPayload{DocumentID: id.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeDocumentProcess, data), nil
}

func NewReprocessSweepTask() *asynq.Task {
	return asynq.NewTask(TypeReprocessSweep, nil)
}

// ParseDocumentProcess returns the document id carried by a process task.
func ParseDocumentProcess(t *asynq.Task) (uuid.UUID, error) {
	var payload DocumentProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return uuid.Nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	id, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse document ID: %w", err)
	}
	return id, nil
}
