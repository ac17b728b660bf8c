package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskFollowUpDue = "leads.followup_due"

const TaskRescoreOwner = "leads.rescore_owner"

type FollowUpPayload struct {
	LeadID  string `json:"leadId"`
	OwnerID string `json:"ownerId"`
}

type RescoreOwnerPayload struct {
	OwnerID string `json:"ownerId"`
}

func NewFollowUpTask(payload FollowUpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpDue, data), nil
}

func ParseFollowUpPayload(task *asynq.Task) (FollowUpPayload, error) {
	var payload FollowUpPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpPayload{}, err
	}
	return payload, nil
}

func NewRescoreOwnerTask(payload RescoreOwnerPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRescoreOwner, data), nil
}

func ParseRescoreOwnerPayload(task *asynq.Task) (RescoreOwnerPayload, error) {
	var payload RescoreOwnerPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RescoreOwnerPayload{}, err
	}
	return payload, nil
}
