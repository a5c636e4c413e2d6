package workflows

import "coconet/internal/models"

const (
	StatusProcessing = "processing"
	StatusNameTaken  = "name_taken"
	StatusRegistered = "registered"
	StatusFailed     = "failed"
)

type MemberRegistrationInput struct {
	Registration     models.MemberRegistration `json:"registration"`
	ImageName        string                    `json:"image_name,omitempty"`
	ImageContentType string                    `json:"image_content_type,omitempty"`
	Image            []byte                    `json:"image,omitempty"`
}

type RegistrationStatus struct {
	Name        string            `json:"name"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	MemberUUID  string            `json:"member_uuid,omitempty"`
	FailReason  string            `json:"fail_reason,omitempty"`
	Steps       map[string]string `json:"steps"`
}
