package activities

import "coconet/internal/models"

type CheckMemberNameInput struct {
	Name string `json:"name"`
}

type CheckMemberNameOutput struct {
	Taken bool `json:"taken"`
}

type RegisterMemberInput struct {
	Registration     models.MemberRegistration `json:"registration"`
	ImageName        string                    `json:"image_name,omitempty"`
	ImageContentType string                    `json:"image_content_type,omitempty"`
	Image            []byte                    `json:"image,omitempty"`
}

type RegisterMemberOutput struct {
	MemberUUID string `json:"member_uuid"`
	Name       string `json:"name"`
}

type PersistMemberInput struct {
	MemberUUID string `json:"member_uuid"`
}
