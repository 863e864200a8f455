package models

import (
	"time"
)

// StoredImage is the metadata of one ingested photo. Key is the object-store key.
type StoredImage struct {
	Key         string    `gorm:"primaryKey;size:128" json:"key"`
	Location    string    `gorm:"size:1024" json:"location"`
	UploadedBy  string    `gorm:"type:uuid;index;not null" json:"uploadedBy"`
	ContentType string    `gorm:"size:128" json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// UploadFile is one image buffer received from a client.
type UploadFile struct {
	Filename string
	MimeType string
	Data     []byte
}
