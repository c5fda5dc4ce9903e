package models

import (
	"time"

	"gorm.io/datatypes"
)

// Candidate 候选人主表，一条记录对应一次成功的提取结果
type Candidate struct {
	CandidateID    string         `gorm:"type:char(36);primaryKey"`
	FullName       string         `gorm:"type:varchar(255);not null"`
	Email          string         `gorm:"type:varchar(255);index:idx_candidates_email"`
	Phone          string         `gorm:"type:varchar(50)"`
	SkillsJSON     datatypes.JSON `gorm:"type:json"`
	ExperienceJSON datatypes.JSON `gorm:"type:json"`
	EducationJSON  datatypes.JSON `gorm:"type:json"`
	CreatedAt      time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt      time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// ResumeSubmission 简历提交快照表，记录一次上传的来龙去脉
type ResumeSubmission struct {
	SubmissionUUID      string  `gorm:"type:char(36);primaryKey"`
	CandidateID         *string `gorm:"type:char(36);index:idx_rs_candidate_id"`
	UploaderUserID      string  `gorm:"type:char(36);index:idx_rs_uploader"`
	OriginalFilename    string  `gorm:"type:varchar(255)"`
	FileSizeBytes       int64   `gorm:"type:bigint"`
	MediaType           string  `gorm:"type:varchar(100)"`
	OriginalFilePathOSS string  `gorm:"type:varchar(1024)"`
	ParsedTextPathOSS   string  `gorm:"type:varchar(1024)"`
	RawFileMD5          string  `gorm:"type:char(32);index:idx_rs_raw_file_md5"`
	RawTextMD5          string  `gorm:"type:char(32);index:idx_rs_raw_text_md5"`
	// 产出结果的层级（提供商名或local-heuristic）
	ExtractorProvider string `gorm:"type:varchar(50)"`
	// 是否降级到本地兜底
	UsedFallback        bool      `gorm:"type:tinyint(1);default:0"`
	ProcessingStatus    string    `gorm:"type:varchar(50);index:idx_rs_processing_status"`
	SubmissionTimestamp time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_rs_submission_timestamp"`
	CreatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (ResumeSubmission) TableName() string {
	return "resume_submissions"
}
