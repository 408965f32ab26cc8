package model

import "time"

// Record は作業時間の記録を表す。
// ちょうど1つのアカウントと1つのプロジェクトに属し、
// 作成時点でそのアカウントがプロジェクトのメンバーであることが前提。
// EndTimeはStartTimeより厳密に後でなければならない。
type Record struct {
	ID          string
	AccountID   string
	ProjectID   string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
