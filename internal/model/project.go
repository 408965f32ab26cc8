package model

import "time"

// Project は作業時間を記録する対象のプロジェクトを表す。
// nameはグローバルに一意。
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
