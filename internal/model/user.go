// Package model はドメインモデルを定義する。
package model

import "time"

// Coordinates は地図上の位置を表す。
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// User はマップ上に表示されるサービス利用ユーザーを表す。
// Locationがnilのユーザーはマップに表示されない。
type User struct {
	ID          string
	Username    string
	Email       string
	AvatarURL   string
	Bio         string
	Age         int
	Gender      string
	Location    *Coordinates
	IsOnline    bool
	IsPremium   bool
	IsModerator bool
	LastSeen    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasLocation は位置情報を持つかどうかを返す。
func (u *User) HasLocation() bool {
	return u.Location != nil
}

// Clone はUserのディープコピーを返す。
// ストア外部へ渡すスナップショットの生成に使用する。
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Location != nil {
		loc := *u.Location
		c.Location = &loc
	}
	return &c
}

// Session は現在のサインイン状態のスナップショットを表す。
// Userがnilの場合は未認証状態。
type Session struct {
	User          *User
	Authenticated bool
	Loading       bool
}
