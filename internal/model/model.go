package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&RecorderInfo{},
	&Round{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// RecorderInfo identifies the recorder instance that owns the database
type RecorderInfo struct {
	gorm.Model
	PlayerName string `json:"playerName" gorm:"size:64"`
	Version    string `json:"version" gorm:"size:32"`
}

func (*RecorderInfo) TableName() string {
	return "recorder_infos"
}

////////////////////////
// ROUND MODELS
////////////////////////

// Round is one Castle Wars round as seen by the recording player.
// It is inserted when the round starts and saved again when it ends.
type Round struct {
	ID        uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt time.Time  `json:"createdAt" gorm:"type:timestamptz;index:idx_round_created_at"`
	EndedAt   *time.Time `json:"endedAt" gorm:"type:timestamptz"`

	World     int    `json:"world" gorm:"index:idx_round_world"`
	Team      string `json:"team" gorm:"size:16"`
	TeamSize  int    `json:"teamSize"`
	StartTick int    `json:"startTick"`
	EndTick   int    `json:"endTick"`
	Finalized bool   `json:"finalized" gorm:"default:false"`
	Braced    bool   `json:"braced" gorm:"default:false"`
	Outcome   string `json:"outcome" gorm:"size:16;index:idx_round_outcome"`

	SaraScore int `json:"saraScore"`
	ZamScore  int `json:"zamScore"`

	CadesSet      int `json:"cadesSet"`
	CadesTinded   int `json:"cadesTinded"`
	CadesBucketed int `json:"cadesBucketed"`
	CadesExploded int `json:"cadesExploded"`

	TotalCastAttempts int `json:"totalCastAttempts"`
	Splashes          int `json:"splashes"`
	FrozenCount       int `json:"frozenCount"`
	FreezesOnMe       int `json:"freezesOnMe"`
	SplashesOnMe      int `json:"splashesOnMe"`

	Deaths          int `json:"deaths"`
	DamageTaken     int `json:"damageTaken"`
	HighestHitTaken int `json:"highestHitTaken"`
	TimesSpeared    int `json:"timesSpeared"`

	DamageDealt     float64 `json:"damageDealt"`
	HighestHitDealt float64 `json:"highestHitDealt"`

	FlagsSafed  int `json:"flagsSafed"`
	FlagsScored int `json:"flagsScored"`

	Lines datatypes.JSON `json:"lines"`
}

func (*Round) TableName() string {
	return "rounds"
}
