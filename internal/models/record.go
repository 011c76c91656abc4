package models

import (
	"time"

	"gorm.io/datatypes"
)

type RecordKind string

const (
	KindGuests       RecordKind = "guests"
	KindReservations RecordKind = "reservations"
	KindProperties   RecordKind = "properties"
	KindStaff        RecordKind = "staff"
	KindTasks        RecordKind = "tasks"
	KindProducts     RecordKind = "products"
	KindServices     RecordKind = "services"
)

var RecordKinds = []RecordKind{
	KindGuests, KindReservations, KindProperties, KindStaff, KindTasks, KindProducts, KindServices,
}

func ParseRecordKind(s string) (RecordKind, bool) {
	for _, k := range RecordKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Record is one hotel entity. Data is the free-form JSON document the admin
// and guest pages read and write; ID is duplicated into it as "id".
type Record struct {
	ID        string         `gorm:"column:id;primaryKey;size:64" json:"id"`
	Kind      RecordKind     `gorm:"column:kind;primaryKey;size:32;index" json:"kind"`
	Data      datatypes.JSON `gorm:"column:data" json:"data"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Record) TableName() string { return "hotel_records" }
