package model

import (
    "strings"
    "time"
)

// RoomStatus is the operational state of a room.  Housekeeping and
// reception change it; the availability check only reads it.
type RoomStatus string

const (
    RoomAvailable   RoomStatus = "available"
    RoomOccupied    RoomStatus = "occupied"
    RoomDirty       RoomStatus = "dirty"
    RoomMaintenance RoomStatus = "maintenance"
)

// ParseRoomStatus normalises s and reports whether it names a known status.
func ParseRoomStatus(s string) (RoomStatus, bool) {
    st := RoomStatus(strings.ToLower(strings.TrimSpace(s)))
    switch st {
    case RoomAvailable, RoomOccupied, RoomDirty, RoomMaintenance:
        return st, true
    }
    return "", false
}

// Room represents a bookable room inside a hotel.
//
// Fields:
//  ID        – rooms.room_id.
//  HotelID   – owning hotel.
//  Number    – human facing room number, unique per hotel.
//  Type      – free-form room type (Standard, Suite...).
//  Status    – operational status.
//  HotelName – joined from hotels.name when listing.
type Room struct {
    ID        uint64     `json:"id"`
    HotelID   uint64     `json:"hotel_id"`
    Number    string     `json:"number"`
    Type      string     `json:"type"`
    Status    RoomStatus `json:"status"`
    HotelName string     `json:"hotel,omitempty"`
    CreatedAt time.Time  `json:"created_at"`
}
