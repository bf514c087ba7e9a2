package repository

import "errors"

// ErrSlotTaken is returned when a doctor already has an overlapping,
// non-cancelled appointment.
var ErrSlotTaken = errors.New("doctor already has an appointment in this slot")
