// Package roommodes owns the numeric core of the room-mode model.
//
// Responsibilities: eigenmode enumeration and classification for a
// rigid-walled rectangular room, superposition of mode shapes on a fixed
// sampling grid, horizontal slice extraction, and hotspot detection.
// Key types: Engine, Dimensions, Mode, PressureField, Slice, HotspotSet.
//
// Dependency rule: this package performs no I/O and holds no mutable
// package state. Selection management, persistence and transport live in
// session, db, api and rpc; they hand the core finished, immutable inputs.
//
// Axis convention: X = length, Y = height (vertical), Z = width. Mode
// indices (n, m, l) map to (X, Y, Z).
package roommodes
