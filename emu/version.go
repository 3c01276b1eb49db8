package emu

// Core identity reported to frontends.
const (
	Name    = "amulet"
	Version = "0.3.0"
)
