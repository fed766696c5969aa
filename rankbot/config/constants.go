package config

import "time"

// UI constants
const (
	LeaderboardPageSize = 10

	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00

	LevelUpColor = 0x00FF00
	RankUpColor  = 0xFFD700
)

// Timeouts
const (
	DefaultQueryTimeout     = 30 * time.Second
	CommandExecutionTimeout = 10 * time.Second
	NotificationTimeout     = 10 * time.Second
)
