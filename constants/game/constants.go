package game_constants

import "time"

// Loto draw constants
const TotalNumbers = 90
const MaxCardsPerUser = 2
const MinCardsToStart = 1

// Transition engine retry policy for transient storage conflicts
const MaxTxRetries = 3
const RetryBackoffStep = 50 * time.Millisecond

// Room join-code allocation
const RoomCodeLength = 6
const RoomCodeSpace = 1000000 // 000000..999999
const MaxRoomCodeAttempts = 10
