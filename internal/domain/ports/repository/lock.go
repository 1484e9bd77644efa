package repository

// ChatLocker provides per-chat mutual exclusion for read-modify-write sequences.
type ChatLocker interface {
	Lock(chatID int64) (unlock func())
}
