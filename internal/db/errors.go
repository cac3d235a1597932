package db

// Op constants name the backend operation for error context. Redis drivers
// use command names, the SQLite driver statement kinds.
const (
	OpPing   = "PING"
	OpGet    = "GET"
	OpSet    = "SET"
	OpDel    = "DEL"
	OpExists = "EXISTS"
	OpRPush  = "RPUSH"
	OpLRange = "LRANGE"
	OpLRem   = "LREM"
	OpLLen   = "LLEN"
	OpSAdd   = "SADD"
	OpSMembers = "SMEMBERS"

	OpSelect = "SELECT"
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
