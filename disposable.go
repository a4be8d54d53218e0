package keydi

// Disposable is implemented by services that hold resources.
// Singleton instances are closed when their Provider is closed, and scoped
// instances when their Scope is closed, in reverse order of creation.
//
// Example:
//
//	type DatabaseConnection struct {
//	    conn *sql.DB
//	}
//
//	func (dc *DatabaseConnection) Close() error {
//	    return dc.conn.Close()
//	}
type Disposable interface {
	Close() error
}
