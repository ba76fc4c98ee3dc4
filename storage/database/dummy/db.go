package dummydb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
	"github.com/trezcool/mahudhurio/core/user"
)

// DB is an in-memory database for tests and local hacking.
type (
	DB struct {
		mu         sync.RWMutex
		users      map[string]*user.User
		students   map[string]*student.Student
		attendance map[string]*attendance.Record
	}
)

func Open() (*DB, error) {
	db := &DB{
		users:      make(map[string]*user.User),
		students:   make(map[string]*student.Student),
		attendance: make(map[string]*attendance.Record),
	}
	return db, nil
}

// Reset drops all data; open repositories stay valid.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = make(map[string]*user.User)
	db.students = make(map[string]*student.Student)
	db.attendance = make(map[string]*attendance.Record)
}
