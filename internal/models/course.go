package models

type Department struct {
	ID   int64  `db:"department_id"`
	Name string `db:"name"`
}

type Course struct {
	ID           int64  `db:"course_id"`
	Title        string `db:"title"`
	Credits      int    `db:"credits"`
	DepartmentID int64  `db:"department_id"`
}
