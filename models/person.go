package models

// Person is one ingested spreadsheet row. Rows are bulk-inserted in
// chunks; there is no uniqueness constraint, so re-ingesting a file
// produces duplicate rows rather than an error.
type Person struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:255" json:"name"`
	Email string `gorm:"size:255" json:"email"`
	Age   int    `json:"age"`
}

func (Person) TableName() string {
	return "people"
}
