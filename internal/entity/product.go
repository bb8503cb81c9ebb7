package domain

type Product struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Stock       int
}
