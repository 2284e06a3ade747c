package dto

// BookRequest: payload for creating or updating a catalog entry
type BookRequest struct {
	Title           string `json:"title" binding:"required,min=1,max=255"`
	Author          string `json:"author" binding:"required,min=1,max=255"`
	ISBN            string `json:"isbn" binding:"required,min=10,max=17"`
	Publisher       string `json:"publisher"`
	PublicationYear int    `json:"publication_year" binding:"omitempty,gte=0"`
	Category        string `json:"category"`
	TotalCopies     int    `json:"total_copies" binding:"required,gte=1"`
	Shelf           string `json:"shelf"`
	Row             string `json:"row"`
	Description     string `json:"description"`
	Image           string `json:"image"`
}

// BookListQuery: query parameters for browsing the catalog
type BookListQuery struct {
	Search        string `form:"search"`
	Category      string `form:"category"`
	AvailableOnly bool   `form:"available_only"`
	Page          int    `form:"page,default=1" binding:"omitempty,gte=1"`
	PageSize      int    `form:"page_size,default=10" binding:"omitempty,gte=1,lte=100"`
}
