package models

// ArtPiece — арт-объект галереи.
// GenreIDs резолвятся в имена через справочник жанров (Genre).
type ArtPiece struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	ArtistID         int64   `json:"artist"`
	CreatedYear      int     `json:"created_year"`
	Medium           string  `json:"medium"`
	Style            string  `json:"style"`
	Description      string  `json:"description"`
	ImageURL         string  `json:"image"`
	GenreIDs         []int64 `json:"genres"`
	ContributorEmail string  `json:"contributor_email"`
	IsContributed    bool    `json:"is_contributed"`
	IsVerified       bool    `json:"is_verified"`
}

// Artist — запись о художнике.
// BirthDate/DeathDate — строки формата YYYY-MM-DD, как отдаёт бэкенд;
// DeathDate пуста для ныне живущих.
type Artist struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Bio              string `json:"bio"`
	BirthDate        string `json:"birth_date"`
	DeathDate        string `json:"death_date"`
	PictureURL       string `json:"profile_picture"`
	ContributorEmail string `json:"contributor_email"`
	IsContributed    bool   `json:"is_contributed"`
}

// Genre — элемент справочника жанров.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
