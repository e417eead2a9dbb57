package model

type Movie struct {
	Id            int     `json:"id" validate:"required"`
	Title         string  `json:"title" validate:"required"`
	Description   string  `json:"description"`
	Year          int     `json:"year"`
	Rating        float64 `json:"rating"`
	LengthMinutes int     `json:"lengthMinutes"`
	PosterImage   string  `json:"posterImage"`
}
