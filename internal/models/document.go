package models

// Document is an uploaded file attached to a charity or a campaign.
// It has no identity of its own and is stored inline with its owner.
type Document struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
