package models

// Garment represents one wardrobe item. Image is an S3 object key for
// uploaded garments or an external URL for imported catalog items.
type Garment struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Image string `bson:"image" json:"image"`
}
