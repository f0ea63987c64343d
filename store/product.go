package store

// Product is the catalog record the admin tool works with. It maps onto a
// document's payload fields.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	ImageURL    string
}

// Field names of a product document.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldImageURL    = "imageUrl"
)

// ProductFromDocument maps a document onto a Product. Missing or mistyped
// fields are left at their zero value rather than failing the whole record.
func ProductFromDocument(doc Document) Product {
	p := Product{ID: doc.ID}
	if v, ok := doc.Fields[FieldName].(string); ok {
		p.Name = v
	}
	if v, ok := doc.Fields[FieldDescription].(string); ok {
		p.Description = v
	}
	if v, ok := doc.Fields[FieldPrice].(float64); ok {
		p.Price = v
	}
	if v, ok := doc.Fields[FieldImageURL].(string); ok {
		p.ImageURL = v
	}
	return p
}

// Fields returns the document payload for the product.
func (p Product) Fields() map[string]any {
	return map[string]any{
		FieldName:        p.Name,
		FieldDescription: p.Description,
		FieldPrice:       p.Price,
		FieldImageURL:    p.ImageURL,
	}
}
